// Package expr implements the policy condition expression language: a
// lexer, a precedence-climbing parser producing a closed Condition AST, and
// a serializer that renders an AST back to minimal source form.
//
// The grammar is fixed and small. Boolean combinators and/or/not wrap
// function-call atoms (exists, count, multi_language, plugin,
// container_meta, is_original, is_dubbed) whose arguments are keyword-style
// filter clauses. Parsed conditions are immutable and shared freely across
// goroutines; evaluation lives in internal/rules.
package expr
