// Package policy loads and compiles policy documents. A document is a
// schema-versioned YAML file declaring track ordering, per-type track
// filters, an ordered conditional rule list, audio synthesis targets,
// container conversion settings, and the phase list. Expression strings are
// compiled at load time; any lex or parse error aborts the load with its
// source position, before any file is touched.
package policy
