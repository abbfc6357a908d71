package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDepth bounds expression nesting to keep recursive evaluation and
// serialization stack-safe on hostile input.
const MaxDepth = 50

// Parse lexes and parses source into a Condition AST.
func Parse(source string) (Condition, error) {
	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != KindEOF {
		return nil, &ParseError{Message: "unexpected trailing input", Expected: "end of input", Token: tok}
	}
	return cond, nil
}

type parser struct {
	tokens []Token
	pos    int
	depth  int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) take() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != KindEOF {
		p.pos++
	}
	return tok
}

func (p *parser) takeKeyword(kw string) bool {
	if tok := p.peek(); tok.Kind == KindKeyword && tok.Text == kw {
		p.take()
		return true
	}
	return false
}

func (p *parser) expect(kind Kind, expected string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return Token{}, &ParseError{Message: "unexpected token", Expected: expected, Token: tok}
	}
	return p.take(), nil
}

func (p *parser) enter(tok Token) error {
	p.depth++
	if p.depth > MaxDepth {
		return &ParseError{Message: fmt.Sprintf("expression nesting exceeds %d levels", MaxDepth), Token: tok}
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseOr() (Condition, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.takeKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &Or{Children: children}, nil
}

func (p *parser) parseAnd() (Condition, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	children := []Condition{left}
	for p.takeKeyword("and") {
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		children = append(children, right)
	}
	if len(children) == 1 {
		return left, nil
	}
	return &And{Children: children}, nil
}

func (p *parser) parseNot() (Condition, error) {
	if tok := p.peek(); tok.Kind == KindKeyword && tok.Text == "not" {
		p.take()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	}
	return p.parseAtom()
}

func (p *parser) parseAtom() (Condition, error) {
	tok := p.peek()
	switch tok.Kind {
	case KindLParen:
		p.take()
		if err := p.enter(tok); err != nil {
			return nil, err
		}
		defer p.leave()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(KindRParen, "closing parenthesis"); err != nil {
			return nil, err
		}
		return inner, nil
	case KindIdentifier:
		return p.parseCall()
	default:
		return nil, &ParseError{Message: "unexpected token", Expected: "condition", Token: tok}
	}
}

func (p *parser) parseCall() (Condition, error) {
	name := p.take()
	if _, err := p.expect(KindLParen, "opening parenthesis after "+name.Text); err != nil {
		return nil, err
	}

	switch name.Text {
	case "exists":
		trackType, filters, err := p.parseTrackArgs(name)
		if err != nil {
			return nil, err
		}
		return &Exists{TrackType: trackType, Filters: filters}, nil
	case "count":
		trackType, filters, err := p.parseTrackArgs(name)
		if err != nil {
			return nil, err
		}
		return p.parseCountComparison(trackType, filters)
	case "multi_language":
		return p.parseMultiLanguage()
	case "plugin":
		return p.parsePlugin()
	case "container_meta":
		return p.parseContainerMeta()
	case "is_original":
		return p.parseClassification(name.Text)
	case "is_dubbed":
		return p.parseClassification(name.Text)
	default:
		return nil, &ParseError{
			Message:  fmt.Sprintf("unknown function %q", name.Text),
			Expected: "one of exists, count, multi_language, plugin, container_meta, is_original, is_dubbed",
			Token:    name,
		}
	}
}

// parseTrackArgs consumes "type, filter clauses...)" for exists/count.
func (p *parser) parseTrackArgs(fn Token) (string, TrackFilters, error) {
	typeTok, err := p.expect(KindIdentifier, "track type")
	if err != nil {
		return "", TrackFilters{}, err
	}
	trackType := strings.ToLower(typeTok.Text)
	if !TrackTypes[trackType] {
		return "", TrackFilters{}, &ParseError{
			Message:  fmt.Sprintf("invalid track type %q", typeTok.Text),
			Expected: "one of video, audio, subtitle, attachment",
			Token:    typeTok,
		}
	}

	var filters TrackFilters
	for p.peek().Kind == KindComma {
		p.take()
		if err := p.parseFilterClause(&filters); err != nil {
			return "", TrackFilters{}, err
		}
	}
	if _, err := p.expect(KindRParen, "closing parenthesis"); err != nil {
		return "", TrackFilters{}, err
	}
	return trackType, filters, nil
}

func (p *parser) parseCountComparison(trackType string, filters TrackFilters) (Condition, error) {
	opTok, err := p.expect(KindOperator, "comparison operator after count(...)")
	if err != nil {
		return nil, err
	}
	numTok, err := p.expect(KindNumber, "integer")
	if err != nil {
		return nil, err
	}
	value, err := strconv.Atoi(numTok.Text)
	if err != nil {
		return nil, &ParseError{Message: "count comparison requires an integer", Expected: "integer", Token: numTok}
	}
	return &Count{TrackType: trackType, Filters: filters, Op: CompareOp(opTok.Text), Value: value}, nil
}

// filterKeyAliases folds alternate spellings onto canonical filter keys.
var filterKeyAliases = map[string]string{
	"lang":     "language",
	"language": "language",
	"codec":    "codec",
	"channels": "channels",
	"ch":       "channels",
	"height":   "height",
	"width":    "width",
	"default":  "default",
	"forced":   "forced",
	// commentary == false selects main-audio tracks
	"commentary":     "commentary",
	"not_commentary": "not_commentary",
	"title":          "title",
}

func (p *parser) parseFilterClause(filters *TrackFilters) error {
	keyTok, err := p.expect(KindIdentifier, "filter name")
	if err != nil {
		return err
	}
	key, ok := filterKeyAliases[strings.ToLower(keyTok.Text)]
	if !ok {
		return &ParseError{
			Message:  fmt.Sprintf("unknown filter %q", keyTok.Text),
			Expected: "one of language, codec, channels, height, width, default, forced, commentary, not_commentary, title",
			Token:    keyTok,
		}
	}

	if p.takeKeyword("in") {
		values, err := p.parseValueList()
		if err != nil {
			return err
		}
		switch key {
		case "language":
			filters.Languages = append(filters.Languages, values...)
		case "codec":
			filters.Codecs = append(filters.Codecs, values...)
		default:
			return &ParseError{Message: fmt.Sprintf("filter %q does not accept a value list", key), Token: keyTok}
		}
		return nil
	}

	opTok, err := p.expect(KindOperator, "comparison operator or 'in'")
	if err != nil {
		return err
	}
	op := CompareOp(opTok.Text)

	switch key {
	case "language", "codec", "title":
		valTok := p.take()
		if valTok.Kind != KindIdentifier && valTok.Kind != KindString {
			return &ParseError{Message: "string filter requires a value", Expected: "identifier or string", Token: valTok}
		}
		if op != OpEq {
			return &ParseError{Message: fmt.Sprintf("filter %q only supports ==", key), Token: opTok}
		}
		switch key {
		case "language":
			filters.Languages = append(filters.Languages, valTok.Text)
		case "codec":
			filters.Codecs = append(filters.Codecs, valTok.Text)
		case "title":
			filters.Title = valTok.Text
		}
	case "channels", "height", "width":
		numTok, err := p.expect(KindNumber, "integer")
		if err != nil {
			return err
		}
		value, convErr := strconv.Atoi(numTok.Text)
		if convErr != nil {
			return &ParseError{Message: fmt.Sprintf("filter %q requires an integer", key), Expected: "integer", Token: numTok}
		}
		filter := &IntFilter{Op: op, Value: value}
		switch key {
		case "channels":
			filters.Channels = filter
		case "height":
			filters.Height = filter
		case "width":
			filters.Width = filter
		}
	case "default", "forced", "commentary", "not_commentary":
		boolTok := p.take()
		if boolTok.Kind != KindKeyword || (boolTok.Text != "true" && boolTok.Text != "false") {
			return &ParseError{Message: fmt.Sprintf("filter %q requires true or false", key), Expected: "true or false", Token: boolTok}
		}
		if op != OpEq && op != OpNe {
			return &ParseError{Message: fmt.Sprintf("filter %q only supports == and !=", key), Token: opTok}
		}
		value := boolTok.Text == "true"
		if op == OpNe {
			value = !value
		}
		switch key {
		case "default":
			filters.Default = &value
		case "forced":
			filters.Forced = &value
		case "commentary":
			filters.Commentary = &value
		case "not_commentary":
			inverted := !value
			filters.Commentary = &inverted
		}
	}
	return nil
}

func (p *parser) parseValueList() ([]string, error) {
	if _, err := p.expect(KindLBracket, "opening bracket"); err != nil {
		return nil, err
	}
	var values []string
	for {
		tok := p.take()
		if tok.Kind != KindIdentifier && tok.Kind != KindString {
			return nil, &ParseError{Message: "value list entries must be identifiers or strings", Expected: "identifier or string", Token: tok}
		}
		values = append(values, tok.Text)
		next := p.take()
		if next.Kind == KindRBracket {
			return values, nil
		}
		if next.Kind != KindComma {
			return nil, &ParseError{Message: "unexpected token in value list", Expected: "comma or closing bracket", Token: next}
		}
	}
}

// parseMultiLanguage consumes keyword arguments for multi_language(...).
func (p *parser) parseMultiLanguage() (Condition, error) {
	cond := &MultiLanguage{Threshold: DefaultMultiLanguageThreshold}
	for p.peek().Kind != KindRParen {
		keyTok, err := p.expect(KindIdentifier, "argument name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOperator(OpEq); err != nil {
			return nil, err
		}
		switch strings.ToLower(keyTok.Text) {
		case "threshold":
			value, err := p.parseFloat()
			if err != nil {
				return nil, err
			}
			cond.Threshold = value
		case "track":
			numTok, err := p.expect(KindNumber, "track index")
			if err != nil {
				return nil, err
			}
			idx, convErr := strconv.Atoi(numTok.Text)
			if convErr != nil {
				return nil, &ParseError{Message: "track index must be an integer", Expected: "integer", Token: numTok}
			}
			cond.TrackIndex = &idx
		case "primary_language":
			valTok := p.take()
			if valTok.Kind != KindIdentifier && valTok.Kind != KindString {
				return nil, &ParseError{Message: "primary_language requires a value", Expected: "identifier or string", Token: valTok}
			}
			cond.PrimaryLanguage = valTok.Text
		default:
			return nil, &ParseError{
				Message:  fmt.Sprintf("unknown multi_language argument %q", keyTok.Text),
				Expected: "one of threshold, track, primary_language",
				Token:    keyTok,
			}
		}
		if p.peek().Kind == KindComma {
			p.take()
		}
	}
	p.take()
	return cond, nil
}

// parsePlugin consumes "name, field)" and an optional trailing comparison.
func (p *parser) parsePlugin() (Condition, error) {
	pluginTok, err := p.expect(KindIdentifier, "plugin name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(KindComma, "comma"); err != nil {
		return nil, err
	}
	fieldTok := p.take()
	if fieldTok.Kind != KindIdentifier && fieldTok.Kind != KindString {
		return nil, &ParseError{Message: "plugin field name required", Expected: "identifier or string", Token: fieldTok}
	}
	if _, err := p.expect(KindRParen, "closing parenthesis"); err != nil {
		return nil, err
	}
	cond := &PluginMetadata{Plugin: pluginTok.Text, Field: fieldTok.Text}
	return p.attachComparison(cond, &cond.Op, &cond.Value)
}

func (p *parser) parseContainerMeta() (Condition, error) {
	fieldTok := p.take()
	if fieldTok.Kind != KindIdentifier && fieldTok.Kind != KindString {
		return nil, &ParseError{Message: "container_meta field name required", Expected: "identifier or string", Token: fieldTok}
	}
	if _, err := p.expect(KindRParen, "closing parenthesis"); err != nil {
		return nil, err
	}
	cond := &ContainerMetadata{Field: fieldTok.Text}
	return p.attachComparison(cond, &cond.Op, &cond.Value)
}

// attachComparison consumes an optional "<op> literal" after a metadata
// call. Without one, the condition is a presence check.
func (p *parser) attachComparison(cond Condition, op *CompareOp, value **Literal) (Condition, error) {
	if p.peek().Kind != KindOperator {
		return cond, nil
	}
	opTok := p.take()
	lit, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	*op = CompareOp(opTok.Text)
	*value = lit
	return cond, nil
}

func (p *parser) parseClassification(name string) (Condition, error) {
	value := true
	minConfidence := DefaultMinConfidence
	language := ""
	for p.peek().Kind != KindRParen {
		keyTok, err := p.expect(KindIdentifier, "argument name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOperator(OpEq); err != nil {
			return nil, err
		}
		switch strings.ToLower(keyTok.Text) {
		case "value":
			boolTok := p.take()
			if boolTok.Kind != KindKeyword || (boolTok.Text != "true" && boolTok.Text != "false") {
				return nil, &ParseError{Message: "value requires true or false", Expected: "true or false", Token: boolTok}
			}
			value = boolTok.Text == "true"
		case "min_confidence", "confidence":
			f, err := p.parseFloat()
			if err != nil {
				return nil, err
			}
			minConfidence = f
		case "lang", "language":
			valTok := p.take()
			if valTok.Kind != KindIdentifier && valTok.Kind != KindString {
				return nil, &ParseError{Message: "language requires a value", Expected: "identifier or string", Token: valTok}
			}
			language = valTok.Text
		default:
			return nil, &ParseError{
				Message:  fmt.Sprintf("unknown %s argument %q", name, keyTok.Text),
				Expected: "one of value, min_confidence, language",
				Token:    keyTok,
			}
		}
		if p.peek().Kind == KindComma {
			p.take()
		}
	}
	p.take()
	if name == "is_original" {
		return &IsOriginal{Value: value, MinConfidence: minConfidence, Language: language}, nil
	}
	return &IsDubbed{Value: value, MinConfidence: minConfidence, Language: language}, nil
}

func (p *parser) expectOperator(op CompareOp) (Token, error) {
	tok := p.peek()
	if tok.Kind != KindOperator || CompareOp(tok.Text) != op {
		return Token{}, &ParseError{Message: "unexpected token", Expected: string(op), Token: tok}
	}
	return p.take(), nil
}

func (p *parser) parseFloat() (float64, error) {
	numTok, err := p.expect(KindNumber, "number")
	if err != nil {
		return 0, err
	}
	value, convErr := strconv.ParseFloat(numTok.Text, 64)
	if convErr != nil {
		return 0, &ParseError{Message: "invalid number", Expected: "number", Token: numTok}
	}
	return value, nil
}

// parseLiteral converts the next token into a tagged literal value.
func (p *parser) parseLiteral() (*Literal, error) {
	tok := p.take()
	switch tok.Kind {
	case KindString:
		return &Literal{Kind: LiteralString, Str: tok.Text}, nil
	case KindIdentifier:
		return &Literal{Kind: LiteralString, Str: tok.Text}, nil
	case KindNumber:
		value, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, &ParseError{Message: "invalid number", Expected: "number", Token: tok}
		}
		return &Literal{Kind: LiteralNumber, Num: value}, nil
	case KindSize:
		return parseSizeLiteral(tok)
	case KindKeyword:
		if tok.Text == "true" || tok.Text == "false" {
			return &Literal{Kind: LiteralBool, Bool: tok.Text == "true"}, nil
		}
	}
	return nil, &ParseError{Message: "expected a literal value", Expected: "string, number, size, or boolean", Token: tok}
}

func parseSizeLiteral(tok Token) (*Literal, error) {
	text := tok.Text
	split := len(text)
	for split > 0 && isAlpha(text[split-1]) {
		split--
	}
	numPart, unit := text[:split], text[split:]
	value, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return nil, &ParseError{Message: "invalid size literal", Expected: "size", Token: tok}
	}
	multiplier, ok := sizeSuffixes[strings.ToLower(unit)]
	if !ok {
		return nil, &ParseError{Message: fmt.Sprintf("invalid size suffix %q", unit), Expected: allowedSizeSuffixes, Token: tok}
	}
	return &Literal{
		Kind:  LiteralSize,
		Num:   value,
		Unit:  strings.ToUpper(unit),
		Bytes: int64(value * float64(multiplier)),
	}, nil
}
