package expr

import "reflect"

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "=="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// LiteralKind tags the value type carried by a Literal.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralSize
	LiteralBool
)

// Literal is a tagged scalar value appearing on the right side of a
// comparison. Size literals keep the written magnitude and unit so the
// serializer can reproduce the source form; Bytes is the canonical value
// used for evaluation.
type Literal struct {
	Kind  LiteralKind
	Str   string
	Num   float64
	Unit  string
	Bytes int64
	Bool  bool
}

// IntFilter is a numeric track filter with exact or comparison semantics.
type IntFilter struct {
	Op    CompareOp
	Value int
}

// TrackFilters narrows a track set inside exists/count conditions. Zero
// values mean "no constraint".
type TrackFilters struct {
	Languages  []string
	Codecs     []string
	Channels   *IntFilter
	Height     *IntFilter
	Width      *IntFilter
	Default    *bool
	Forced     *bool
	Commentary *bool
	Title      string
}

// Empty reports whether no filter clause is set.
func (f TrackFilters) Empty() bool {
	return len(f.Languages) == 0 && len(f.Codecs) == 0 &&
		f.Channels == nil && f.Height == nil && f.Width == nil &&
		f.Default == nil && f.Forced == nil && f.Commentary == nil &&
		f.Title == ""
}

// Condition is the closed set of expression AST nodes. Conditions are
// immutable after parsing and safe to share across goroutines.
type Condition interface {
	condition()
}

// And is true when every child is true.
type And struct {
	Children []Condition
}

// Or is true when any child is true.
type Or struct {
	Children []Condition
}

// Not inverts its child.
type Not struct {
	Child Condition
}

// Exists is true when at least one track of the given type matches the
// filters.
type Exists struct {
	TrackType string
	Filters   TrackFilters
}

// Count compares the number of matching tracks against Value.
type Count struct {
	TrackType string
	Filters   TrackFilters
	Op        CompareOp
	Value     int
}

// MultiLanguage is true when an audio track carries material dialogue in
// more than one language according to transcription classification.
type MultiLanguage struct {
	Threshold       float64
	TrackIndex      *int
	PrimaryLanguage string
}

// PluginMetadata compares a plugin-supplied field against a literal. With an
// empty Op it is a presence check.
type PluginMetadata struct {
	Plugin string
	Field  string
	Op     CompareOp
	Value  *Literal
}

// ContainerMetadata compares a container-level tag against a literal. With
// an empty Op it is a presence check.
type ContainerMetadata struct {
	Field string
	Op    CompareOp
	Value *Literal
}

// IsOriginal is true when a track's language matches the file's original
// language with at least MinConfidence.
type IsOriginal struct {
	Value         bool
	MinConfidence float64
	Language      string
}

// IsDubbed is true when a track is classified as dubbed audio with at least
// MinConfidence.
type IsDubbed struct {
	Value         bool
	MinConfidence float64
	Language      string
}

func (*And) condition()               {}
func (*Or) condition()                {}
func (*Not) condition()               {}
func (*Exists) condition()            {}
func (*Count) condition()             {}
func (*MultiLanguage) condition()     {}
func (*PluginMetadata) condition()    {}
func (*ContainerMetadata) condition() {}
func (*IsOriginal) condition()        {}
func (*IsDubbed) condition()          {}

// Equal reports structural equality between two conditions.
func Equal(a, b Condition) bool {
	return reflect.DeepEqual(a, b)
}

// TrackTypes enumerates the track types accepted by exists/count.
var TrackTypes = map[string]bool{
	"video":      true,
	"audio":      true,
	"subtitle":   true,
	"attachment": true,
}

const (
	// DefaultMultiLanguageThreshold is the secondary-language dialogue share
	// above which a track counts as multi-language. Five percent of dialogue
	// in a second language is enough.
	DefaultMultiLanguageThreshold = 0.05
	// DefaultMinConfidence applies to is_original/is_dubbed classification.
	DefaultMinConfidence = 0.7
)
