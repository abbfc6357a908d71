package policy

// document is the raw YAML schema. Decoding is strict: unknown fields are
// rejected so a typoed key fails the load instead of being ignored.
type document struct {
	Version      int             `yaml:"version"`
	Name         string          `yaml:"name"`
	TrackOrder   *trackOrderDoc  `yaml:"track_order"`
	TrackFilters *trackFilterDoc `yaml:"track_filters"`
	Rules        []ruleDoc       `yaml:"rules"`
	Synthesis    []synthesisDoc  `yaml:"synthesis"`
	Container    *containerDoc   `yaml:"container"`
	Phases       []phaseDoc      `yaml:"phases"`
}

type trackOrderDoc struct {
	Types     []string `yaml:"types"`
	Languages []string `yaml:"languages"`
}

type trackFilterDoc struct {
	Audio      *typeFilterDoc       `yaml:"audio"`
	Subtitle   *typeFilterDoc       `yaml:"subtitle"`
	Attachment *attachmentFilterDoc `yaml:"attachment"`
}

type typeFilterDoc struct {
	KeepLanguages    []string `yaml:"keep_languages"`
	RemoveAll        bool     `yaml:"remove_all"`
	PreserveForced   bool     `yaml:"preserve_forced"`
	RemoveCommentary bool     `yaml:"remove_commentary"`
}

type attachmentFilterDoc struct {
	KeepAll bool `yaml:"keep_all"`
}

type ruleDoc struct {
	Name string      `yaml:"name"`
	When string      `yaml:"when"`
	Then []actionDoc `yaml:"then"`
	Else []actionDoc `yaml:"else"`
}

// actionDoc carries exactly one action key.
type actionDoc struct {
	Skip                 string             `yaml:"skip"`
	Warn                 string             `yaml:"warn"`
	Fail                 string             `yaml:"fail"`
	SetForced            *flagActionDoc     `yaml:"set_forced"`
	SetDefault           *flagActionDoc     `yaml:"set_default"`
	SetLanguage          *languageActionDoc `yaml:"set_language"`
	SetContainerMetadata *metadataActionDoc `yaml:"set_container_metadata"`
}

type flagActionDoc struct {
	Type     string `yaml:"type"`
	Language string `yaml:"language"`
	Value    *bool  `yaml:"value"`
}

type languageActionDoc struct {
	Type       string `yaml:"type"`
	Language   string `yaml:"language"`
	Value      string `yaml:"value"`
	FromPlugin string `yaml:"from_plugin"`
}

type metadataActionDoc struct {
	Field      string `yaml:"field"`
	Value      string `yaml:"value"`
	FromPlugin string `yaml:"from_plugin"`
}

type synthesisDoc struct {
	Codec        string         `yaml:"codec"`
	Channels     int            `yaml:"channels"`
	Language     string         `yaml:"language"`
	Title        string         `yaml:"title"`
	Bitrate      string         `yaml:"bitrate"`
	Prefer       []criterionDoc `yaml:"prefer"`
	When         string         `yaml:"when"`
	SkipIfExists bool           `yaml:"skip_if_exists"`
}

// criterionDoc carries exactly one preference key. Channels is "max", "min",
// or an exact channel count.
type criterionDoc struct {
	Language   string `yaml:"language"`
	Commentary *bool  `yaml:"commentary"`
	Codec      string `yaml:"codec"`
	Channels   string `yaml:"channels"`
}

type containerDoc struct {
	TargetFormat  string                     `yaml:"target_format"`
	CodecMappings map[string]codecMappingDoc `yaml:"codec_mappings"`
}

type codecMappingDoc struct {
	Action  string `yaml:"action"`
	Codec   string `yaml:"codec"`
	Bitrate string `yaml:"bitrate"`
}

type phaseDoc struct {
	Name      string       `yaml:"name"`
	DependsOn []string     `yaml:"depends_on"`
	RunIf     []string     `yaml:"run_if"`
	SkipWhen  *skipWhenDoc `yaml:"skip_when"`
	OnError   string       `yaml:"on_error"`
}

type skipWhenDoc struct {
	Mode   string     `yaml:"mode"`
	Checks []checkDoc `yaml:"checks"`
}

// checkDoc carries exactly one check key.
type checkDoc struct {
	Expression      string       `yaml:"expression"`
	FileSmallerThan string       `yaml:"file_smaller_than"`
	ContainerIs     string       `yaml:"container_is"`
	HasTrack        *hasTrackDoc `yaml:"has_track"`
}

type hasTrackDoc struct {
	Type     string `yaml:"type"`
	Language string `yaml:"language"`
	Codec    string `yaml:"codec"`
}
