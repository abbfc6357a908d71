package plan

import "strings"

// aliasGroups folds codec name variants onto a canonical spelling (the
// first entry of each group).
var aliasGroups = [][]string{
	{"hevc", "h265", "h.265", "x265"},
	{"h264", "avc", "h.264", "x264"},
	{"av1"},
	{"mpeg2", "mpeg2video"},
	{"eac3", "e-ac-3", "ec-3", "ddp", "dd+"},
	{"ac3", "ac-3", "dd"},
	{"dts-hd", "dts-hd ma", "dts-hd hra", "dtshd"},
	{"dts", "dca"},
	{"truehd", "mlp"},
	{"aac", "aac_latm"},
	{"opus", "libopus"},
	{"flac"},
	{"subrip", "srt"},
	{"mov_text", "tx3g"},
	{"ass", "ssa"},
	{"hdmv_pgs_subtitle", "pgs", "pgssub"},
	{"dvd_subtitle", "vobsub", "dvdsub"},
	{"dvb_subtitle", "dvbsub"},
}

var canonicalCodec = func() map[string]string {
	m := make(map[string]string)
	for _, group := range aliasGroups {
		for _, name := range group {
			m[name] = group[0]
		}
	}
	return m
}()

// CanonicalCodec folds a codec name variant onto its canonical spelling
// ("h265" -> "hevc", "dts-hd ma" -> "dts-hd"). Unknown codecs pass through
// lowercased.
func CanonicalCodec(codec string) string {
	codec = strings.ToLower(strings.TrimSpace(codec))
	if canonical, ok := canonicalCodec[codec]; ok {
		return canonical
	}
	return codec
}

// CodecsMatch reports whether two codec spellings denote the same codec.
func CodecsMatch(a, b string) bool {
	return CanonicalCodec(a) == CanonicalCodec(b)
}

// mp4-compatible canonical codecs per track type.
var (
	mp4VideoCodecs = map[string]bool{
		"h264": true, "hevc": true, "av1": true, "mpeg4": true,
	}
	mp4AudioCodecs = map[string]bool{
		"aac": true, "ac3": true, "eac3": true, "alac": true, "mp3": true, "opus": true, "flac": true,
	}
	// Text subtitle codecs convertible to mov_text for MP4.
	mp4ConvertibleSubtitles = map[string]bool{
		"subrip": true, "ass": true, "webvtt": true, "mov_text": true,
	}
	// Bitmap subtitle codecs have no MP4 representation and are removed on
	// conversion.
	bitmapSubtitleCodecs = map[string]bool{
		"hdmv_pgs_subtitle": true, "dvd_subtitle": true, "dvb_subtitle": true,
	}
)

// IsMP4Compatible reports whether a codec can be carried in MP4 unchanged.
func IsMP4Compatible(trackType string, codec string) bool {
	canonical := CanonicalCodec(codec)
	switch trackType {
	case "video":
		return mp4VideoCodecs[canonical]
	case "audio":
		return mp4AudioCodecs[canonical]
	case "subtitle":
		return canonical == "mov_text"
	default:
		return false
	}
}

// IsBitmapSubtitle reports whether a subtitle codec is image-based.
func IsBitmapSubtitle(codec string) bool {
	return bitmapSubtitleCodecs[CanonicalCodec(codec)]
}

// IsConvertibleSubtitle reports whether a subtitle codec converts to
// mov_text.
func IsConvertibleSubtitle(codec string) bool {
	return mp4ConvertibleSubtitles[CanonicalCodec(codec)]
}

// audioTranscodeDefaults maps incompatible canonical audio codecs to their
// default transcode target.
var audioTranscodeDefaults = map[string]CodecMapping{
	"truehd": {Action: "transcode", Codec: "eac3", Bitrate: "640k"},
	"dts-hd": {Action: "transcode", Codec: "eac3", Bitrate: "640k"},
	"dts":    {Action: "transcode", Codec: "eac3", Bitrate: "640k"},
	"pcm":    {Action: "transcode", Codec: "aac", Bitrate: "256k"},
	"vorbis": {Action: "transcode", Codec: "aac", Bitrate: "256k"},
}

// defaultAudioTranscodeTarget handles codecs with no specific mapping.
var defaultAudioTranscodeTarget = CodecMapping{Action: "transcode", Codec: "aac", Bitrate: "256k"}

func audioTranscodeDefault(codec string) CodecMapping {
	canonical := CanonicalCodec(codec)
	if strings.HasPrefix(canonical, "pcm_") {
		canonical = "pcm"
	}
	if mapping, ok := audioTranscodeDefaults[canonical]; ok {
		return mapping
	}
	return defaultAudioTranscodeTarget
}
