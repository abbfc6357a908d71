package media

import "strings"

// formatAliases maps exact ffprobe format strings to canonical names.
var formatAliases = map[string]string{
	"matroska":                "mkv",
	"matroska,webm":           "mkv",
	"mov,mp4,m4a,3gp,3g2,mj2": "mp4",
	"quicktime":               "mov",
}

// NormalizeFormat folds container format spellings from ffprobe output and
// file extensions onto canonical names ("matroska" -> "mkv").
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))

	if alias, ok := formatAliases[format]; ok {
		return alias
	}

	// Substring matching handles format-list variations across ffprobe
	// versions.
	switch {
	case strings.Contains(format, "matroska") || format == "webm":
		return "mkv"
	case strings.Contains(format, "mp4") || strings.Contains(format, "m4a") || strings.Contains(format, "m4v"):
		return "mp4"
	case strings.Contains(format, "mov") || strings.Contains(format, "quicktime"):
		return "mov"
	case strings.Contains(format, "avi"):
		return "avi"
	}
	return format
}
