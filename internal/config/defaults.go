package config

const (
	defaultPolicyPath           = "~/.config/medley/policy.yaml"
	defaultAuditDBPath          = "~/.local/share/medley/audit.db"
	defaultLogDir               = "~/.local/share/medley/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
	defaultWorkerCount          = 2
	defaultQueueDepth           = 64
	defaultMinSizeRatio         = 0.5
	defaultPluginTimeoutSeconds = 10
	defaultNtfyTimeoutSeconds   = 10
)

// defaultExtensions lists the container formats the planner understands.
var defaultExtensions = []string{"mkv", "mp4", "m4v", "webm", "avi", "mov"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDirs: []string{"~/library"},
			PolicyPath:  defaultPolicyPath,
			AuditDBPath: defaultAuditDBPath,
			LogDir:      defaultLogDir,
		},
		Files: Files{
			Extensions: append([]string(nil), defaultExtensions...),
		},
		Workers: Workers{
			Count:      defaultWorkerCount,
			QueueDepth: defaultQueueDepth,
		},
		Executor: Executor{
			KeepBackup:   false,
			MinSizeRatio: defaultMinSizeRatio,
		},
		Tools: Tools{
			FFprobe:     "ffprobe",
			FFmpeg:      "ffmpeg",
			Mkvmerge:    "mkvmerge",
			Mkvpropedit: "mkvpropedit",
		},
		Plugins: Plugins{
			Radarr: Plugin{TimeoutSeconds: defaultPluginTimeoutSeconds},
			Sonarr: Plugin{TimeoutSeconds: defaultPluginTimeoutSeconds},
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
