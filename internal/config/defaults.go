package config

const (
	defaultDataDir         = "~/.local/share/magda"
	defaultLogDir          = "~/.local/share/magda/logs"
	defaultWorkers         = 4
	defaultPluginTimeoutMs = 120000
	defaultDebounceSeconds = 2
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultFileMaxSizeMB   = 10
	defaultFileMaxFiles    = 5
	defaultFileMaxAgeDays  = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scan: Scan{
			Workers:         defaultWorkers,
			PluginTimeoutMs: defaultPluginTimeoutMs,
			Formats:         []string{"VST3", "AudioUnit"},
		},
		Watch: Watch{
			DebounceSeconds: defaultDebounceSeconds,
		},
		Logging: Logging{
			Level:          defaultLogLevel,
			Format:         defaultLogFormat,
			FileMaxSizeMB:  defaultFileMaxSizeMB,
			FileMaxFiles:   defaultFileMaxFiles,
			FileMaxAgeDays: defaultFileMaxAgeDays,
		},
	}
}
