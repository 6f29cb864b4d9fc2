package config

const (
	defaultConfigPath             = "~/.config/storyline/config.toml"
	defaultDataDir                = "~/.local/share/storyline"
	defaultLogDir                 = "~/.local/share/storyline/logs"
	defaultAPIBind                = "127.0.0.1:7650"
	defaultBusyTimeoutMS          = 5000
	defaultBusyRetryAttempts      = 5
	defaultMaxOpenConns           = 4
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultTelemetryExportSeconds = 15
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Store: Store{
			BusyTimeoutMS:     defaultBusyTimeoutMS,
			BusyRetryAttempts: defaultBusyRetryAttempts,
			MaxOpenConns:      defaultMaxOpenConns,
		},
		Pipeline: Pipeline{
			RequireContributor:        true,
			RequireScriptWriter:       true,
			RequireDirector:           true,
			RequireProductionComplete: true,
			RequireSocialApproval:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Telemetry: Telemetry{
			ExportIntervalSeconds: defaultTelemetryExportSeconds,
		},
	}
}
