package config

const (
	defaultDataDir            = "~/.local/share/grist"
	defaultLogDir             = "~/.local/share/grist/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultEligibilitySeconds = 5
	defaultRetentionDays      = 30
	defaultMaxQueries         = 200
	defaultMaxQueryRows       = 50000
	defaultMaxMutationRows    = 10000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Batch: Batch{
			EligibilityWindowSeconds: defaultEligibilitySeconds,
			RetentionDays:            defaultRetentionDays,
		},
		Quota: Quota{
			MaxQueries:      defaultMaxQueries,
			MaxQueryRows:    defaultMaxQueryRows,
			MaxMutationRows: defaultMaxMutationRows,
		},
	}
}
