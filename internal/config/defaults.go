package config

const (
	defaultDataDir          = "~/.local/share/timetable"
	defaultLogDir           = "~/.local/share/timetable/logs"
	defaultAPIBind          = "127.0.0.1:7491"
	defaultPrimaryBaseURL   = "https://api.example-university.edu/v1"
	defaultFallbackBaseURL  = "https://www.example-university.edu/schedule"
	defaultConnectTimeout   = 5
	defaultReadTimeout      = 10
	defaultRequestTimeout   = 20
	defaultUserAgent        = "timetable/dev"
	defaultPassTimeout      = 300
	defaultNtfyTimeout      = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultCacheDBName      = "cache.db"
	defaultDaemonLockName   = "timetabled.lock"
	defaultDaemonLogName    = "timetabled.log"
	primaryAPIKeyEnv        = "TIMETABLE_PRIMARY_API_KEY"
	primaryBaseURLEnv       = "TIMETABLE_PRIMARY_URL"
	fallbackBaseURLEnv      = "TIMETABLE_FALLBACK_URL"
	timezoneEnv             = "TIMETABLE_TZ"
	apiTokenEnv             = "TIMETABLE_API_TOKEN"
	ntfyTopicEnv            = "TIMETABLE_NTFY_TOPIC"
	defaultConfigPathString = "~/.config/timetable/config.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Primary: Primary{
			Enabled: true,
			BaseURL: defaultPrimaryBaseURL,
		},
		Fallback: Fallback{
			Enabled: true,
			BaseURL: defaultFallbackBaseURL,
		},
		HTTP: HTTP{
			ConnectTimeout: defaultConnectTimeout,
			ReadTimeout:    defaultReadTimeout,
			RequestTimeout: defaultRequestTimeout,
			UserAgent:      defaultUserAgent,
		},
		Sync: Sync{
			PassTimeout: defaultPassTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
