package config

const (
	defaultConfigPath            = "~/.config/avatarstudio/config.toml"
	defaultDataDir               = "~/.local/share/avatarstudio"
	defaultLogDir                = "~/.local/share/avatarstudio/logs"
	defaultDownloadDir           = "~/Videos/avatarstudio"
	defaultServiceBaseURL        = "http://localhost:8000"
	defaultAPIPrefix             = "/api/v1"
	defaultRequestTimeoutSeconds = 30
	defaultHealthTimeoutSeconds  = 5
	defaultStyle                 = "testimonial"
	defaultTier                  = "standard"
	defaultPollIntervalMS        = 3000
	defaultMaxUploadBytes        = 10 * 1024 * 1024
	defaultNotifyTimeout         = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var validTiers = map[string]struct{}{
	"free":     {},
	"standard": {},
	"premium":  {},
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
			DownloadDir: defaultDownloadDir,
		},
		Service: Service{
			BaseURL:               defaultServiceBaseURL,
			APIPrefix:             defaultAPIPrefix,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			HealthTimeoutSeconds:  defaultHealthTimeoutSeconds,
			Style:                 defaultStyle,
			Tier:                  defaultTier,
		},
		Polling: Polling{
			IntervalMS: defaultPollIntervalMS,
		},
		Avatar: Avatar{
			MaxUploadBytes: defaultMaxUploadBytes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Completed:      true,
			Failed:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
