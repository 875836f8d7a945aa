package config

const (
	defaultConfigPath         = "~/.config/tubecast/config.toml"
	projectConfigName         = "tubecast.toml"
	defaultStateDir           = "~/.local/share/tubecast"
	defaultClientSecretName   = "client_secret.json"
	defaultTokenName          = "token.json"
	defaultAPIBaseURL         = "https://www.googleapis.com/youtube/v3"
	defaultUploadBaseURL      = "https://www.googleapis.com/upload/youtube/v3"
	defaultAuthTimeoutSeconds = 300
	defaultPrivacy            = "private"
	defaultCategory           = "22"
	defaultChunkSizeMiB       = 8
	defaultMaxRetries         = 10
	defaultBackoffBaseMS      = 1000
	defaultBackoffMaxMS       = 0
	defaultRequestTimeout     = 600
	defaultLLMBaseURL         = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultLLMModel           = "gemini-2.5-flash"
	defaultLLMReferer         = "https://github.com/tubecast/tubecast"
	defaultLLMTitle           = "TubeCast"
	defaultLLMTimeoutSeconds  = 60
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var (
	defaultRetriableStatusCodes = []int{500, 502, 503, 504}
	defaultBatchPatterns        = []string{"*.mp4", "*.mov", "*.mkv", "*.avi", "*.webm", "*.m4v"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		YouTube: YouTube{
			APIBaseURL:         defaultAPIBaseURL,
			UploadBaseURL:      defaultUploadBaseURL,
			AuthTimeoutSeconds: defaultAuthTimeoutSeconds,
		},
		Defaults: Defaults{
			Privacy:  defaultPrivacy,
			Category: defaultCategory,
		},
		Upload: Upload{
			ChunkSizeMiB:          defaultChunkSizeMiB,
			MaxRetries:            defaultMaxRetries,
			BackoffBaseMS:         defaultBackoffBaseMS,
			BackoffMaxMS:          defaultBackoffMaxMS,
			RetriableStatusCodes:  append([]int(nil), defaultRetriableStatusCodes...),
			RequestTimeoutSeconds: defaultRequestTimeout,
		},
		Batch: Batch{
			Patterns: append([]string(nil), defaultBatchPatterns...),
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
