package config

const (
	defaultStateDir             = "~/.local/share/triage"
	defaultLogDir               = "~/.local/share/triage/logs"
	defaultAPIBind              = "127.0.0.1:7430"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "meta-llama/llama-3-8b-instruct"
	defaultLLMTimeoutSeconds    = 30
	defaultWorkerCount          = 4
	defaultQueuePollInterval    = 2
	defaultErrorRetryInterval   = 5
	defaultMaxAttempts          = 3
	defaultRetryDelayMillis     = 500
	defaultRetryMaxDelaySeconds = 10
	defaultNotifyRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Workflow: Workflow{
			WorkerCount:          defaultWorkerCount,
			QueuePollInterval:    defaultQueuePollInterval,
			ErrorRetryInterval:   defaultErrorRetryInterval,
			MaxAttempts:          defaultMaxAttempts,
			RetryDelayMillis:     defaultRetryDelayMillis,
			RetryMaxDelaySeconds: defaultRetryMaxDelaySeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Critical:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
