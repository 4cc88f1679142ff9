package config

import "time"

// Default returns the baseline configuration: an in-memory checkpoint
// store, the stock question quota, and console logging.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    10,
			RateLimitBurst:  20,
		},
		LLM: LLMConfig{
			Model:   "gpt-4o",
			Timeout: 60 * time.Second,
		},
		Checkpoint: CheckpointConfig{
			Backend: "memory",
			Redis: RedisConfig{
				Addr:      "localhost:6379",
				KeyPrefix: "careerflow:",
			},
			SQLiteDSN: "careerflow.db",
		},
		Pipeline: PipelineConfig{
			QuestionQuota: 12,
			CVTokenBudget: 8000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "careerflow",
			SampleRate:  1.0,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
