package config

import "time"

// DefaultConfig returns the baseline configuration. File and environment
// values layer on top of it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			MetricsPort:     9090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   2048,
			Timeout:     60 * time.Second,
			MaxRetries:  3,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Mongo: MongoConfig{
			URI:        "mongodb://localhost:27017",
			Database:   "careerflow",
			Collection: "conversations",
			Timeout:    10 * time.Second,
		},
		Checkpoint: CheckpointConfig{
			Backend:    "memory",
			SQLitePath: "careerflow.db",
			KeyPrefix:  "careerflow",
		},
		History: HistoryConfig{
			TokenBudget:       4000,
			TokenizerEncoding: "cl100k_base",
		},
		Log: LogConfig{
			Level:        "info",
			Format:       "json",
			OutputPaths:  []string{"stdout"},
			EnableCaller: true,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "careerflow",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "careerflow",
			SampleRate:  1.0,
		},
		Persistence: PersistenceConfig{
			Backend: "memory",
			TTL:     30 * 24 * time.Hour,
		},
	}
}
