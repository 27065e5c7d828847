package config

import "time"

// DefaultConfig returns the configuration used when no file sets a value.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             ":8080",
			AllowedOrigins:   []string{"http://localhost:3000"},
			SnapshotCacheTTL: Duration(30 * time.Second),
			ShutdownTimeout:  Duration(10 * time.Second),
		},
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
		Auth: AuthConfig{
			TokenTTL: Duration(24 * time.Hour),
		},
		MarketData: MarketDataConfig{
			Timeout:    Duration(30 * time.Second),
			RetryCount: 3,
		},
		Orchestrator: OrchestratorConfig{
			DefaultModel:     "gpt-4o-mini",
			MaxSteps:         10,
			RequestTimeout:   Duration(60 * time.Second),
			FreeMessageLimit: 3,
			PlannerMaxTasks:  6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
