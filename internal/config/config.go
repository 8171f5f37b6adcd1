package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Anthropic: AnthropicConfig{
			Model:     "claude-3-7-sonnet-20250219",
			MaxTokens: 4096,
		},
		Slack: SlackConfig{
			TextLimit:    2900,
			ChunkDelayMs: 500,
		},
		Gateway: GatewayConfig{
			Port: 18990,
			Bind: "loopback",
		},
		Session: SessionConfig{
			Store:       "file",
			RecentTurns: 3,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
