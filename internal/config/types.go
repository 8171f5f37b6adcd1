package config

// Config is the root configuration for slackbridge.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Slack     SlackConfig     `yaml:"slack,omitempty"`
	Gateway   GatewayConfig   `yaml:"gateway,omitempty"`
	Session   SessionConfig   `yaml:"session,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
}

// AnthropicConfig configures the completion API client.
type AnthropicConfig struct {
	APIKey       string   `yaml:"apiKey,omitempty"`
	Model        string   `yaml:"model,omitempty"`
	MaxTokens    int      `yaml:"maxTokens,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	SystemPrompt string   `yaml:"systemPrompt,omitempty"` // overrides the built-in default
}

// SlackConfig configures the Slack Web API client and delivery behavior.
type SlackConfig struct {
	BotToken       string `yaml:"botToken,omitempty"`
	DefaultChannel string `yaml:"defaultChannel,omitempty"`
	TextLimit      int    `yaml:"textLimit,omitempty"`    // max characters per posted block
	ChunkDelayMs   int    `yaml:"chunkDelayMs,omitempty"` // pause between chunk posts
}

// GatewayConfig controls the bridge HTTP server.
type GatewayConfig struct {
	Port   int    `yaml:"port,omitempty"`
	Bind   string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	Host   string `yaml:"host,omitempty"` // used when bind: custom
	APIKey string `yaml:"apiKey,omitempty"`
}

// SessionConfig defines session persistence behavior.
type SessionConfig struct {
	Store       string `yaml:"store,omitempty"` // "file" | "sqlite"
	RecentTurns int    `yaml:"recentTurns,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File  string `yaml:"file,omitempty"`
}
