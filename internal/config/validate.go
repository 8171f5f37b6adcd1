package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
// Missing credentials are reported here; the serve command treats them
// as fatal, so the process never starts half-configured.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Anthropic.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "anthropic.apiKey",
			Message: "API key is required (or set ANTHROPIC_API_KEY)",
		})
	}
	if cfg.Slack.BotToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "slack.botToken",
			Message: "bot token is required (or set SLACK_BOT_TOKEN)",
		})
	}
	if cfg.Anthropic.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "anthropic.maxTokens",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Anthropic.MaxTokens),
		})
	}
	if t := cfg.Anthropic.Temperature; t != nil && (*t < 0 || *t > 1) {
		issues = append(issues, ValidationIssue{
			Path:    "anthropic.temperature",
			Message: fmt.Sprintf("must be between 0 and 1, got %g", *t),
		})
	}

	if cfg.Slack.TextLimit <= 0 {
		issues = append(issues, ValidationIssue{
			Path:    "slack.textLimit",
			Message: fmt.Sprintf("must be positive, got %d", cfg.Slack.TextLimit),
		})
	}
	if cfg.Slack.ChunkDelayMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "slack.chunkDelayMs",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Slack.ChunkDelayMs),
		})
	}

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}
	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}

	validStores := []string{"file", "sqlite"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}
	if cfg.Session.RecentTurns < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "session.recentTurns",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.Session.RecentTurns),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
