package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/soyeahso/slackbridge/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and bootstrap configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			cfg.Anthropic.APIKey = maskSecret(cfg.Anthropic.APIKey)
			cfg.Slack.BotToken = maskSecret(cfg.Slack.BotToken)
			cfg.Gateway.APIKey = maskSecret(cfg.Gateway.APIKey)

			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(paths.Config)
		},
	}
}

const starterConfig = `# slackbridge configuration
anthropic:
  apiKey: ${ANTHROPIC_API_KEY}
  model: claude-3-7-sonnet-20250219

slack:
  botToken: ${SLACK_BOT_TOKEN}
  defaultChannel: "#general"

gateway:
  port: 18990
  bind: loopback

session:
  store: file
  recentTurns: 3

logging:
  level: info
`

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(paths.Config); err == nil {
				return fmt.Errorf("config already exists at %s", paths.Config)
			}
			if err := paths.EnsureDirs(); err != nil {
				return err
			}
			if err := os.WriteFile(paths.Config, []byte(starterConfig), 0o600); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", paths.Config)
			return nil
		},
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
