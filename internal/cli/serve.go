package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/slackbridge/internal/bridge"
	"github.com/soyeahso/slackbridge/internal/config"
	"github.com/soyeahso/slackbridge/internal/gateway"
	"github.com/soyeahso/slackbridge/internal/llm"
	"github.com/soyeahso/slackbridge/internal/logging"
	"github.com/soyeahso/slackbridge/internal/session"
	"github.com/soyeahso/slackbridge/internal/slack"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			logPath := cfg.Logging.File
			if logPath == "" {
				logPath = paths.LogFile()
			}
			fileLog, err := logging.NewWithFile(logPath, cfg.Logging.Level)
			if err == nil {
				log = fileLog
			}

			var store session.Store
			if cfg.Session.Store == "sqlite" {
				db, err := session.Open(paths.SessionDB(), log)
				if err != nil {
					return fmt.Errorf("opening session database: %w", err)
				}
				defer db.Close()
				store = session.NewSQLiteStore(db)
				log.Info().Str("path", paths.SessionDB()).Msg("using SQLite session store")
			} else {
				store = session.NewFileStore(paths.SessionFile(), log)
				log.Info().Str("path", paths.SessionFile()).Msg("using file session store")
			}

			llmClient, err := llm.NewAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
			if err != nil {
				return fmt.Errorf("creating completion client: %w", err)
			}
			slackClient := slack.NewHTTPClient(cfg.Slack.BotToken, log)

			deliverer := bridge.NewDeliverer(slackClient, log,
				bridge.WithTextLimit(cfg.Slack.TextLimit),
				bridge.WithChunkDelay(time.Duration(cfg.Slack.ChunkDelayMs)*time.Millisecond),
			)
			pipeline := bridge.NewPipeline(llmClient, slackClient, store, deliverer, log,
				bridge.WithRecentTurns(cfg.Session.RecentTurns),
			)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go pipeline.Run(ctx)

			srv := gateway.New(cfg, log, pipeline, store, slackClient)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (loopback, lan, custom)")

	return cmd
}
