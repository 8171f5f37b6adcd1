package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/slackbridge/internal/config"
)

// serverURL resolves the address of a running bridge server from flags,
// environment, or the configured port.
func serverURL(flag string) string {
	if flag != "" {
		return strings.TrimRight(flag, "/")
	}
	if v := os.Getenv("SLACKBRIDGE_SERVER"); v != "" {
		return strings.TrimRight(v, "/")
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		cfg = config.Defaults()
	}
	return fmt.Sprintf("http://127.0.0.1:%d", cfg.Gateway.Port)
}

// serverKey resolves the API key of a running bridge server.
func serverKey(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("SLACKBRIDGE_API_KEY"); v != "" {
		return v
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return ""
	}
	return cfg.Gateway.APIKey
}

// callServer performs one JSON request against a running server and returns
// the decoded response body.
func callServer(method, base, key, path string, body any) (map[string]any, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequest(method, base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", key)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("is the server running? %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unexpected response: %s", raw)
	}
	if resp.StatusCode >= 400 {
		if msg, ok := out["error"].(string); ok {
			return nil, fmt.Errorf("server: %s", msg)
		}
		return nil, fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}
	return out, nil
}

func newAskCmd() *cobra.Command {
	var (
		server         string
		apiKey         string
		channel        string
		threadTS       string
		contextChannel string
		contextLimit   int
		model          string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Submit a question to a running bridge server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			body := map[string]any{"question": question}
			if channel != "" {
				body["channel"] = channel
			}
			if threadTS != "" {
				body["thread_ts"] = threadTS
			}
			if contextChannel != "" {
				body["context_channel"] = contextChannel
				if contextLimit > 0 {
					body["context_limit"] = contextLimit
				}
			}
			if model != "" {
				body["model"] = model
			}

			out, err := callServer(http.MethodPost, serverURL(server), serverKey(apiKey), "/ask", body)
			if err != nil {
				return err
			}
			fmt.Printf("accepted: job %v, answer will appear in %v\n", out["job_id"], out["channel"])
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server address (default http://127.0.0.1:<port>)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "server API key")
	cmd.Flags().StringVar(&channel, "channel", "", "destination channel (default from server config)")
	cmd.Flags().StringVar(&threadTS, "thread", "", "reply in an existing thread")
	cmd.Flags().StringVar(&contextChannel, "context-channel", "", "feed recent messages from this channel into the prompt")
	cmd.Flags().IntVar(&contextLimit, "context-limit", 0, "how many context messages to fetch")
	cmd.Flags().StringVar(&model, "model", "", "override the completion model")

	return cmd
}

func newChannelsCmd() *cobra.Command {
	var (
		server string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Browse Slack channels through a running server",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "server address (default http://127.0.0.1:<port>)")
	cmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "server API key")

	list := &cobra.Command{
		Use:   "list",
		Short: "List visible channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := callServer(http.MethodGet, serverURL(server), serverKey(apiKey), "/channels", nil)
			if err != nil {
				return err
			}
			printChannels(out)
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search channels by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/channels/search?query=" + url.QueryEscape(args[0])
			out, err := callServer(http.MethodGet, serverURL(server), serverKey(apiKey), path, nil)
			if err != nil {
				return err
			}
			printChannels(out)
			return nil
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(search)
	return cmd
}

func printChannels(out map[string]any) {
	channels, _ := out["channels"].([]any)
	for _, c := range channels {
		ch, ok := c.(map[string]any)
		if !ok {
			continue
		}
		marker := " "
		if private, _ := ch["is_private"].(bool); private {
			marker = "*"
		}
		fmt.Printf("%s #%-24v %v members  (%v)\n", marker, ch["name"], ch["member_count"], ch["id"])
	}
	fmt.Printf("%v channel(s)\n", out["count"])
}
