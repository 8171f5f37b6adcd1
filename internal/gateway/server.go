// Package gateway exposes the bridge over HTTP: ask submission, session
// management, channel browsing, and a websocket stream of pipeline events.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/slackbridge/internal/bridge"
	"github.com/soyeahso/slackbridge/internal/config"
	"github.com/soyeahso/slackbridge/internal/logging"
	"github.com/soyeahso/slackbridge/internal/session"
	"github.com/soyeahso/slackbridge/internal/slack"
)

// Server is the bridge HTTP + WebSocket server.
type Server struct {
	cfg      config.Config
	log      *logging.Logger
	pipeline *bridge.Pipeline
	store    session.Store
	slack    slack.Client
	apiKey   string

	startedAt  time.Time
	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// New creates a gateway server around the injected collaborators.
func New(cfg config.Config, log *logging.Logger, p *bridge.Pipeline, store session.Store, slackClient slack.Client) *Server {
	gwLog := log.Sub("gateway")
	return &Server{
		cfg:      cfg,
		log:      gwLog,
		pipeline: p,
		store:    store,
		slack:    slackClient,
		apiKey:   ResolveAPIKey(cfg.Gateway.APIKey, gwLog),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The loopback guard already restricts who can connect.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// APIKey returns the key the server authenticates requests with.
func (s *Server) APIKey() string { return s.apiKey }

// Handler builds the full route + middleware stack. Split out from Start so
// tests can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return withMiddleware(mux, s.apiKey, s.log)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("POST /session/start", s.handleSessionStart)
	mux.HandleFunc("POST /session/import", s.handleSessionImport)
	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("POST /task", s.handleTask)
	mux.HandleFunc("GET /channels", s.handleChannels)
	mux.HandleFunc("GET /channels/search", s.handleChannelsSearch)
	mux.HandleFunc("GET /channels/{id}/messages", s.handleChannelMessages)
	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.GatewayConfig) string {
	switch cfg.Bind {
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.Host
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins listening. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Gateway)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()
	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Gateway.Bind).
		Msg("gateway server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down gateway server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
