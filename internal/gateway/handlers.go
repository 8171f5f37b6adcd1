package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/slackbridge/internal/bridge"
	"github.com/soyeahso/slackbridge/internal/domain"
	"github.com/soyeahso/slackbridge/internal/slack"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

type askRequest struct {
	Question       string   `json:"question"`
	Channel        string   `json:"channel,omitempty"`
	ThreadTS       string   `json:"thread_ts,omitempty"`
	ContextChannel string   `json:"context_channel,omitempty"`
	ContextLimit   int      `json:"context_limit,omitempty"`
	Model          string   `json:"model,omitempty"`
	System         string   `json:"system,omitempty"`
	MaxTokens      int      `json:"max_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
}

// handleAsk validates the request and hands it to the background pipeline.
// The HTTP response never waits for the answer.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	channel := req.Channel
	if channel == "" {
		channel = s.cfg.Slack.DefaultChannel
	}
	if channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required and no default is configured")
		return
	}

	id, err := s.pipeline.Submit(bridge.Job{
		Question:       req.Question,
		Channel:        channel,
		ThreadTS:       req.ThreadTS,
		ContextChannel: req.ContextChannel,
		ContextLimit:   req.ContextLimit,
		Model:          req.Model,
		System:         req.System,
		MaxTokens:      req.MaxTokens,
		Temperature:    req.Temperature,
	})
	if err != nil {
		if errors.Is(err, bridge.ErrQueueFull) {
			writeError(w, http.StatusServiceUnavailable, "too many queued requests")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "processing",
		"channel": channel,
		"job_id":  id,
	})
}

func (s *Server) handleSessionStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Context     string `json:"context"`
		Environment string `json:"environment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.store.Start(req.Context, req.Environment)
	writeJSON(w, http.StatusOK, map[string]string{"status": "session started"})
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task string `json:"task"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Task) == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return
	}
	s.store.AddTask(req.Task)
	writeJSON(w, http.StatusOK, map[string]string{"status": "task added"})
}

// handleSession returns the session snapshot, optionally reduced to the
// last k history turns via ?k=.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var snap domain.Session
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "k must be an integer")
			return
		}
		snap = s.store.Recent(k)
	} else {
		snap = s.store.Snapshot()
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSessionImport seeds session history from channel messages, either
// supplied directly or fetched from a channel.
func (s *Server) handleSessionImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []string `json:"messages,omitempty"`
		Channel  string   `json:"channel,omitempty"`
		Limit    int      `json:"limit,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	messages := req.Messages
	if len(messages) == 0 {
		if req.Channel == "" {
			writeError(w, http.StatusBadRequest, "messages or channel is required")
			return
		}
		history, err := s.slack.History(r.Context(), req.Channel, req.Limit, "", "")
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		for _, m := range history {
			messages = append(messages, fmt.Sprintf("%s: %s", m.Author, m.Text))
		}
	}
	if len(messages) == 0 {
		writeError(w, http.StatusBadRequest, "no messages to import")
		return
	}

	s.store.ImportHistory(messages)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "imported",
		"imported": len(messages),
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.slack.ListChannels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": channels,
		"count":    len(channels),
	})
}

// handleChannelsSearch filters channels by case-insensitive name substring.
// Queries shorter than two characters return an empty result.
func (s *Server) handleChannelsSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))
	if len(query) < 2 {
		writeJSON(w, http.StatusOK, map[string]any{
			"channels": []domain.Channel{},
			"count":    0,
		})
		return
	}

	channels, err := s.slack.ListChannels(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	matches := make([]domain.Channel, 0)
	for _, ch := range channels {
		if strings.Contains(strings.ToLower(ch.Name), query) {
			matches = append(matches, ch)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"channels": matches,
		"count":    len(matches),
	})
}

func (s *Server) handleChannelMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	messages, err := s.slack.History(r.Context(), id, limit, r.URL.Query().Get("oldest"), r.URL.Query().Get("latest"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

// handleMessage posts a plain message directly, bypassing the pipeline.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Channel  string `json:"channel,omitempty"`
		Text     string `json:"text"`
		ThreadTS string `json:"thread_ts,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	channel := req.Channel
	if channel == "" {
		channel = s.cfg.Slack.DefaultChannel
	}
	if channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required and no default is configured")
		return
	}

	ts, err := s.slack.PostMessage(r.Context(), slack.Message{
		Channel:  channel,
		Text:     req.Text,
		ThreadTS: req.ThreadTS,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "sent",
		"ts":     ts,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}
