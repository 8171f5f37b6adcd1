package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/soyeahso/slackbridge/internal/domain"
	"github.com/soyeahso/slackbridge/internal/logging"
)

// FileStore keeps the session in memory and mirrors every mutation to a
// single JSON file. The mutex serializes load-mutate-save cycles since
// multiple background pipeline jobs can mutate the session concurrently.
type FileStore struct {
	path string
	log  *logging.Logger

	mu   sync.Mutex
	sess domain.Session
}

// NewFileStore creates a file-backed store and loads any persisted state.
// A missing or unreadable file starts an empty session; it never fails.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	s := &FileStore{path: path, log: log.Sub("session")}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Info().Str("path", s.path).Msg("no saved session, starting fresh")
		} else {
			s.log.Warn().Err(err).Str("path", s.path).Msg("failed to read session, starting fresh")
		}
		return
	}
	if err := json.Unmarshal(data, &s.sess); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("corrupt session file, starting fresh")
		s.sess = domain.Session{}
	}
}

// save writes the full session to disk. Called with the mutex held.
func (s *FileStore) save() {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to create session directory")
		return
	}
	data, err := json.MarshalIndent(s.sess, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal session")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to write session")
	}
}

// Start resets the session to a new context and environment.
func (s *FileStore) Start(context, environment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = domain.Session{Context: context, Environment: environment}
	s.save()
}

// AddTask appends a task and persists.
func (s *FileStore) AddTask(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Tasks = append(s.sess.Tasks, task)
	s.save()
}

// RecordTurn appends one completed question/answer pair and persists.
func (s *FileStore) RecordTurn(user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.History = append(s.sess.History, domain.Turn{User: user, Assistant: assistant})
	s.save()
}

// ImportHistory seeds history from channel messages, oldest first.
func (s *FileStore) ImportHistory(messages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range messages {
		s.sess.History = append(s.sess.History, domain.Turn{User: m})
	}
	s.save()
}

// Snapshot returns a copy of the current session.
func (s *FileStore) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Recent(len(s.sess.History))
}

// Recent returns a copy with history reduced to the last k turns.
func (s *FileStore) Recent(k int) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Recent(k)
}
