package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/slackbridge/internal/logging"
)

func newTestLogger() *logging.Logger {
	return logging.New(os.Stderr, "silent")
}

// eachStore runs a subtest against both store backends.
func eachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		fn(t, NewFileStore(path, newTestLogger()))
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := Open(":memory:", newTestLogger())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, NewSQLiteStore(db))
	})
}

func TestStoreStartResets(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		s.Start("old ctx", "old env")
		s.AddTask("task 1")
		s.RecordTurn("q", "a")

		s.Start("new ctx", "new env")

		snap := s.Snapshot()
		assert.Equal(t, "new ctx", snap.Context)
		assert.Equal(t, "new env", snap.Environment)
		assert.Empty(t, snap.Tasks)
		assert.Empty(t, snap.History)
	})
}

func TestStoreAppendOrder(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		s.Start("ctx", "env")
		s.AddTask("first")
		s.AddTask("second")
		s.RecordTurn("q1", "a1")
		s.RecordTurn("q2", "a2")

		snap := s.Snapshot()
		assert.Equal(t, []string{"first", "second"}, snap.Tasks)
		require.Len(t, snap.History, 2)
		assert.Equal(t, "q1", snap.History[0].User)
		assert.Equal(t, "a1", snap.History[0].Assistant)
		assert.Equal(t, "q2", snap.History[1].User)
	})
}

func TestStoreRecentView(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		s.Start("ctx", "env")
		s.RecordTurn("q1", "a1")
		s.RecordTurn("q2", "a2")

		recent := s.Recent(1)
		require.Len(t, recent.History, 1)
		assert.Equal(t, "q2", recent.History[0].User)
		assert.Equal(t, "a2", recent.History[0].Assistant)
		assert.Equal(t, "ctx", recent.Context)

		// Underlying history is untouched.
		assert.Len(t, s.Snapshot().History, 2)
	})
}

func TestStoreRecentBounds(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		s.Start("ctx", "env")
		s.RecordTurn("q1", "a1")

		assert.Len(t, s.Recent(10).History, 1)
		assert.Empty(t, s.Recent(0).History)
		assert.Empty(t, s.Recent(-1).History)
	})
}

func TestStoreImportHistory(t *testing.T) {
	eachStore(t, func(t *testing.T, s Store) {
		s.Start("ctx", "env")
		s.ImportHistory([]string{"older message", "newer message"})

		snap := s.Snapshot()
		require.Len(t, snap.History, 2)
		assert.Equal(t, "older message", snap.History[0].User)
		assert.Empty(t, snap.History[0].Assistant)
		assert.Equal(t, "newer message", snap.History[1].User)
	})
}

func TestFileStorePersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	s := NewFileStore(path, newTestLogger())
	s.Start("persisted ctx", "persisted env")
	s.AddTask("remember me")
	s.RecordTurn("q", "a")

	// A brand-new store reads the same state back.
	s2 := NewFileStore(path, newTestLogger())
	snap := s2.Snapshot()
	assert.Equal(t, "persisted ctx", snap.Context)
	assert.Equal(t, []string{"remember me"}, snap.Tasks)
	require.Len(t, snap.History, 1)
	assert.Equal(t, "q", snap.History[0].User)
}

func TestFileStoreWritesThroughOnEveryMutation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path, newTestLogger())

	s.AddTask("only task")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk struct {
		Tasks []string `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, []string{"only task"}, onDisk.Tasks)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	// Corrupt state starts fresh instead of failing.
	s := NewFileStore(path, newTestLogger())
	snap := s.Snapshot()
	assert.Empty(t, snap.Context)
	assert.Empty(t, snap.History)
}

func TestFileStoreSnapshotIsCopy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path, newTestLogger())
	s.AddTask("t1")

	snap := s.Snapshot()
	snap.Tasks[0] = "mutated"
	assert.Equal(t, "t1", s.Snapshot().Tasks[0])
}
