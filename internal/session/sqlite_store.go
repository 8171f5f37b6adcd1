package session

import (
	"github.com/soyeahso/slackbridge/internal/domain"
)

// SQLiteStore implements Store backed by SQLite. Each mutation is one
// statement, so write-through comes for free; SQLite serializes writers.
type SQLiteStore struct {
	db *DB
}

// NewSQLiteStore creates a session store using the given database.
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Start resets the session to a new context and environment.
func (s *SQLiteStore) Start(context, environment string) {
	tx, err := s.db.sql.Begin()
	if err != nil {
		s.db.log.Error().Err(err).Msg("failed to begin session reset")
		return
	}
	for _, stmt := range []string{"DELETE FROM tasks", "DELETE FROM turns"} {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			s.db.log.Error().Err(err).Msg("failed to clear session")
			return
		}
	}
	if _, err := tx.Exec(
		`UPDATE session SET context = ?, environment = ?, started_at = datetime('now') WHERE id = 1`,
		context, environment,
	); err != nil {
		tx.Rollback()
		s.db.log.Error().Err(err).Msg("failed to reset session")
		return
	}
	if err := tx.Commit(); err != nil {
		s.db.log.Error().Err(err).Msg("failed to commit session reset")
	}
}

// AddTask appends a task to the task log.
func (s *SQLiteStore) AddTask(task string) {
	if _, err := s.db.sql.Exec(`INSERT INTO tasks (task) VALUES (?)`, task); err != nil {
		s.db.log.Error().Err(err).Msg("failed to add task")
	}
}

// RecordTurn appends one completed question/answer pair.
func (s *SQLiteStore) RecordTurn(user, assistant string) {
	if _, err := s.db.sql.Exec(
		`INSERT INTO turns (user, assistant) VALUES (?, ?)`, user, assistant,
	); err != nil {
		s.db.log.Error().Err(err).Msg("failed to record turn")
	}
}

// ImportHistory seeds history from channel messages, oldest first.
func (s *SQLiteStore) ImportHistory(messages []string) {
	for _, m := range messages {
		s.RecordTurn(m, "")
	}
}

// Snapshot returns a copy of the full session state.
func (s *SQLiteStore) Snapshot() domain.Session {
	return s.read(-1)
}

// Recent returns a copy with history reduced to the last k turns.
func (s *SQLiteStore) Recent(k int) domain.Session {
	if k < 0 {
		k = 0
	}
	return s.read(k)
}

// read assembles a Session; k < 0 means full history.
func (s *SQLiteStore) read(k int) domain.Session {
	var sess domain.Session

	err := s.db.sql.QueryRow(
		`SELECT context, environment FROM session WHERE id = 1`,
	).Scan(&sess.Context, &sess.Environment)
	if err != nil {
		s.db.log.Error().Err(err).Msg("failed to read session row")
		return sess
	}

	rows, err := s.db.sql.Query(`SELECT task FROM tasks ORDER BY id`)
	if err == nil {
		for rows.Next() {
			var task string
			if err := rows.Scan(&task); err == nil {
				sess.Tasks = append(sess.Tasks, task)
			}
		}
		rows.Close()
	}

	if k == 0 {
		return sess
	}

	query := `SELECT user, assistant FROM turns ORDER BY id`
	args := []any{}
	if k > 0 {
		// Last k turns in chronological order.
		query = `SELECT user, assistant FROM (
			SELECT id, user, assistant FROM turns ORDER BY id DESC LIMIT ?
		) ORDER BY id`
		args = append(args, k)
	}

	turnRows, err := s.db.sql.Query(query, args...)
	if err != nil {
		s.db.log.Error().Err(err).Msg("failed to read turns")
		return sess
	}
	defer turnRows.Close()

	for turnRows.Next() {
		var t domain.Turn
		if err := turnRows.Scan(&t.User, &t.Assistant); err == nil {
			sess.History = append(sess.History, t)
		}
	}
	return sess
}
