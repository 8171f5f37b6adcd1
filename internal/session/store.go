// Package session persists the bridge's working session: free-text context
// and environment, an append-only task log, and the question/answer history.
package session

import "github.com/soyeahso/slackbridge/internal/domain"

// Store accumulates session state with write-through persistence.
//
// Persistence failures are deliberately non-fatal: a failed read starts an
// empty session, a failed write is logged and swallowed. The bridge offers
// no durability guarantee beyond best effort.
type Store interface {
	// Start resets context and environment and clears tasks and history.
	Start(context, environment string)

	// AddTask appends one task to the task log.
	AddTask(task string)

	// RecordTurn appends one question/answer pair. It is called once per
	// turn, after the answer is known.
	RecordTurn(user, assistant string)

	// ImportHistory bulk-seeds history from channel messages, oldest first,
	// with empty assistant fields.
	ImportHistory(messages []string)

	// Snapshot returns a copy of the full session state.
	Snapshot() domain.Session

	// Recent returns a copy with history reduced to the last k turns.
	Recent(k int) domain.Session
}
