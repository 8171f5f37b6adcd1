package domain

// Turn is a single question/answer pair in the session history.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Session is the accumulated working context for one logical conversation.
// Context and environment are set once per session start; tasks and history
// only ever grow until the next start.
type Session struct {
	Context     string   `json:"context"`
	Environment string   `json:"environment"`
	Tasks       []string `json:"tasks"`
	History     []Turn   `json:"history"`
}

// Recent returns a copy of the session with history reduced to the last k
// entries. The receiver is not modified.
func (s Session) Recent(k int) Session {
	out := s
	out.Tasks = append([]string(nil), s.Tasks...)
	if k < 0 {
		k = 0
	}
	start := len(s.History) - k
	if start < 0 {
		start = 0
	}
	out.History = append([]Turn(nil), s.History[start:]...)
	return out
}
