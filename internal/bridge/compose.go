// Package bridge holds the core of the server: prompt composition, the
// delivery engine that relays answers into chat under a per-message size
// limit, and the background pipeline that ties question, completion, and
// delivery together.
package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/slackbridge/internal/domain"
)

// ComposePrompt assembles the single user-turn prompt sent to the
// completion API. It is a plain concatenation of three labeled sections,
// always in the same order: the serialized session state, any fetched
// channel context, and finally the question itself.
func ComposePrompt(question string, snap domain.Session, contextMsgs []string) string {
	var b strings.Builder

	b.WriteString("## Current session\n")
	state, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		state = []byte("{}")
	}
	b.Write(state)
	b.WriteString("\n\n## Channel context\n")
	if len(contextMsgs) == 0 {
		b.WriteString("(none)\n")
	} else {
		for i, m := range contextMsgs {
			fmt.Fprintf(&b, "%d. %s\n", i+1, m)
		}
	}
	b.WriteString("\n## Question\n")
	b.WriteString(question)

	return b.String()
}
