package slack

// Block is one element of a Slack Block Kit message. The delivery engine
// composes messages from these and stays decoupled from the wire format;
// MarshalBlocks produces the shape the Web API expects.
type Block interface {
	wire() map[string]any
}

// SectionBlock is a markdown text section.
type SectionBlock struct {
	Text string
}

func (b SectionBlock) wire() map[string]any {
	return map[string]any{
		"type": "section",
		"text": map[string]any{"type": "mrkdwn", "text": b.Text},
	}
}

// DividerBlock is a horizontal rule.
type DividerBlock struct{}

func (DividerBlock) wire() map[string]any {
	return map[string]any{"type": "divider"}
}

// ContextBlock is a line of small muted text elements, used for metadata
// footers like the model name and timestamp.
type ContextBlock struct {
	Elements []string
}

func (b ContextBlock) wire() map[string]any {
	elements := make([]map[string]any, len(b.Elements))
	for i, e := range b.Elements {
		elements[i] = map[string]any{"type": "mrkdwn", "text": e}
	}
	return map[string]any{"type": "context", "elements": elements}
}

// MarshalBlocks serializes blocks to the Slack wire representation.
func MarshalBlocks(blocks []Block) []map[string]any {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]map[string]any, len(blocks))
	for i, b := range blocks {
		out[i] = b.wire()
	}
	return out
}
