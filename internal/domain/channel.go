package domain

// Channel describes a Slack conversation the bot can see.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsPrivate   bool   `json:"is_private"`
	MemberCount int    `json:"member_count"`
}

// ChannelMessage is one message fetched from a channel's history,
// oldest first, with the author resolved to a display name.
type ChannelMessage struct {
	Author         string `json:"author"`
	Text           string `json:"text"`
	Timestamp      string `json:"timestamp"` // Slack ts, e.g. "1714549200.000100"
	When           string `json:"when"`      // human-readable local time
	HasAttachments bool   `json:"has_attachments"`
}
