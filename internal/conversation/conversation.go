// Package conversation owns the ordered chat transcript: a bounded,
// append-only message log and its wholesale persistence.
package conversation

import (
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// DefaultLimit is the default bound on retained messages.
const DefaultLimit = 20

// Message is a single transcript entry. Immutable once appended;
// append order is the chronological transcript order.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Log is the in-memory bounded transcript. Trimming always drops from
// the oldest end, never the newest.
type Log struct {
	limit    int
	messages []Message
}

// NewLog creates an empty log bounded to limit messages. A non-positive
// limit falls back to DefaultLimit.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Log{limit: limit}
}

// Append adds msg to the end of the log, dropping oldest entries as
// needed to keep the length within the limit. It returns the post-trim
// transcript.
func (l *Log) Append(msg Message) []Message {
	l.messages = append(l.messages, msg)
	if n := len(l.messages) - l.limit; n > 0 {
		l.messages = append(l.messages[:0:0], l.messages[n:]...)
	}
	return l.Messages()
}

// Messages returns a copy of the transcript in append order.
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of retained messages.
func (l *Log) Len() int {
	return len(l.messages)
}

// Last returns the newest message, if any.
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// reset drops all messages.
func (l *Log) reset() {
	l.messages = nil
}
