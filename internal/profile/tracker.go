package profile

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"glowchat/internal/conversation"
)

// Tracker maintains the persisted UserContext across turns. It shares
// the conversation store's backend, under its own slot key.
type Tracker struct {
	backend conversation.Backend
	key     string
	limit   int
	ctx     UserContext
	log     *zap.Logger
}

// NewTracker creates a tracker persisting under key, with past
// questions bounded to limit.
func NewTracker(backend conversation.Backend, key string, limit int, log *zap.Logger) *Tracker {
	if limit <= 0 {
		limit = conversation.DefaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{backend: backend, key: key, limit: limit, log: log}
}

// Load reads the persisted context. Missing or corrupt data degrades to
// an empty context, logged and non-fatal.
func (t *Tracker) Load() {
	t.ctx = UserContext{}

	data, err := t.backend.Get(t.key)
	if err != nil {
		t.log.Warn("user context load failed, starting empty", zap.String("key", t.key), zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}
	var stored UserContext
	if err := json.Unmarshal(data, &stored); err != nil {
		t.log.Warn("stored user context is not valid JSON, starting empty", zap.String("key", t.key), zap.Error(err))
		return
	}
	if n := len(stored.PastQuestions) - t.limit; n > 0 {
		stored.PastQuestions = stored.PastQuestions[n:]
	}
	t.ctx = stored
}

// Save persists the context wholesale. Failure is logged, never fatal.
func (t *Tracker) Save() {
	data, err := json.Marshal(t.ctx)
	if err != nil {
		t.log.Warn("user context serialize failed", zap.String("key", t.key), zap.Error(err))
		return
	}
	if err := t.backend.Put(t.key, data); err != nil {
		t.log.Warn("user context persist failed", zap.String("key", t.key), zap.Error(err))
	}
}

// Clear empties the context and erases the persisted slot.
func (t *Tracker) Clear() {
	t.ctx = UserContext{}
	if err := t.backend.Delete(t.key); err != nil {
		t.log.Warn("user context clear failed", zap.String("key", t.key), zap.Error(err))
	}
}

// Observe scans text for a name introduction and updates the tracked
// name when it differs from the current value. It returns the extracted
// name, if any.
func (t *Tracker) Observe(text string) (string, bool) {
	name, ok := ExtractName(text)
	if !ok {
		return "", false
	}
	if name != t.ctx.Name {
		t.ctx.Name = name
	}
	return name, true
}

// RecordQuestion appends a past question, trimmed to the limit.
func (t *Tracker) RecordQuestion(text string, at time.Time) {
	t.ctx.PastQuestions = append(t.ctx.PastQuestions, Question{Question: text, CreatedAt: at})
	if n := len(t.ctx.PastQuestions) - t.limit; n > 0 {
		t.ctx.PastQuestions = append(t.ctx.PastQuestions[:0:0], t.ctx.PastQuestions[n:]...)
	}
}

// Context returns a copy of the current user context.
func (t *Tracker) Context() UserContext {
	out := t.ctx
	out.PastQuestions = append([]Question(nil), t.ctx.PastQuestions...)
	return out
}
