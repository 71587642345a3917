package conversation

import (
	"encoding/json"

	"go.uber.org/zap"
)

// Backend is a string-keyed slot store. Values are read and written
// wholesale; Get returns (nil, nil) when the key is absent.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// Store owns the transcript and its persistence under a fixed key.
// Mutations go through Append/Clear only; callers never touch the
// underlying log directly.
type Store struct {
	backend Backend
	key     string
	conv    *Log
	log     *zap.Logger
}

// NewStore creates a store bounded to limit messages, persisting under
// key in backend.
func NewStore(backend Backend, key string, limit int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		key:     key,
		conv:    NewLog(limit),
		log:     log,
	}
}

// Load reads the persisted transcript. Missing, empty, or structurally
// invalid data resets to an empty conversation; the condition is logged
// and never fatal. A loaded transcript is always a prefix-trimmed valid
// conversation: any malformed entry discards the stored state entirely.
func (s *Store) Load() {
	s.conv.reset()

	data, err := s.backend.Get(s.key)
	if err != nil {
		s.log.Warn("conversation load failed, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	if len(data) == 0 {
		return
	}

	var stored []Message
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn("stored conversation is not valid JSON, starting empty", zap.String("key", s.key), zap.Error(err))
		return
	}
	for _, m := range stored {
		if !m.Role.Valid() {
			s.log.Warn("stored conversation has malformed entry, starting empty",
				zap.String("key", s.key), zap.String("role", string(m.Role)))
			return
		}
	}
	for _, m := range stored {
		s.conv.Append(m)
	}
}

// Append adds a message to the transcript and returns the post-trim
// view. It does not persist; callers decide when to Save.
func (s *Store) Append(msg Message) []Message {
	return s.conv.Append(msg)
}

// Save serializes the retained messages to the backend. Persistence
// failure is logged and does not fail the turn; the in-memory
// transcript remains authoritative for the session.
func (s *Store) Save() {
	data, err := json.Marshal(s.conv.messages)
	if err != nil {
		s.log.Warn("conversation serialize failed", zap.String("key", s.key), zap.Error(err))
		return
	}
	if err := s.backend.Put(s.key, data); err != nil {
		s.log.Warn("conversation persist failed", zap.String("key", s.key), zap.Error(err))
	}
}

// Clear empties the conversation and erases the persisted state.
func (s *Store) Clear() {
	s.conv.reset()
	if err := s.backend.Delete(s.key); err != nil {
		s.log.Warn("conversation clear failed", zap.String("key", s.key), zap.Error(err))
	}
}

// Messages returns a copy of the current transcript.
func (s *Store) Messages() []Message {
	return s.conv.Messages()
}

// Len returns the number of retained messages.
func (s *Store) Len() int {
	return s.conv.Len()
}

// Last returns the newest message, if any.
func (s *Store) Last() (Message, bool) {
	return s.conv.Last()
}
