// Package session orchestrates one user-submitted turn: append the
// user message, persist, call the gateway, extract the embedded
// payload, append the reply, persist, surface errors.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"glowchat/internal/catalog"
	"glowchat/internal/conversation"
	"glowchat/internal/extract"
	"glowchat/internal/gateway"
	"glowchat/internal/profile"
)

// State is the per-turn state machine position:
// Idle → Submitted → AwaitingGateway → {Extracted | Failed} → Idle.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StateAwaitingGateway
	StateExtracted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitted:
		return "submitted"
	case StateAwaitingGateway:
		return "awaiting_gateway"
	case StateExtracted:
		return "extracted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrEmptyInput rejects empty or whitespace-only submissions. No state
// change, no side effect.
var ErrEmptyInput = errors.New("empty input")

// ErrTurnInFlight rejects a submission while a prior turn is awaiting
// the gateway. Submissions are rejected, not queued.
var ErrTurnInFlight = errors.New("a turn is already in flight")

// Gateway is the round-trip dependency. Satisfied by *gateway.Client.
type Gateway interface {
	Send(ctx context.Context, msgs []conversation.Message, uc *profile.UserContext) (*gateway.Reply, error)
}

// Options tunes turn construction.
type Options struct {
	// SystemPrompt, when set, is prepended to the outbound transcript
	// as a system directive. It is never part of the durable log.
	SystemPrompt string
	// IncludeContext attaches the derived user context to the request.
	IncludeContext bool
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// TurnResult is a completed turn: the raw reply and the enriched
// recommendations recovered from it, in model-emitted order.
type TurnResult struct {
	Reply           string
	Recommendations []catalog.Recommendation
}

// Session composes the store, tracker, gateway, extractor, and catalog
// into the per-conversation turn engine. Exactly one turn may be in
// flight at a time; the guard rejects rather than queues.
type Session struct {
	id      string
	store   *conversation.Store
	tracker *profile.Tracker
	gw      Gateway
	cat     *catalog.Catalog
	opts    Options
	log     *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a session over an already-loaded store and tracker.
func New(store *conversation.Store, tracker *profile.Tracker, gw Gateway, cat *catalog.Catalog, opts Options, log *zap.Logger) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if cat == nil {
		cat = catalog.New(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		id:      uuid.NewString(),
		store:   store,
		tracker: tracker,
		gw:      gw,
		cat:     cat,
		opts:    opts,
		log:     log,
	}
}

// ID returns the session identity.
func (s *Session) ID() string { return s.id }

// State returns the current turn state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// begin moves Idle → Submitted, rejecting when a turn is in flight.
func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitted || s.state == StateAwaitingGateway {
		return ErrTurnInFlight
	}
	s.state = StateSubmitted
	return nil
}

// Submit runs one full turn. On gateway failure the user's own message
// stays committed, no assistant message is appended, and the typed
// error is returned for display; resubmitting afterwards is a brand-new
// turn. Persistence failures never fail the turn.
func (s *Session) Submit(ctx context.Context, text string) (*TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.setState(StateIdle)

	now := s.opts.Now()
	s.store.Append(conversation.Message{Role: conversation.RoleUser, Content: text, CreatedAt: now})
	if name, ok := s.tracker.Observe(text); ok {
		s.log.Debug("user name observed", zap.String("session", s.id), zap.String("name", name))
	}
	s.tracker.RecordQuestion(text, now)
	s.store.Save()
	s.tracker.Save()

	var uc *profile.UserContext
	if s.opts.IncludeContext {
		c := s.tracker.Context()
		uc = &c
	}

	s.setState(StateAwaitingGateway)
	reply, err := s.gw.Send(ctx, s.outbound(), uc)
	if err != nil {
		s.setState(StateFailed)
		s.log.Warn("turn failed at gateway", zap.String("session", s.id), zap.Error(err))
		return nil, err
	}

	// Absence of a payload is a normal, silent outcome.
	recs, _ := extract.FromReply(reply.Content, reply.Parsed)
	enriched := s.cat.Enrich(recs)

	// The durable transcript carries the raw reply text; the extracted
	// structure is ephemeral presentation data.
	s.store.Append(conversation.Message{Role: conversation.RoleAssistant, Content: reply.Content, CreatedAt: s.opts.Now()})
	s.store.Save()
	s.setState(StateExtracted)

	s.log.Debug("turn completed",
		zap.String("session", s.id),
		zap.Int("history", s.store.Len()),
		zap.Int("recommendations", len(enriched)))

	return &TurnResult{Reply: reply.Content, Recommendations: enriched}, nil
}

// outbound builds the gateway payload: system directive first, then the
// trimmed transcript.
func (s *Session) outbound() []conversation.Message {
	history := s.store.Messages()
	if s.opts.SystemPrompt == "" {
		return history
	}
	out := make([]conversation.Message, 0, len(history)+1)
	out = append(out, conversation.Message{Role: conversation.RoleSystem, Content: s.opts.SystemPrompt, CreatedAt: s.opts.Now()})
	return append(out, history...)
}

// History returns the committed transcript.
func (s *Session) History() []conversation.Message {
	return s.store.Messages()
}

// Context returns the derived user context.
func (s *Session) Context() profile.UserContext {
	return s.tracker.Context()
}

// Clear wipes the transcript and user context, in memory and on disk.
func (s *Session) Clear() {
	s.store.Clear()
	s.tracker.Clear()
	s.log.Info("session cleared", zap.String("session", s.id))
}
