// Package session defines the persisted study session and its stores.
//
// A session is created once by the pipeline and never mutated; regenerating a
// topic creates a new session under a fresh id. Two store implementations are
// provided: a filesystem store writing a JSON document plus a WAV artifact
// per session, and a PostgreSQL store for deployments that already run a
// database.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/studyscroll/studyscroll/internal/deck"
	"github.com/studyscroll/studyscroll/internal/narrate"
)

// ErrNotFound is returned by Load when no session exists under the given id.
var ErrNotFound = errors.New("session not found")

// Session is one generated study feed: the cards, the optional narration, and
// enough metadata to serve it back.
type Session struct {
	// ID is the opaque identifier the session is addressed by. Never reused.
	ID string `json:"session_id"`
	// Topic is the free-text topic the session was generated from.
	Topic string `json:"topic"`
	// Cards is the validated card sequence.
	Cards deck.Sequence `json:"cards"`
	// Alignment is the per-card narration timing. Empty for text-only
	// sessions.
	Alignment narrate.Alignment `json:"alignment,omitempty"`
	// Audio is the narration WAV. Stored as a separate artifact, never
	// inlined into the JSON document.
	Audio []byte `json:"-"`
	// CreatedAt is when the pipeline produced the session.
	CreatedAt time.Time `json:"created_at"`
}

// New builds a Session with a fresh id. nar may be nil for the degraded
// text-only state.
func New(topic string, cards deck.Sequence, nar *narrate.Narration) *Session {
	s := &Session{
		ID:        NewID(),
		Topic:     topic,
		Cards:     cards,
		CreatedAt: time.Now().UTC(),
	}
	if nar != nil {
		s.Alignment = nar.Alignment
		s.Audio = nar.Audio
	}
	return s
}

// HasAudio reports whether the session carries a narration.
func (s *Session) HasAudio() bool {
	return len(s.Audio) > 0
}

// NewID returns a fresh opaque session id.
func NewID() string {
	return uuid.NewString()
}

// Store persists and retrieves sessions. Implementations must publish a
// session atomically: Load never observes a partially written one.
type Store interface {
	// Save persists s. Saving the same id twice is a programming error.
	Save(ctx context.Context, s *Session) error
	// Load retrieves the session under id, or ErrNotFound.
	Load(ctx context.Context, id string) (*Session, error)
	// Exists reports whether a session exists under id without loading its
	// audio.
	Exists(ctx context.Context, id string) (bool, error)
}
