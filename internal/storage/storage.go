// Package storage persists playback sessions: the accumulated script text,
// the reader's position in it and the pending story choices, so a session
// can be resumed from another client.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("session not found")

// Session is a persisted playback session.
type Session struct {
	ID uuid.UUID `json:"id"`

	// Script is the full accumulated script text. The command list is
	// reparsed from it on load; commands themselves are never persisted.
	Script string `json:"script"`
	// Cursor is the index of the command being shown.
	Cursor int `json:"cursor"`
	// Choices is the story-transition-point option set awaiting selection.
	Choices []string `json:"choices,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage is the session persistence interface.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, s *Session) error
	LoadSession(ctx context.Context, id uuid.UUID) (*Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}
