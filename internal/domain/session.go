package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is one working session: a dictionary plus its query history.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRepository defines the interface for session storage.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Update(ctx context.Context, session *Session) error
	ListRecent(ctx context.Context, limit int) ([]Session, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
