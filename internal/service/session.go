package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// SessionService manages working sessions.
type SessionService struct {
	sessionRepo domain.SessionRepository
}

// NewSessionService creates a new session service
func NewSessionService(sessionRepo domain.SessionRepository) *SessionService {
	return &SessionService{sessionRepo: sessionRepo}
}

// Create starts a new session. The title may be empty; the first generated
// query names an untitled session.
func (s *SessionService) Create(ctx context.Context, title string) (*domain.Session, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Get returns one session by id.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.sessionRepo.Get(ctx, id)
}

// List returns the most recently updated sessions.
func (s *SessionService) List(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	sessions, err := s.sessionRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}
