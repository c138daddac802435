package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HistoryKind distinguishes how a history entry was produced.
type HistoryKind string

const (
	HistoryGeneration HistoryKind = "generation"
	HistoryRepair     HistoryKind = "repair"
)

// HistoryEntry records one successfully generated (or repaired) query.
// Entries are only written for non-null SQL; "could not generate" outcomes
// are not history-worthy.
type HistoryEntry struct {
	ID        uuid.UUID   `json:"id"`
	SessionID uuid.UUID   `json:"session_id"`
	Goal      string      `json:"goal"`
	SQL       string      `json:"sql"`
	IsValid   bool        `json:"is_valid"`
	Provider  string      `json:"provider"`
	Model     string      `json:"model,omitempty"`
	Kind      HistoryKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// HistoryRepository defines the interface for history storage.
// ListBySession returns entries in unspecified order; callers sort.
type HistoryRepository interface {
	Create(ctx context.Context, entry *HistoryEntry) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]HistoryEntry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// DictionaryRepository defines the interface for dictionary storage.
// Save supersedes any previous dictionary for the session; GetComplete
// returns ErrNotFound when no complete dictionary exists.
type DictionaryRepository interface {
	Save(ctx context.Context, sessionID uuid.UUID, dict *FieldDictionary) error
	GetComplete(ctx context.Context, sessionID uuid.UUID) (*FieldDictionary, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}
