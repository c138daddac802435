package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// DictionaryRepository implements domain.DictionaryRepository
type DictionaryRepository struct {
	db *sql.DB
}

// NewDictionaryRepository creates a new dictionary repository
func NewDictionaryRepository(store *Store) *DictionaryRepository {
	return &DictionaryRepository{db: store.db}
}

func (r *DictionaryRepository) Save(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	payload, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("failed to marshal dictionary: %w", err)
	}

	query := `
		INSERT INTO dictionaries (session_id, payload, is_complete, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id)
		DO UPDATE SET payload = excluded.payload, is_complete = excluded.is_complete, updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, sessionID.String(), string(payload), dict.IsComplete, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	return nil
}

func (r *DictionaryRepository) GetComplete(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	query := `
		SELECT payload
		FROM dictionaries
		WHERE session_id = ? AND is_complete = 1
	`
	var payload string
	err := r.db.QueryRowContext(ctx, query, sessionID.String()).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dictionary: %w", err)
	}

	var dict domain.FieldDictionary
	if err := json.Unmarshal([]byte(payload), &dict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	return &dict, nil
}

func (r *DictionaryRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM dictionaries WHERE session_id = ?`, sessionID.String()); err != nil {
		return fmt.Errorf("failed to delete dictionary: %w", err)
	}
	return nil
}
