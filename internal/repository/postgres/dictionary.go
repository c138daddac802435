package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// DictionaryRepository implements domain.DictionaryRepository. The
// dictionary is stored as one jsonb document per session; saving replaces
// whatever was there before.
type DictionaryRepository struct {
	pool *pgxpool.Pool
}

// NewDictionaryRepository creates a new dictionary repository
func NewDictionaryRepository(pool *pgxpool.Pool) *DictionaryRepository {
	return &DictionaryRepository{pool: pool}
}

func (r *DictionaryRepository) Save(ctx context.Context, sessionID uuid.UUID, dict *domain.FieldDictionary) error {
	payload, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("failed to marshal dictionary: %w", err)
	}

	query := `
		INSERT INTO dictionaries (session_id, payload, is_complete, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id)
		DO UPDATE SET payload = $2, is_complete = $3, updated_at = $4
	`
	_, err = r.pool.Exec(ctx, query, sessionID, payload, dict.IsComplete, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save dictionary: %w", err)
	}
	return nil
}

func (r *DictionaryRepository) GetComplete(ctx context.Context, sessionID uuid.UUID) (*domain.FieldDictionary, error) {
	query := `
		SELECT payload
		FROM dictionaries
		WHERE session_id = $1 AND is_complete
	`
	var payload []byte
	err := r.pool.QueryRow(ctx, query, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dictionary: %w", err)
	}

	var dict domain.FieldDictionary
	if err := json.Unmarshal(payload, &dict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dictionary: %w", err)
	}
	return &dict, nil
}

func (r *DictionaryRepository) Delete(ctx context.Context, sessionID uuid.UUID) error {
	query := `DELETE FROM dictionaries WHERE session_id = $1`
	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete dictionary: %w", err)
	}
	return nil
}
