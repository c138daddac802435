package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (id, session_id, goal, sql_text, is_valid, provider, model, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.Goal,
		entry.SQL,
		entry.IsValid,
		entry.Provider,
		entry.Model,
		string(entry.Kind),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.HistoryEntry, error) {
	query := `
		SELECT id, session_id, goal, sql_text, is_valid, provider, model, kind, created_at
		FROM history_entries
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var kind string
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.Goal,
			&e.SQL,
			&e.IsValid,
			&e.Provider,
			&e.Model,
			&kind,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.Kind = domain.HistoryKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM history_entries WHERE created_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old history entries: %w", err)
	}
	return tag.RowsAffected(), nil
}
