package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlscribe/sqlscribe/internal/domain"
)

// HistoryRepository implements domain.HistoryRepository
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(store *Store) *HistoryRepository {
	return &HistoryRepository{db: store.db}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO history_entries (id, session_id, goal, sql_text, is_valid, provider, model, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.SessionID.String(),
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
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var rawID, rawSessionID, kind string
		if err := rows.Scan(
			&rawID,
			&rawSessionID,
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
		if e.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("failed to parse history id: %w", err)
		}
		if e.SessionID, err = uuid.Parse(rawSessionID); err != nil {
			return nil, fmt.Errorf("failed to parse session id: %w", err)
		}
		e.Kind = domain.HistoryKind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM history_entries WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old history entries: %w", err)
	}
	return res.RowsAffected()
}
