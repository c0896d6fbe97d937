package histories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a new log holding entries in the given order. Entries with
// a zero Date are stamped with the current time.
func (r *PostgresRepository) Create(ctx context.Context, entries []models.HistoryEntry) (*models.NoteHistory, error) {
	h := &models.NoteHistory{History: make([]models.HistoryEntry, 0, len(entries))}

	query := `INSERT INTO note_histories DEFAULT VALUES RETURNING id`
	if err := r.db.QueryRowContext(ctx, query).Scan(&h.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	insert :=
		`INSERT INTO note_history_entries (history_id, position, date, title, content)
		 VALUES ($1, $2, $3, $4, $5)`

	for i, e := range entries {
		e = r.stamp(e)
		if _, err := r.db.ExecContext(ctx, insert, h.ID, i, e.Date, e.Title, e.Content); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		h.History = append(h.History, e)
	}

	return h, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.NoteHistory, error) {
	h := &models.NoteHistory{}

	err := r.db.QueryRowContext(ctx, `SELECT id FROM note_histories WHERE id = $1`, id).Scan(&h.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	query :=
		`SELECT date, title, content FROM note_history_entries
		 WHERE history_id = $1
		 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	h.History = []models.HistoryEntry{}
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(&e.Date, &e.Title, &e.Content); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		h.History = append(h.History, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return h, nil
}

// Append adds entry after the last existing one. Callers serialize appends
// to the same log by holding the owning note's row lock.
func (r *PostgresRepository) Append(ctx context.Context, id string, entry models.HistoryEntry) error {
	entry = r.stamp(entry)

	query :=
		`INSERT INTO note_history_entries (history_id, position, date, title, content)
		 SELECT h.id, COALESCE((SELECT max(position) FROM note_history_entries WHERE history_id = h.id), -1) + 1, $2, $3, $4
		 FROM note_histories h
		 WHERE h.id = $1`

	res, err := r.db.ExecContext(ctx, query, id, entry.Date, entry.Title, entry.Content)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) stamp(e models.HistoryEntry) models.HistoryEntry {
	if e.Date.IsZero() {
		e.Date = r.now()
	}
	return e
}
