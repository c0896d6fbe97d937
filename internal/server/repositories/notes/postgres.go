package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/gophnotes/internal/common"
	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/models"
)

// invalidTextRepresentation is raised by postgres for a malformed uuid.
const invalidTextRepresentation = "22P02"

const searchFilter = `($1 = '' OR n.title ILIKE '%' || $1 || '%' ESCAPE '\' OR n.content ILIKE '%' || $1 || '%' ESCAPE '\')`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EscapeLike makes s safe to embed in an ILIKE pattern with '\' as escape
// character, so '%' and '_' match literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`INSERT INTO notes (title, content, image_url, creator_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		note.Title, note.Content, note.ImageURL, note.CreatorID).Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Note, error) {
	query :=
		`SELECT n.id, n.title, n.content, n.image_url, n.creator_id, n.note_history_id, n.created_at, n.updated_at,
		        u.name, u.email
		 FROM notes n JOIN users u ON u.id = n.creator_id
		 WHERE n.id = $1`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		return nil, mapLookupError(err)
	}

	return note, nil
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Note, error) {
	query :=
		`SELECT n.id, n.title, n.content, n.image_url, n.creator_id, n.note_history_id, n.created_at, n.updated_at
		 FROM notes n
		 WHERE n.id = $1
		 FOR UPDATE`

	note, err := scanNote(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		return nil, mapLookupError(err)
	}

	return note, nil
}

func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	query :=
		`UPDATE notes SET title = $2, content = $3, image_url = $4, note_history_id = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		note.ID, note.Title, note.Content, note.ImageURL, note.NoteHistoryID).Scan(&note.UpdatedAt)

	if err != nil {
		return nil, mapLookupError(err)
	}

	return note, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM notes WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return mapLookupError(err)
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

func (r *PostgresRepository) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT count(*) FROM notes n WHERE ` + searchFilter

	var total int
	if err := r.db.QueryRowContext(ctx, query, EscapeLike(search)).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return total, nil
}

func (r *PostgresRepository) List(ctx context.Context, search string, offset, limit int) ([]*models.Note, error) {
	query :=
		`SELECT n.id, n.title, n.content, n.image_url, n.creator_id, n.note_history_id, n.created_at, n.updated_at,
		        u.name, u.email
		 FROM notes n JOIN users u ON u.id = n.creator_id
		 WHERE ` + searchFilter + `
		 ORDER BY n.created_at DESC, n.id
		 OFFSET $2 LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, EscapeLike(search), offset, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	notes := []*models.Note{}
	for rows.Next() {
		note, err := scanNote(rows, true)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner, withCreator bool) (*models.Note, error) {
	note := &models.Note{}
	var historyID sql.NullString

	dest := []any{&note.ID, &note.Title, &note.Content, &note.ImageURL, &note.CreatorID,
		&historyID, &note.CreatedAt, &note.UpdatedAt}

	creator := &models.UserSummary{}
	if withCreator {
		dest = append(dest, &creator.Name, &creator.Email)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if historyID.Valid {
		note.NoteHistoryID = &historyID.String
	}
	if withCreator {
		creator.ID = note.CreatorID
		note.Creator = creator
	}

	return note, nil
}

func mapLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return common.ErrorNotFound
	}
	return fmt.Errorf("db error: %w", err)
}
