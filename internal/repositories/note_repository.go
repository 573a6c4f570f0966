package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// NoteRepository persists weekly_notes keyed by (driver_key, note_date).
type NoteRepository struct {
	DB *sql.DB
}

func (r NoteRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

// NoteFilter narrows List. Empty fields match everything.
type NoteFilter struct {
	DriverKey string
	From      string
	To        string
}

const noteSelect = `
	SELECT id, driver_key, driver_name, DATE_FORMAT(note_date,'%Y-%m-%d'), body,
		COALESCE(author,''), created_at, updated_at
	FROM weekly_notes`

func scanNote(row interface{ Scan(...any) error }) (models.WeeklyNote, error) {
	var n models.WeeklyNote
	err := row.Scan(&n.ID, &n.DriverKey, &n.DriverName, &n.Date, &n.Body, &n.Author, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// Upsert writes the note for (DriverKey, Date), keeping the original
// created_at on update.
func (r NoteRepository) Upsert(ctx context.Context, n models.WeeklyNote) (models.WeeklyNote, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO weekly_notes (driver_key, driver_name, note_date, body, author, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			id=LAST_INSERT_ID(id),
			driver_name=VALUES(driver_name),
			body=VALUES(body),
			author=VALUES(author),
			updated_at=VALUES(updated_at)`,
		n.DriverKey, n.DriverName, n.Date, n.Body, n.Author, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		return models.WeeklyNote{}, fmt.Errorf("upsert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.WeeklyNote{}, fmt.Errorf("upsert note: %w", err)
	}
	return r.Get(ctx, id)
}

func (r NoteRepository) Get(ctx context.Context, id int64) (models.WeeklyNote, error) {
	n, err := scanNote(r.db().QueryRowContext(ctx, noteSelect+` WHERE id=? LIMIT 1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.WeeklyNote{}, domain.NotFoundError{Resource: "note", Err: err}
	}
	if err != nil {
		return models.WeeklyNote{}, fmt.Errorf("load note: %w", err)
	}
	return n, nil
}

func (r NoteRepository) List(ctx context.Context, f NoteFilter) ([]models.WeeklyNote, error) {
	conds := []string{"1=1"}
	args := []any{}
	if f.DriverKey != "" {
		conds = append(conds, "driver_key=?")
		args = append(args, f.DriverKey)
	}
	if f.From != "" {
		conds = append(conds, "note_date>=?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "note_date<=?")
		args = append(args, f.To)
	}
	rows, err := r.db().QueryContext(ctx, noteSelect+` WHERE `+strings.Join(conds, " AND ")+` ORDER BY note_date DESC, driver_key`, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	out := []models.WeeklyNote{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r NoteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db().ExecContext(ctx, `DELETE FROM weekly_notes WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "note"}
	}
	return nil
}
