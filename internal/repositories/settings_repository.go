package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tpog/internal/config"
	intdb "tpog/internal/db"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// SettingsRepository stores immutable settings versions in tpog_settings.
type SettingsRepository struct {
	DB *sql.DB
}

func (r SettingsRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

const settingsColumns = `version, payload, COALESCE(created_by,''), created_at`

func scanSettings(row interface{ Scan(...any) error }) (models.Settings, error) {
	var (
		version   int
		payload   []byte
		createdBy string
		createdAt time.Time
	)
	if err := row.Scan(&version, &payload, &createdBy, &createdAt); err != nil {
		return models.Settings{}, err
	}
	var s models.Settings
	if err := json.Unmarshal(payload, &s); err != nil {
		return models.Settings{}, fmt.Errorf("decode settings v%d: %w", version, err)
	}
	s.Version = version
	s.CreatedBy = createdBy
	s.CreatedAt = createdAt
	return s, nil
}

// Current returns the highest version.
func (r SettingsRepository) Current(ctx context.Context) (models.Settings, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM tpog_settings ORDER BY version DESC LIMIT 1`)
	s, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, domain.NotFoundError{Resource: "settings", Err: err}
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("load current settings: %w", err)
	}
	return s, nil
}

func (r SettingsRepository) ByVersion(ctx context.Context, version int) (models.Settings, error) {
	row := r.db().QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM tpog_settings WHERE version=? LIMIT 1`, version)
	s, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, domain.NotFoundError{Resource: fmt.Sprintf("settings version %d", version), Err: err}
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("load settings v%d: %w", version, err)
	}
	return s, nil
}

// ListVersions returns version metadata, newest first.
func (r SettingsRepository) ListVersions(ctx context.Context) ([]models.SettingsVersion, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT version, COALESCE(created_by,''), created_at FROM tpog_settings ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("list settings versions: %w", err)
	}
	defer rows.Close()

	out := []models.SettingsVersion{}
	for rows.Next() {
		var v models.SettingsVersion
		if err := rows.Scan(&v.Version, &v.CreatedBy, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Insert stores s under s.Version. A taken version is a ConflictError so a
// concurrent update loses instead of overwriting history.
func (r SettingsRepository) Insert(ctx context.Context, s models.Settings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.db().ExecContext(ctx,
		`INSERT INTO tpog_settings (version, payload, created_by, created_at) VALUES (?,?,?,?)`,
		s.Version, payload, s.CreatedBy, s.CreatedAt,
	)
	if intdb.IsDuplicateKey(err) {
		return domain.ConflictError{Resource: "settings", Msg: fmt.Sprintf("version %d already exists", s.Version), Err: err}
	}
	if err != nil {
		return fmt.Errorf("insert settings v%d: %w", s.Version, err)
	}
	return nil
}
