package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tpog/internal/config"
	intdb "tpog/internal/db"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// SnapshotRepository stores locked driver weeks. Rows are insert-only.
type SnapshotRepository struct {
	DB *sql.DB
}

func (r SnapshotRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

// ArchiveFilter narrows the archive listing. Zero values match everything.
type ArchiveFilter struct {
	From            string
	To              string
	Driver          string
	SettingsVersion int
	MinPercent      decimal.NullDecimal
	MaxPercent      decimal.NullDecimal
}

const snapshotSelect = `
	SELECT id, driver_id, COALESCE(driver_name,''), DATE_FORMAT(pay_date,'%Y-%m-%d'),
		settings_version, tpog_percent, report, COALESCE(locked_by,''), locked_at
	FROM tpog_snapshots`

func scanSnapshot(row interface{ Scan(...any) error }) (models.Snapshot, error) {
	var (
		s      models.Snapshot
		report []byte
	)
	if err := row.Scan(&s.ID, &s.DriverID, &s.DriverName, &s.PayDate, &s.SettingsVersion, &s.Percent, &report, &s.LockedBy, &s.LockedAt); err != nil {
		return models.Snapshot{}, err
	}
	s.Report = append([]byte(nil), report...)
	return s, nil
}

// Insert stores a new snapshot. A second lock of the same driver week is a
// ConflictError.
func (r SnapshotRepository) Insert(ctx context.Context, s models.Snapshot) (int64, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO tpog_snapshots (driver_id, driver_name, pay_date, settings_version, tpog_percent, report, locked_by, locked_at)
		VALUES (?,?,?,?,?,?,?,?)`,
		s.DriverID, s.DriverName, s.PayDate, s.SettingsVersion, s.Percent, []byte(s.Report), s.LockedBy, s.LockedAt,
	)
	if intdb.IsDuplicateKey(err) {
		return 0, domain.ConflictError{Resource: "snapshot", Msg: fmt.Sprintf("driver %s already locked for %s", s.DriverID, s.PayDate), Err: err}
	}
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

func (r SnapshotRepository) Get(ctx context.Context, driverID, payDate string) (models.Snapshot, error) {
	row := r.db().QueryRowContext(ctx, snapshotSelect+` WHERE driver_id=? AND pay_date=? LIMIT 1`, driverID, payDate)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Snapshot{}, domain.NotFoundError{Resource: "snapshot", Err: err}
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}

func (r SnapshotRepository) ListByPayDate(ctx context.Context, payDate string) ([]models.Snapshot, error) {
	rows, err := r.db().QueryContext(ctx, snapshotSelect+` WHERE pay_date=? ORDER BY driver_id`, payDate)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()
	return collectSnapshots(rows)
}

func collectSnapshots(rows *sql.Rows) ([]models.Snapshot, error) {
	out := []models.Snapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (f ArchiveFilter) where() (string, []any) {
	conds := []string{"1=1"}
	args := []any{}
	if f.From != "" {
		conds = append(conds, "pay_date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "pay_date <= ?")
		args = append(args, f.To)
	}
	if d := strings.TrimSpace(f.Driver); d != "" {
		conds = append(conds, "(driver_id = ? OR LOWER(driver_name) LIKE ?)")
		args = append(args, d, "%"+strings.ToLower(d)+"%")
	}
	if f.SettingsVersion > 0 {
		conds = append(conds, "settings_version = ?")
		args = append(args, f.SettingsVersion)
	}
	if f.MinPercent.Valid {
		conds = append(conds, "tpog_percent >= ?")
		args = append(args, f.MinPercent.Decimal)
	}
	if f.MaxPercent.Valid {
		conds = append(conds, "tpog_percent <= ?")
		args = append(args, f.MaxPercent.Decimal)
	}
	return strings.Join(conds, " AND "), args
}

// Archive lists snapshots newest pay date first and fills p.Total.
func (r SnapshotRepository) Archive(ctx context.Context, f ArchiveFilter, p domain.Pagination) ([]models.Snapshot, domain.Pagination, error) {
	p = p.Normalize()
	where, args := f.where()

	if err := r.db().QueryRowContext(ctx, `SELECT COUNT(*) FROM tpog_snapshots WHERE `+where, args...).Scan(&p.Total); err != nil {
		return nil, p, fmt.Errorf("count archive: %w", err)
	}

	pageArgs := append(append([]any{}, args...), p.PageSize, p.Offset())
	rows, err := r.db().QueryContext(ctx,
		snapshotSelect+` WHERE `+where+` ORDER BY pay_date DESC, driver_name ASC, id ASC LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, p, fmt.Errorf("list archive: %w", err)
	}
	defer rows.Close()
	out, err := collectSnapshots(rows)
	return out, p, err
}
