package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// DispatchRepository persists dispatcher_overrides.
type DispatchRepository struct {
	DB *sql.DB
}

func (r DispatchRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

const dispatchSelect = `
	SELECT id, driver_id, DATE_FORMAT(pay_date,'%Y-%m-%d'), status, confirmed_miles, active_days,
		COALESCE(note,''), needs_review, COALESCE(updated_by,''), updated_at
	FROM dispatcher_overrides`

func scanDispatch(row interface{ Scan(...any) error }) (models.DispatcherOverride, error) {
	var (
		d      models.DispatcherOverride
		status string
		days   sql.NullInt64
	)
	if err := row.Scan(&d.ID, &d.DriverID, &d.PayDate, &status, &d.ConfirmedMiles, &days, &d.Note, &d.NeedsReview, &d.UpdatedBy, &d.UpdatedAt); err != nil {
		return models.DispatcherOverride{}, err
	}
	d.Status = models.DispatchStatus(status)
	if days.Valid {
		n := int(days.Int64)
		d.ActiveDays = &n
	}
	return d, nil
}

func (r DispatchRepository) Get(ctx context.Context, driverID, payDate string) (models.DispatcherOverride, error) {
	row := r.db().QueryRowContext(ctx, dispatchSelect+` WHERE driver_id=? AND pay_date=? LIMIT 1`, driverID, payDate)
	d, err := scanDispatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DispatcherOverride{}, domain.NotFoundError{Resource: "dispatch record", Err: err}
	}
	if err != nil {
		return models.DispatcherOverride{}, fmt.Errorf("load dispatch record: %w", err)
	}
	return d, nil
}

func (r DispatchRepository) ListByPayDate(ctx context.Context, payDate string) ([]models.DispatcherOverride, error) {
	rows, err := r.db().QueryContext(ctx, dispatchSelect+` WHERE pay_date=? ORDER BY driver_id`, payDate)
	if err != nil {
		return nil, fmt.Errorf("list dispatch records: %w", err)
	}
	defer rows.Close()

	out := []models.DispatcherOverride{}
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Upsert replaces the record for (driver, pay date); last write wins.
func (r DispatchRepository) Upsert(ctx context.Context, d models.DispatcherOverride) (models.DispatcherOverride, error) {
	var days any
	if d.ActiveDays != nil {
		days = *d.ActiveDays
	}
	var miles any
	if d.ConfirmedMiles.Valid {
		miles = d.ConfirmedMiles.Decimal
	}
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO dispatcher_overrides (driver_id, pay_date, status, confirmed_miles, active_days, note, needs_review, updated_by, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			id=LAST_INSERT_ID(id),
			status=VALUES(status),
			confirmed_miles=VALUES(confirmed_miles),
			active_days=VALUES(active_days),
			note=VALUES(note),
			needs_review=VALUES(needs_review),
			updated_by=VALUES(updated_by),
			updated_at=VALUES(updated_at)`,
		d.DriverID, d.PayDate, string(d.Status), miles, days, d.Note, d.NeedsReview, d.UpdatedBy, d.UpdatedAt,
	)
	if err != nil {
		return models.DispatcherOverride{}, fmt.Errorf("upsert dispatch record: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		d.ID = id
	}
	return d, nil
}
