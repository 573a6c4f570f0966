package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/domain/models"
)

// OverrideRepository persists tpog_overrides; one row per (driver, pay date, field).
type OverrideRepository struct {
	DB *sql.DB
}

func (r OverrideRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return config.DB
}

const overrideSelect = `
	SELECT id, driver_id, DATE_FORMAT(pay_date,'%Y-%m-%d'), field_name, value,
		COALESCE(reason,''), COALESCE(updated_by,''), updated_at
	FROM tpog_overrides`

func (r OverrideRepository) list(ctx context.Context, where string, args ...any) ([]models.Override, error) {
	rows, err := r.db().QueryContext(ctx, overrideSelect+` WHERE `+where+` ORDER BY driver_id, field_name, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := []models.Override{}
	for rows.Next() {
		var o models.Override
		if err := rows.Scan(&o.ID, &o.DriverID, &o.PayDate, &o.Field, &o.Value, &o.Reason, &o.UpdatedBy, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r OverrideRepository) ListByPayDate(ctx context.Context, payDate string) ([]models.Override, error) {
	return r.list(ctx, `pay_date=?`, payDate)
}

func (r OverrideRepository) ListForDriverWeek(ctx context.Context, driverID, payDate string) ([]models.Override, error) {
	return r.list(ctx, `driver_id=? AND pay_date=?`, driverID, payDate)
}

// Upsert writes o, replacing any earlier value for the same field. The
// returned override carries the row id.
func (r OverrideRepository) Upsert(ctx context.Context, o models.Override) (models.Override, error) {
	res, err := r.db().ExecContext(ctx, `
		INSERT INTO tpog_overrides (driver_id, pay_date, field_name, value, reason, updated_by, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON DUPLICATE KEY UPDATE
			id=LAST_INSERT_ID(id),
			value=VALUES(value),
			reason=VALUES(reason),
			updated_by=VALUES(updated_by),
			updated_at=VALUES(updated_at)`,
		o.DriverID, o.PayDate, o.Field, o.Value, o.Reason, o.UpdatedBy, o.UpdatedAt,
	)
	if err != nil {
		return models.Override{}, fmt.Errorf("upsert override %s/%s/%s: %w", o.DriverID, o.PayDate, o.Field, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		o.ID = id
	}
	return o, nil
}

func (r OverrideRepository) Delete(ctx context.Context, driverID, payDate, field string) error {
	res, err := r.db().ExecContext(ctx,
		`DELETE FROM tpog_overrides WHERE driver_id=? AND pay_date=? AND field_name=?`,
		driverID, payDate, field,
	)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFoundError{Resource: "override " + field}
	}
	return nil
}
