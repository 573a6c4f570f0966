package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

// CacheInvalidator drops cached upstream rows for a pay date.
type CacheInvalidator interface {
	InvalidatePayDate(ctx context.Context, payDate string)
}

type OverrideService struct {
	Repo        OverrideStore
	Snapshots   SnapshotStore
	Invalidator CacheInvalidator
	RequestID   string
	Now         func() time.Time
}

// OverrideInput is one field replacement for a driver week.
type OverrideInput struct {
	Field  string
	Value  string
	Reason string
}

func (s OverrideService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// List returns the overrides of a pay date, or of one driver week when
// driverID is set.
func (s OverrideService) List(ctx context.Context, payDate, driverID string) ([]models.Override, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return nil, err
	}
	if driverID != "" {
		return s.Repo.ListForDriverWeek(ctx, driverID, payDate)
	}
	return s.Repo.ListByPayDate(ctx, payDate)
}

// Upsert stores the override, replacing any earlier value for the field.
// Locked weeks are frozen, so writes against them are conflicts.
func (s OverrideService) Upsert(ctx context.Context, rc domain.RequestContext, payDate, driverID string, in OverrideInput) (models.Override, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return models.Override{}, err
	}
	field := strings.TrimSpace(strings.ToLower(in.Field))
	if err := validateOverride(driverID, field, in.Value); err != nil {
		return models.Override{}, err
	}
	if err := s.ensureUnlocked(ctx, driverID, payDate); err != nil {
		return models.Override{}, err
	}

	o, err := s.Repo.Upsert(ctx, models.Override{
		DriverID:  driverID,
		PayDate:   payDate,
		Field:     field,
		Value:     strings.TrimSpace(in.Value),
		Reason:    strings.TrimSpace(in.Reason),
		UpdatedBy: rc.Actor(),
		UpdatedAt: s.now(),
	})
	if err != nil {
		return models.Override{}, err
	}
	s.invalidate(ctx, payDate)
	utils.LogEvent(s.RequestID, "override", "upsert", fmt.Sprintf("driver=%s pay_date=%s field=%s by=%s", driverID, payDate, field, o.UpdatedBy))
	return o, nil
}

func (s OverrideService) Delete(ctx context.Context, rc domain.RequestContext, payDate, driverID, field string) error {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return err
	}
	field = strings.TrimSpace(strings.ToLower(field))
	if driverID == "" || field == "" {
		return domain.ValidationError{Field: "field", Msg: "driver and field are required"}
	}
	if err := s.ensureUnlocked(ctx, driverID, payDate); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, driverID, payDate, field); err != nil {
		return err
	}
	s.invalidate(ctx, payDate)
	utils.LogEvent(s.RequestID, "override", "delete", fmt.Sprintf("driver=%s pay_date=%s field=%s by=%s", driverID, payDate, field, rc.Actor()))
	return nil
}

func validateOverride(driverID, field, value string) error {
	fields := map[string]string{}
	if strings.TrimSpace(driverID) == "" {
		fields["driver_id"] = "required"
	}
	if !models.IsOverridableField(field) {
		fields["field"] = "not an overridable field"
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(value)); err != nil {
		fields["value"] = "must be a number"
	} else if v.IsNegative() {
		fields["value"] = "must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	return domain.ValidationError{Msg: "invalid override", Fields: fields}
}

func (s OverrideService) ensureUnlocked(ctx context.Context, driverID, payDate string) error {
	if s.Snapshots == nil {
		return nil
	}
	_, err := s.Snapshots.Get(ctx, driverID, payDate)
	switch {
	case err == nil:
		return domain.ConflictError{Resource: "override", Msg: fmt.Sprintf("driver %s is locked for %s", driverID, payDate)}
	case domain.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func (s OverrideService) invalidate(ctx context.Context, payDate string) {
	if s.Invalidator != nil {
		s.Invalidator.InvalidatePayDate(ctx, payDate)
	}
}
