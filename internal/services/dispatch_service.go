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

// DispatchService runs the dispatcher confirmation state machine. Records
// are live fields: they never change pay and stay editable after a lock.
type DispatchService struct {
	Repo      DispatchStore
	RequestID string
	Now       func() time.Time
}

// DispatchInput carries the optional confirmation details of an action.
type DispatchInput struct {
	ConfirmedMiles decimal.NullDecimal
	ActiveDays     *int
	Note           string
	// NeedsReview is used by the flag action; nil toggles.
	NeedsReview *bool
}

func (s DispatchService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

func (s DispatchService) List(ctx context.Context, payDate string) ([]models.DispatcherOverride, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListByPayDate(ctx, payDate)
}

// Apply performs action on the driver week and persists the new state.
func (s DispatchService) Apply(ctx context.Context, rc domain.RequestContext, payDate, driverID string, action models.DispatchAction, in DispatchInput) (models.DispatcherOverride, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return models.DispatcherOverride{}, err
	}
	if strings.TrimSpace(driverID) == "" {
		return models.DispatcherOverride{}, domain.ValidationError{Field: "driver_id", Msg: "required"}
	}

	cur, err := s.Repo.Get(ctx, driverID, payDate)
	switch {
	case domain.IsNotFound(err):
		cur = models.DispatcherOverride{DriverID: driverID, PayDate: payDate, Status: models.DispatchUnconfirmed}
	case err != nil:
		return models.DispatcherOverride{}, err
	}

	next, err := Transition(cur, action, in)
	if err != nil {
		return models.DispatcherOverride{}, err
	}
	next.UpdatedBy = rc.Actor()
	next.UpdatedAt = s.now()

	saved, err := s.Repo.Upsert(ctx, next)
	if err != nil {
		return models.DispatcherOverride{}, err
	}
	utils.LogEvent(s.RequestID, "dispatch", string(action), fmt.Sprintf("driver=%s pay_date=%s %s->%s by=%s", driverID, payDate, cur.Status, saved.Status, saved.UpdatedBy))
	return saved, nil
}

// Transition is the pure state machine:
//
//	verify:   unconfirmed|editable -> verified
//	edit:     verified|overridden  -> editable
//	override: unconfirmed|editable -> overridden (needs miles or active days)
//	flag:     any state, sets or toggles the review flag
func Transition(cur models.DispatcherOverride, action models.DispatchAction, in DispatchInput) (models.DispatcherOverride, error) {
	from := cur.Status
	if from == "" {
		from = models.DispatchUnconfirmed
	}
	next := cur
	next.Status = from

	invalid := func() error {
		return domain.ConflictError{Resource: "dispatch", Msg: fmt.Sprintf("cannot %s from %s", action, from)}
	}

	switch action {
	case models.ActionVerify:
		if from != models.DispatchUnconfirmed && from != models.DispatchEditable {
			return cur, invalid()
		}
		next.Status = models.DispatchVerified
		next.ConfirmedMiles = decimal.NullDecimal{}
		next.ActiveDays = nil
	case models.ActionEdit:
		if from != models.DispatchVerified && from != models.DispatchOverridden {
			return cur, invalid()
		}
		next.Status = models.DispatchEditable
	case models.ActionOverride:
		if from != models.DispatchUnconfirmed && from != models.DispatchEditable {
			return cur, invalid()
		}
		if err := validateConfirmation(in); err != nil {
			return cur, err
		}
		next.Status = models.DispatchOverridden
		next.ConfirmedMiles = in.ConfirmedMiles
		next.ActiveDays = in.ActiveDays
	case models.ActionFlag:
		if in.NeedsReview != nil {
			next.NeedsReview = *in.NeedsReview
		} else {
			next.NeedsReview = !cur.NeedsReview
		}
	default:
		return cur, domain.ValidationError{Field: "action", Msg: fmt.Sprintf("unknown action %q", action)}
	}

	if note := strings.TrimSpace(in.Note); note != "" {
		next.Note = note
	}
	return next, nil
}

func validateConfirmation(in DispatchInput) error {
	fields := map[string]string{}
	if !in.ConfirmedMiles.Valid && in.ActiveDays == nil {
		fields["confirmed_miles"] = "confirmed miles or active days required"
	}
	if in.ConfirmedMiles.Valid && in.ConfirmedMiles.Decimal.IsNegative() {
		fields["confirmed_miles"] = "must not be negative"
	}
	if in.ActiveDays != nil && (*in.ActiveDays < 0 || *in.ActiveDays > 7) {
		fields["active_days"] = "must be between 0 and 7"
	}
	if len(fields) == 0 {
		return nil
	}
	return domain.ValidationError{Msg: "invalid override", Fields: fields}
}
