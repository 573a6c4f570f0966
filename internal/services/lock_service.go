package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/utils"
)

// DriverReporter is the slice of ReportService the lock flow needs.
type DriverReporter interface {
	BuildWeek(ctx context.Context, payDate string) (models.WeekReport, error)
	BuildDriverWeek(ctx context.Context, payDate, driverID string) (models.Report, error)
}

// LockService freezes driver weeks into snapshots. There is no unlock.
type LockService struct {
	Reports   DriverReporter
	Snapshots SnapshotStore
	// Locker serializes concurrent locks across instances; nil skips it and
	// leaves the unique key on tpog_snapshots as the only guard.
	Locker    *redislock.Client
	LockTTL   time.Duration
	RequestID string
	Now       func() time.Time
}

func (s LockService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// LockWeek snapshots one driver week as currently computed.
func (s LockService) LockWeek(ctx context.Context, rc domain.RequestContext, payDate, driverID string) (models.Report, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return models.Report{}, err
	}
	release, err := s.obtain(ctx, payDate, driverID)
	if err != nil {
		return models.Report{}, err
	}
	defer release()

	if _, err := s.Snapshots.Get(ctx, driverID, payDate); err == nil {
		return models.Report{}, alreadyLocked(driverID, payDate)
	} else if !domain.IsNotFound(err) {
		return models.Report{}, err
	}

	r, err := s.Reports.BuildDriverWeek(ctx, payDate, driverID)
	if err != nil {
		return models.Report{}, err
	}
	return s.persist(ctx, rc, r)
}

// LockPayDate locks every driver of payDate that is not locked yet. One
// driver failing does not stop the others.
func (s LockService) LockPayDate(ctx context.Context, rc domain.RequestContext, payDate string) (models.LockResult, error) {
	week, err := s.Reports.BuildWeek(ctx, payDate)
	if err != nil {
		return models.LockResult{}, err
	}
	res := models.LockResult{PayDate: week.PayDate, Locked: []string{}, Skipped: []string{}, Failed: map[string]string{}}
	for _, r := range week.Rows {
		if r.Locked {
			res.Skipped = append(res.Skipped, r.DriverID)
			continue
		}
		err := s.lockComputed(ctx, rc, r)
		switch {
		case err == nil:
			res.Locked = append(res.Locked, r.DriverID)
		case domain.IsConflict(err):
			res.Skipped = append(res.Skipped, r.DriverID)
		default:
			res.Failed[r.DriverID] = err.Error()
		}
	}
	utils.LogEvent(s.RequestID, "lock", "lock_pay_date", fmt.Sprintf("pay_date=%s locked=%d skipped=%d failed=%d by=%s",
		res.PayDate, len(res.Locked), len(res.Skipped), len(res.Failed), rc.Actor()))
	return res, nil
}

func (s LockService) lockComputed(ctx context.Context, rc domain.RequestContext, r models.Report) error {
	release, err := s.obtain(ctx, r.PayDate, r.DriverID)
	if err != nil {
		return err
	}
	defer release()
	_, err = s.persist(ctx, rc, r)
	return err
}

// persist strips live fields, stores the snapshot and returns the report as
// it now reads back, live fields restored.
func (s LockService) persist(ctx context.Context, rc domain.RequestContext, r models.Report) (models.Report, error) {
	frozen := r.WithoutLive()
	frozen.Locked = false
	frozen.LockedBy = ""
	frozen.LockedAt = nil
	payload, err := json.Marshal(frozen)
	if err != nil {
		return models.Report{}, domain.InternalError{Msg: "encode snapshot", Err: err}
	}

	snap := models.Snapshot{
		DriverID:        r.DriverID,
		DriverName:      r.DriverName,
		PayDate:         r.PayDate,
		SettingsVersion: r.SettingsVersion,
		Percent:         r.Percent,
		Report:          payload,
		LockedBy:        rc.Actor(),
		LockedAt:        s.now(),
	}
	id, err := s.Snapshots.Insert(ctx, snap)
	if err != nil {
		return models.Report{}, err
	}
	snap.ID = id

	out, err := snap.Decode()
	if err != nil {
		return models.Report{}, domain.InternalError{Msg: "decode snapshot", Err: err}
	}
	out.DispatchStatus = r.DispatchStatus
	out.NeedsReview = r.NeedsReview
	out.Note = r.Note
	utils.LogEvent(s.RequestID, "lock", "lock_week", fmt.Sprintf("driver=%s pay_date=%s settings_version=%d by=%s", r.DriverID, r.PayDate, r.SettingsVersion, snap.LockedBy))
	return out, nil
}

func (s LockService) obtain(ctx context.Context, payDate, driverID string) (func(), error) {
	if driverID == "" {
		return nil, domain.ValidationError{Field: "driver_id", Msg: "required"}
	}
	if s.Locker == nil {
		return func() {}, nil
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key := "tpog:lock:" + payDate + ":" + driverID
	lock, err := s.Locker.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ConflictError{Resource: "snapshot", Msg: fmt.Sprintf("driver %s is being locked for %s", driverID, payDate)}
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

func alreadyLocked(driverID, payDate string) error {
	return domain.ConflictError{Resource: "snapshot", Msg: fmt.Sprintf("driver %s already locked for %s", driverID, payDate)}
}
