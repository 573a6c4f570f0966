package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/fetch"
	"tpog/internal/repositories"
	"tpog/internal/rules"
	"tpog/internal/utils"
)

// ResourceOverrides marks overrides whose driver has neither upstream data
// nor a snapshot for the week.
const ResourceOverrides = "overrides"

// ReportService assembles week reports: computed for open weeks, rehydrated
// from snapshots for locked ones, with live fields merged in either way.
type ReportService struct {
	Fetcher   Fetcher
	Settings  SettingsService
	Overrides OverrideStore
	Snapshots SnapshotStore
	Dispatch  DispatchStore
	Notes     NoteStore
	RequestID string
	Now       func() time.Time
}

func (s ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

type weekInputs struct {
	data      fetch.WeekData
	snapshots []models.Snapshot
	overrides []models.Override
	dispatch  []models.DispatcherOverride
	notes     []models.WeeklyNote
}

// BuildWeek returns one report per driver for payDate, sorted by driver name.
func (s ReportService) BuildWeek(ctx context.Context, payDate string) (models.WeekReport, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return models.WeekReport{}, err
	}
	settings, err := s.Settings.Current(ctx)
	if err != nil {
		return models.WeekReport{}, err
	}

	var in weekInputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		in.data, err = s.Fetcher.FetchWeek(gctx, payDate)
		return err
	})
	g.Go(func() (err error) {
		in.snapshots, err = s.Snapshots.ListByPayDate(gctx, payDate)
		return err
	})
	g.Go(func() (err error) {
		in.overrides, err = s.Overrides.ListByPayDate(gctx, payDate)
		return err
	})
	g.Go(func() (err error) {
		in.dispatch, err = s.Dispatch.ListByPayDate(gctx, payDate)
		return err
	})
	g.Go(func() (err error) {
		in.notes, err = s.Notes.List(gctx, repositories.NoteFilter{From: payDate, To: payDate})
		return err
	})
	if err := g.Wait(); err != nil {
		return models.WeekReport{}, err
	}

	weeks, unmatched := fetch.JoinWeek(payDate, in.data)

	snapByDriver := map[string]models.Snapshot{}
	for _, snap := range in.snapshots {
		snapByDriver[snap.DriverID] = snap
	}
	overridesByDriver := map[string][]models.Override{}
	for _, o := range in.overrides {
		overridesByDriver[o.DriverID] = append(overridesByDriver[o.DriverID], o)
	}
	live := newLiveIndex(in.dispatch, in.notes)

	rows := make([]models.Report, 0, len(weeks)+len(in.snapshots))
	seen := map[string]bool{}
	for _, w := range weeks {
		seen[w.DriverID] = true
		var r models.Report
		if snap, ok := snapByDriver[w.DriverID]; ok {
			r, err = rehydrate(snap)
			if err != nil {
				return models.WeekReport{}, err
			}
		} else {
			r = rules.Compute(w, settings, overridesByDriver[w.DriverID])
		}
		rows = append(rows, live.apply(r))
	}
	// Locked weeks stay visible even when upstream no longer has the driver.
	for _, snap := range in.snapshots {
		if seen[snap.DriverID] {
			continue
		}
		seen[snap.DriverID] = true
		r, err := rehydrate(snap)
		if err != nil {
			return models.WeekReport{}, err
		}
		rows = append(rows, live.apply(r))
	}
	for driverID := range overridesByDriver {
		if !seen[driverID] {
			unmatched = append(unmatched, models.Unmatched{Resource: ResourceOverrides, DriverName: driverID})
		}
	}
	sortReports(rows)
	sortUnmatched(unmatched)

	if len(unmatched) > 0 {
		utils.LogWarn(s.RequestID, "report", "build_week", fmt.Sprintf("pay_date=%s unmatched=%d", payDate, len(unmatched)))
	}
	return models.WeekReport{
		PayDate:         payDate,
		SettingsVersion: settings.Version,
		Rows:            rows,
		Unmatched:       unmatched,
		GeneratedAt:     s.now(),
	}, nil
}

// BuildDriverWeek builds a single driver's report using per-driver fetches.
// A locked week is served from its snapshot without touching upstream.
func (s ReportService) BuildDriverWeek(ctx context.Context, payDate, driverID string) (models.Report, error) {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return models.Report{}, err
	}
	if driverID == "" {
		return models.Report{}, domain.ValidationError{Field: "driver_id", Msg: "required"}
	}

	snap, err := s.Snapshots.Get(ctx, driverID, payDate)
	switch {
	case err == nil:
		r, err := rehydrate(snap)
		if err != nil {
			return models.Report{}, err
		}
		return s.withDriverLive(ctx, r)
	case !domain.IsNotFound(err):
		return models.Report{}, err
	}

	settings, err := s.Settings.Current(ctx)
	if err != nil {
		return models.Report{}, err
	}
	driver, err := s.rosterDriver(ctx, driverID)
	if err != nil {
		return models.Report{}, err
	}
	data, err := s.Fetcher.FetchDriverWeek(ctx, payDate, driver.DriverName)
	if err != nil {
		return models.Report{}, err
	}
	data.Drivers = []fetch.DriverRow{driver}
	weeks, _ := fetch.JoinWeek(payDate, data)

	week := models.DriverWeek{
		DriverID:   driver.DriverID,
		DriverName: utils.NormalizeSpace(driver.DriverName),
		DriverKey:  utils.NormalizeDriverName(driver.DriverName),
		PayDate:    payDate,
		Contract:   driver.Contract,
	}
	if len(weeks) == 1 {
		week = weeks[0]
	}

	overrides, err := s.Overrides.ListForDriverWeek(ctx, driverID, payDate)
	if err != nil {
		return models.Report{}, err
	}
	return s.withDriverLive(ctx, rules.Compute(week, settings, overrides))
}

// Refresh drops cached upstream rows for payDate.
func (s ReportService) Refresh(ctx context.Context, payDate string) error {
	payDate, err := domain.NormalizePayDate(payDate)
	if err != nil {
		return err
	}
	s.Fetcher.InvalidatePayDate(ctx, payDate)
	utils.LogEvent(s.RequestID, "report", "refresh", "pay_date="+payDate)
	return nil
}

func (s ReportService) rosterDriver(ctx context.Context, driverID string) (fetch.DriverRow, error) {
	roster, err := s.Fetcher.Roster(ctx)
	if err != nil {
		return fetch.DriverRow{}, err
	}
	for _, d := range roster {
		if d.DriverID == driverID {
			return d, nil
		}
	}
	return fetch.DriverRow{}, domain.NotFoundError{Resource: "driver " + driverID}
}

// withDriverLive loads the dispatcher record and note for one report.
func (s ReportService) withDriverLive(ctx context.Context, r models.Report) (models.Report, error) {
	var dispatch []models.DispatcherOverride
	d, err := s.Dispatch.Get(ctx, r.DriverID, r.PayDate)
	switch {
	case err == nil:
		dispatch = append(dispatch, d)
	case !domain.IsNotFound(err):
		return models.Report{}, err
	}
	notes, err := s.Notes.List(ctx, repositories.NoteFilter{
		DriverKey: utils.NormalizeDriverName(r.DriverName),
		From:      r.PayDate,
		To:        r.PayDate,
	})
	if err != nil {
		return models.Report{}, err
	}
	return newLiveIndex(dispatch, notes).apply(r), nil
}

// rehydrate returns the snapshot report verbatim; only live fields are
// filled in afterwards.
func rehydrate(snap models.Snapshot) (models.Report, error) {
	r, err := snap.Decode()
	if err != nil {
		return models.Report{}, domain.InternalError{Msg: fmt.Sprintf("corrupt snapshot for %s/%s", snap.DriverID, snap.PayDate), Err: err}
	}
	return r, nil
}

// liveIndex holds the fields that stay editable after a week is locked.
type liveIndex struct {
	dispatch map[string]models.DispatcherOverride
	notes    map[string]models.WeeklyNote
}

func newLiveIndex(dispatch []models.DispatcherOverride, notes []models.WeeklyNote) liveIndex {
	idx := liveIndex{
		dispatch: make(map[string]models.DispatcherOverride, len(dispatch)),
		notes:    make(map[string]models.WeeklyNote, len(notes)),
	}
	for _, d := range dispatch {
		idx.dispatch[d.DriverID] = d
	}
	for _, n := range notes {
		idx.notes[n.DriverKey] = n
	}
	return idx
}

func (l liveIndex) apply(r models.Report) models.Report {
	r.DispatchStatus = models.DispatchUnconfirmed
	r.NeedsReview = false
	r.Note = ""
	if d, ok := l.dispatch[r.DriverID]; ok {
		if d.Status != "" {
			r.DispatchStatus = d.Status
		}
		r.NeedsReview = d.NeedsReview
	}
	if n, ok := l.notes[utils.NormalizeDriverName(r.DriverName)]; ok {
		r.Note = n.Body
	}
	return r
}

func sortReports(rows []models.Report) {
	sort.SliceStable(rows, func(i, j int) bool {
		ki, kj := utils.NormalizeDriverName(rows[i].DriverName), utils.NormalizeDriverName(rows[j].DriverName)
		if ki != kj {
			return ki < kj
		}
		return rows[i].DriverID < rows[j].DriverID
	})
}

func sortUnmatched(u []models.Unmatched) {
	sort.Slice(u, func(i, j int) bool {
		if u[i].Resource != u[j].Resource {
			return u[i].Resource < u[j].Resource
		}
		return u[i].DriverName < u[j].DriverName
	})
}
