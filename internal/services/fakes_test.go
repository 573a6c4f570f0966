package services

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/fetch"
	"tpog/internal/repositories"
)

type fakeSettings struct {
	mu       sync.Mutex
	versions []models.Settings
	inserts  int
}

func (f *fakeSettings) Current(context.Context) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.versions) == 0 {
		return models.Settings{}, domain.NotFoundError{Resource: "settings"}
	}
	return f.versions[len(f.versions)-1], nil
}

func (f *fakeSettings) ByVersion(_ context.Context, v int) (models.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.versions {
		if s.Version == v {
			return s, nil
		}
	}
	return models.Settings{}, domain.NotFoundError{Resource: "settings"}
}

func (f *fakeSettings) ListVersions(context.Context) ([]models.SettingsVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.SettingsVersion{}
	for i := len(f.versions) - 1; i >= 0; i-- {
		s := f.versions[i]
		out = append(out, models.SettingsVersion{Version: s.Version, CreatedBy: s.CreatedBy, CreatedAt: s.CreatedAt})
	}
	return out, nil
}

func (f *fakeSettings) Insert(_ context.Context, s models.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.versions {
		if v.Version == s.Version {
			return domain.ConflictError{Resource: "settings"}
		}
	}
	f.inserts++
	f.versions = append(f.versions, s)
	return nil
}

type fakeOverrides struct {
	mu   sync.Mutex
	rows []models.Override
	next int64
}

func (f *fakeOverrides) ListByPayDate(_ context.Context, payDate string) ([]models.Override, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Override{}
	for _, o := range f.rows {
		if o.PayDate == payDate {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOverrides) ListForDriverWeek(_ context.Context, driverID, payDate string) ([]models.Override, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Override{}
	for _, o := range f.rows {
		if o.PayDate == payDate && o.DriverID == driverID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOverrides) Upsert(_ context.Context, o models.Override) (models.Override, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.rows {
		if cur.DriverID == o.DriverID && cur.PayDate == o.PayDate && cur.Field == o.Field {
			o.ID = cur.ID
			f.rows[i] = o
			return o, nil
		}
	}
	f.next++
	o.ID = f.next
	f.rows = append(f.rows, o)
	return o, nil
}

func (f *fakeOverrides) Delete(_ context.Context, driverID, payDate, field string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.rows {
		if cur.DriverID == driverID && cur.PayDate == payDate && cur.Field == field {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "override"}
}

type fakeSnapshots struct {
	mu   sync.Mutex
	rows []models.Snapshot
}

func (f *fakeSnapshots) Insert(_ context.Context, s models.Snapshot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cur := range f.rows {
		if cur.DriverID == s.DriverID && cur.PayDate == s.PayDate {
			return 0, domain.ConflictError{Resource: "snapshot"}
		}
	}
	s.ID = int64(len(f.rows) + 1)
	s.Report = append(json.RawMessage(nil), s.Report...)
	f.rows = append(f.rows, s)
	return s.ID, nil
}

func (f *fakeSnapshots) Get(_ context.Context, driverID, payDate string) (models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.rows {
		if s.DriverID == driverID && s.PayDate == payDate {
			return s, nil
		}
	}
	return models.Snapshot{}, domain.NotFoundError{Resource: "snapshot"}
}

func (f *fakeSnapshots) ListByPayDate(_ context.Context, payDate string) ([]models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Snapshot{}
	for _, s := range f.rows {
		if s.PayDate == payDate {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSnapshots) Archive(_ context.Context, _ repositories.ArchiveFilter, p domain.Pagination) ([]models.Snapshot, domain.Pagination, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = p.Normalize()
	p.Total = len(f.rows)
	return append([]models.Snapshot{}, f.rows...), p, nil
}

type fakeDispatch struct {
	mu   sync.Mutex
	rows map[string]models.DispatcherOverride
}

func newFakeDispatch() *fakeDispatch {
	return &fakeDispatch{rows: map[string]models.DispatcherOverride{}}
}

func (f *fakeDispatch) Get(_ context.Context, driverID, payDate string) (models.DispatcherOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[driverID+"|"+payDate]
	if !ok {
		return models.DispatcherOverride{}, domain.NotFoundError{Resource: "dispatch record"}
	}
	return d, nil
}

func (f *fakeDispatch) ListByPayDate(_ context.Context, payDate string) ([]models.DispatcherOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.DispatcherOverride{}
	for _, d := range f.rows {
		if d.PayDate == payDate {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DriverID < out[j].DriverID })
	return out, nil
}

func (f *fakeDispatch) Upsert(_ context.Context, d models.DispatcherOverride) (models.DispatcherOverride, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[d.DriverID+"|"+d.PayDate] = d
	return d, nil
}

type fakeNotes struct {
	mu   sync.Mutex
	rows []models.WeeklyNote
}

func (f *fakeNotes) Upsert(_ context.Context, n models.WeeklyNote) (models.WeeklyNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.rows {
		if cur.DriverKey == n.DriverKey && cur.Date == n.Date {
			n.ID = cur.ID
			n.CreatedAt = cur.CreatedAt
			f.rows[i] = n
			return n, nil
		}
	}
	n.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, n)
	return n, nil
}

func (f *fakeNotes) Get(_ context.Context, id int64) (models.WeeklyNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id {
			return n, nil
		}
	}
	return models.WeeklyNote{}, domain.NotFoundError{Resource: "note"}
}

func (f *fakeNotes) List(_ context.Context, q repositories.NoteFilter) ([]models.WeeklyNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.WeeklyNote{}
	for _, n := range f.rows {
		if q.DriverKey != "" && n.DriverKey != q.DriverKey {
			continue
		}
		if q.From != "" && n.Date < q.From {
			continue
		}
		if q.To != "" && n.Date > q.To {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotes) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.rows {
		if n.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "note"}
}

// ilike follows PostgREST: case-insensitive, whole value, '*' as wildcard.
func ilike(pattern, s string) bool {
	parts := strings.Split(pattern, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$").MatchString(s)
}

type fakeFetcher struct {
	mu          sync.Mutex
	data        fetch.WeekData
	err         error
	invalidated []string
	driverCalls int
}

func (f *fakeFetcher) FetchWeek(context.Context, string) (fetch.WeekData, error) {
	return f.data, f.err
}

func (f *fakeFetcher) FetchDriverWeek(_ context.Context, _ string, name string) (fetch.WeekData, error) {
	f.mu.Lock()
	f.driverCalls++
	f.mu.Unlock()
	if f.err != nil {
		return fetch.WeekData{}, f.err
	}
	// the upstream only applies the loose ilike pattern; joining narrows it
	pattern := fetch.DriverPattern(name)
	out := fetch.WeekData{}
	for _, r := range f.data.Mileage {
		if ilike(pattern, r.DriverName) {
			out.Mileage = append(out.Mileage, r)
		}
	}
	for _, r := range f.data.Safety {
		if ilike(pattern, r.DriverName) {
			out.Safety = append(out.Safety, r)
		}
	}
	for _, r := range f.data.Fuel {
		if ilike(pattern, r.DriverName) {
			out.Fuel = append(out.Fuel, r)
		}
	}
	for _, r := range f.data.Financial {
		if ilike(pattern, r.DriverName) {
			out.Financial = append(out.Financial, r)
		}
	}
	return out, nil
}

func (f *fakeFetcher) Roster(context.Context) ([]fetch.DriverRow, error) {
	return f.data.Drivers, f.err
}

func (f *fakeFetcher) InvalidatePayDate(_ context.Context, payDate string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, payDate)
}

type fakeUsers struct {
	users []models.User
}

func (f *fakeUsers) FindByLogin(_ context.Context, login string) (models.User, error) {
	for _, u := range f.users {
		if u.Email == login || u.Username == login {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (f *fakeUsers) Create(_ context.Context, u models.User) (models.User, error) {
	for _, cur := range f.users {
		if cur.Email == u.Email || cur.Username == u.Username {
			return models.User{}, domain.ConflictError{Resource: "user"}
		}
	}
	u.ID = int64(len(f.users) + 1)
	f.users = append(f.users, u)
	return u, nil
}

type recordingPublisher struct {
	events []models.NoteEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev models.NoteEvent) {
	p.events = append(p.events, ev)
}
