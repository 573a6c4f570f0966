package api

import (
	"context"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/fetch"
	"tpog/internal/repositories"
)

type memSettings struct{ versions []models.Settings }

func (m *memSettings) Current(context.Context) (models.Settings, error) {
	if len(m.versions) == 0 {
		return models.Settings{}, domain.NotFoundError{Resource: "settings"}
	}
	return m.versions[len(m.versions)-1], nil
}

func (m *memSettings) ByVersion(_ context.Context, v int) (models.Settings, error) {
	for _, s := range m.versions {
		if s.Version == v {
			return s, nil
		}
	}
	return models.Settings{}, domain.NotFoundError{Resource: "settings"}
}

func (m *memSettings) ListVersions(context.Context) ([]models.SettingsVersion, error) {
	out := []models.SettingsVersion{}
	for i := len(m.versions) - 1; i >= 0; i-- {
		out = append(out, models.SettingsVersion{Version: m.versions[i].Version, CreatedBy: m.versions[i].CreatedBy})
	}
	return out, nil
}

func (m *memSettings) Insert(_ context.Context, s models.Settings) error {
	m.versions = append(m.versions, s)
	return nil
}

type memOverrides struct{ rows []models.Override }

func (m *memOverrides) ListByPayDate(_ context.Context, payDate string) ([]models.Override, error) {
	out := []models.Override{}
	for _, o := range m.rows {
		if o.PayDate == payDate {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOverrides) ListForDriverWeek(_ context.Context, driverID, payDate string) ([]models.Override, error) {
	out := []models.Override{}
	for _, o := range m.rows {
		if o.PayDate == payDate && o.DriverID == driverID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memOverrides) Upsert(_ context.Context, o models.Override) (models.Override, error) {
	o.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, o)
	return o, nil
}

func (m *memOverrides) Delete(context.Context, string, string, string) error {
	return domain.NotFoundError{Resource: "override"}
}

type memSnapshots struct{ rows []models.Snapshot }

func (m *memSnapshots) Insert(_ context.Context, s models.Snapshot) (int64, error) {
	for _, cur := range m.rows {
		if cur.DriverID == s.DriverID && cur.PayDate == s.PayDate {
			return 0, domain.ConflictError{Resource: "snapshot"}
		}
	}
	s.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, s)
	return s.ID, nil
}

func (m *memSnapshots) Get(_ context.Context, driverID, payDate string) (models.Snapshot, error) {
	for _, s := range m.rows {
		if s.DriverID == driverID && s.PayDate == payDate {
			return s, nil
		}
	}
	return models.Snapshot{}, domain.NotFoundError{Resource: "snapshot"}
}

func (m *memSnapshots) ListByPayDate(_ context.Context, payDate string) ([]models.Snapshot, error) {
	out := []models.Snapshot{}
	for _, s := range m.rows {
		if s.PayDate == payDate {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memSnapshots) Archive(_ context.Context, _ repositories.ArchiveFilter, p domain.Pagination) ([]models.Snapshot, domain.Pagination, error) {
	p = p.Normalize()
	p.Total = len(m.rows)
	return append([]models.Snapshot{}, m.rows...), p, nil
}

type memDispatch struct{ rows map[string]models.DispatcherOverride }

func (m *memDispatch) Get(_ context.Context, driverID, payDate string) (models.DispatcherOverride, error) {
	d, ok := m.rows[driverID+"|"+payDate]
	if !ok {
		return models.DispatcherOverride{}, domain.NotFoundError{Resource: "dispatch record"}
	}
	return d, nil
}

func (m *memDispatch) ListByPayDate(_ context.Context, payDate string) ([]models.DispatcherOverride, error) {
	out := []models.DispatcherOverride{}
	for _, d := range m.rows {
		if d.PayDate == payDate {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *memDispatch) Upsert(_ context.Context, d models.DispatcherOverride) (models.DispatcherOverride, error) {
	m.rows[d.DriverID+"|"+d.PayDate] = d
	return d, nil
}

type memNotes struct{ rows []models.WeeklyNote }

func (m *memNotes) Upsert(_ context.Context, n models.WeeklyNote) (models.WeeklyNote, error) {
	n.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, n)
	return n, nil
}

func (m *memNotes) Get(_ context.Context, id int64) (models.WeeklyNote, error) {
	for _, n := range m.rows {
		if n.ID == id {
			return n, nil
		}
	}
	return models.WeeklyNote{}, domain.NotFoundError{Resource: "note"}
}

func (m *memNotes) List(_ context.Context, f repositories.NoteFilter) ([]models.WeeklyNote, error) {
	out := []models.WeeklyNote{}
	for _, n := range m.rows {
		if f.DriverKey != "" && n.DriverKey != f.DriverKey {
			continue
		}
		if f.From != "" && n.Date < f.From {
			continue
		}
		if f.To != "" && n.Date > f.To {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (m *memNotes) Delete(_ context.Context, id int64) error {
	for i, n := range m.rows {
		if n.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: "note"}
}

type memUsers struct{ users []models.User }

func (m *memUsers) FindByLogin(_ context.Context, login string) (models.User, error) {
	for _, u := range m.users {
		if u.Email == login || u.Username == login {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (m *memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	u.ID = int64(len(m.users) + 1)
	m.users = append(m.users, u)
	return u, nil
}

type stubFetcher struct {
	data        fetch.WeekData
	err         error
	invalidated []string
}

func (s *stubFetcher) FetchWeek(context.Context, string) (fetch.WeekData, error) {
	return s.data, s.err
}

func (s *stubFetcher) FetchDriverWeek(context.Context, string, string) (fetch.WeekData, error) {
	return s.data, s.err
}

func (s *stubFetcher) Roster(context.Context) ([]fetch.DriverRow, error) {
	return s.data.Drivers, s.err
}

func (s *stubFetcher) InvalidatePayDate(_ context.Context, payDate string) {
	s.invalidated = append(s.invalidated, payDate)
}
