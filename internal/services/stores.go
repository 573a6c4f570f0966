package services

import (
	"context"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/fetch"
	"tpog/internal/repositories"
)

// The interfaces below are satisfied by the repositories and fetch.Client;
// tests swap in fakes.

type SettingsStore interface {
	Current(ctx context.Context) (models.Settings, error)
	ByVersion(ctx context.Context, version int) (models.Settings, error)
	ListVersions(ctx context.Context) ([]models.SettingsVersion, error)
	Insert(ctx context.Context, s models.Settings) error
}

type OverrideStore interface {
	ListByPayDate(ctx context.Context, payDate string) ([]models.Override, error)
	ListForDriverWeek(ctx context.Context, driverID, payDate string) ([]models.Override, error)
	Upsert(ctx context.Context, o models.Override) (models.Override, error)
	Delete(ctx context.Context, driverID, payDate, field string) error
}

type SnapshotStore interface {
	Insert(ctx context.Context, s models.Snapshot) (int64, error)
	Get(ctx context.Context, driverID, payDate string) (models.Snapshot, error)
	ListByPayDate(ctx context.Context, payDate string) ([]models.Snapshot, error)
	Archive(ctx context.Context, f repositories.ArchiveFilter, p domain.Pagination) ([]models.Snapshot, domain.Pagination, error)
}

type DispatchStore interface {
	Get(ctx context.Context, driverID, payDate string) (models.DispatcherOverride, error)
	ListByPayDate(ctx context.Context, payDate string) ([]models.DispatcherOverride, error)
	Upsert(ctx context.Context, d models.DispatcherOverride) (models.DispatcherOverride, error)
}

type NoteStore interface {
	Upsert(ctx context.Context, n models.WeeklyNote) (models.WeeklyNote, error)
	Get(ctx context.Context, id int64) (models.WeeklyNote, error)
	List(ctx context.Context, f repositories.NoteFilter) ([]models.WeeklyNote, error)
	Delete(ctx context.Context, id int64) error
}

type UserStore interface {
	FindByLogin(ctx context.Context, login string) (models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// Fetcher is the upstream side of the report pipeline.
type Fetcher interface {
	FetchWeek(ctx context.Context, payDate string) (fetch.WeekData, error)
	FetchDriverWeek(ctx context.Context, payDate, driverName string) (fetch.WeekData, error)
	Roster(ctx context.Context) ([]fetch.DriverRow, error)
	InvalidatePayDate(ctx context.Context, payDate string)
}

var (
	_ SettingsStore = repositories.SettingsRepository{}
	_ OverrideStore = repositories.OverrideRepository{}
	_ SnapshotStore = repositories.SnapshotRepository{}
	_ DispatchStore = repositories.DispatchRepository{}
	_ NoteStore     = repositories.NoteRepository{}
	_ UserStore     = repositories.UserRepository{}
	_ Fetcher       = (*fetch.Client)(nil)
)
