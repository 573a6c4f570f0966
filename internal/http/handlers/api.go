package handlers

import (
	"database/sql"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"

	"tpog/internal/http/middleware"
	"tpog/internal/realtime"
	"tpog/internal/services"
)

// API holds the wired services. Handlers copy a service per request and
// stamp it with the request id.
type API struct {
	DB        *sql.DB
	Fetcher   services.Fetcher
	Settings  services.SettingsStore
	Overrides services.OverrideStore
	Snapshots services.SnapshotStore
	Dispatch  services.DispatchStore
	Notes     services.NoteStore
	Users     services.UserStore
	Hub       *realtime.Hub
	Locker    *redislock.Client

	PINHash   string
	SeedFile  string
	JWTSecret []byte
	TokenTTL  time.Duration

	// StreamHeartbeat is the keep-alive interval of /notes/stream.
	StreamHeartbeat time.Duration
}

func (a *API) settings(c *gin.Context) services.SettingsService {
	return services.SettingsService{
		Repo:      a.Settings,
		PINHash:   a.PINHash,
		SeedFile:  a.SeedFile,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) reports(c *gin.Context) services.ReportService {
	return services.ReportService{
		Fetcher:   a.Fetcher,
		Settings:  a.settings(c),
		Overrides: a.Overrides,
		Snapshots: a.Snapshots,
		Dispatch:  a.Dispatch,
		Notes:     a.Notes,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) locks(c *gin.Context) services.LockService {
	return services.LockService{
		Reports:   a.reports(c),
		Snapshots: a.Snapshots,
		Locker:    a.Locker,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a *API) overrides(c *gin.Context) services.OverrideService {
	return services.OverrideService{
		Repo:        a.Overrides,
		Snapshots:   a.Snapshots,
		Invalidator: a.Fetcher,
		RequestID:   middleware.GetRequestID(c),
	}
}

func (a *API) dispatch(c *gin.Context) services.DispatchService {
	return services.DispatchService{Repo: a.Dispatch, RequestID: middleware.GetRequestID(c)}
}

func (a *API) notes(c *gin.Context) services.NoteService {
	svc := services.NoteService{Repo: a.Notes, RequestID: middleware.GetRequestID(c)}
	if a.Hub != nil {
		svc.Publisher = a.Hub
	}
	return svc
}

func (a *API) archive() services.ArchiveService {
	return services.ArchiveService{Snapshots: a.Snapshots}
}

func (a *API) exports(c *gin.Context) services.ExportService {
	return services.ExportService{Reports: a.reports(c), RequestID: middleware.GetRequestID(c)}
}

func (a *API) auth(c *gin.Context) services.AuthService {
	return services.AuthService{
		Users:     a.Users,
		Secret:    a.JWTSecret,
		TokenTTL:  a.TokenTTL,
		RequestID: middleware.GetRequestID(c),
	}
}

// TokenParser is the AuthService used by the auth middleware.
func (a *API) TokenParser() middleware.TokenParser {
	return services.AuthService{Users: a.Users, Secret: a.JWTSecret, TokenTTL: a.TokenTTL}
}
