package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tpog/internal/domain"
	"tpog/internal/domain/models"
	"tpog/internal/rules"
	"tpog/internal/utils"
)

// SettingsService owns the versioned rules configuration. History is
// append-only: an update inserts version N+1.
type SettingsService struct {
	Repo      SettingsStore
	PINHash   string
	SeedFile  string
	RequestID string
	Now       func() time.Time
}

// SettingsUpdate is a full replacement of the tables. BaseVersion, when set,
// must equal the current version.
type SettingsUpdate struct {
	BaseVersion int
	Settings    models.Settings
}

func (s SettingsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return utils.NowUTC()
}

// Current returns the latest version, seeding version 1 on an empty table.
func (s SettingsService) Current(ctx context.Context) (models.Settings, error) {
	cur, err := s.Repo.Current(ctx)
	if domain.IsNotFound(err) {
		return s.Bootstrap(ctx)
	}
	return cur, err
}

func (s SettingsService) ByVersion(ctx context.Context, version int) (models.Settings, error) {
	if version < 1 {
		return models.Settings{}, domain.ValidationError{Field: "version", Msg: "must be a positive integer"}
	}
	return s.Repo.ByVersion(ctx, version)
}

func (s SettingsService) ListVersions(ctx context.Context) ([]models.SettingsVersion, error) {
	if _, err := s.Current(ctx); err != nil {
		return nil, err
	}
	return s.Repo.ListVersions(ctx)
}

// Bootstrap writes version 1 from the seed file, or the built-in defaults
// when no seed file is configured. Losing the insert race to another
// instance is fine: the winner's row is returned.
func (s SettingsService) Bootstrap(ctx context.Context) (models.Settings, error) {
	seed := models.DefaultSettings()
	source := "defaults"
	if path := strings.TrimSpace(s.SeedFile); path != "" {
		loaded, err := LoadSettingsSeed(path)
		if err != nil {
			return models.Settings{}, err
		}
		seed = loaded
		source = path
	}
	if err := rules.ValidateSettings(seed); err != nil {
		return models.Settings{}, fmt.Errorf("settings seed %s: %w", source, err)
	}
	seed.Version = 1
	seed.CreatedBy = "system"
	seed.CreatedAt = s.now()

	err := s.Repo.Insert(ctx, seed)
	if domain.IsConflict(err) {
		return s.Repo.Current(ctx)
	}
	if err != nil {
		return models.Settings{}, err
	}
	utils.LogEvent(s.RequestID, "settings", "bootstrap", "seeded version 1 from "+source)
	return seed, nil
}

// CheckPIN verifies the admin PIN against the configured bcrypt hash.
// Surrounding whitespace is ignored, as it is when the hash is generated.
func (s SettingsService) CheckPIN(pin string) error {
	if s.PINHash == "" {
		return domain.ForbiddenError{Msg: "settings updates are disabled: no admin PIN configured"}
	}
	pin = strings.TrimSpace(pin)
	if pin == "" {
		return domain.ForbiddenError{Msg: "admin PIN required"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.PINHash), []byte(pin)); err != nil {
		return domain.ForbiddenError{Msg: "invalid admin PIN"}
	}
	return nil
}

// Update validates in and stores it as the next version. Nothing is written
// when the PIN, the tables or the base version are rejected.
func (s SettingsService) Update(ctx context.Context, rc domain.RequestContext, pin string, in SettingsUpdate) (models.Settings, error) {
	if err := s.CheckPIN(pin); err != nil {
		utils.LogWarn(s.RequestID, "settings", "update", "rejected admin PIN for "+rc.Actor())
		return models.Settings{}, err
	}
	if err := rules.ValidateSettings(in.Settings); err != nil {
		return models.Settings{}, err
	}
	cur, err := s.Current(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	if in.BaseVersion > 0 && in.BaseVersion != cur.Version {
		return models.Settings{}, domain.ConflictError{
			Resource: "settings",
			Msg:      fmt.Sprintf("base version %d is stale; current is %d", in.BaseVersion, cur.Version),
		}
	}

	next := in.Settings
	next.Version = cur.Version + 1
	next.CreatedBy = rc.Actor()
	next.CreatedAt = s.now()
	if err := s.Repo.Insert(ctx, next); err != nil {
		return models.Settings{}, err
	}
	utils.LogEvent(s.RequestID, "settings", "update", fmt.Sprintf("version=%d by=%s", next.Version, next.CreatedBy))
	return next, nil
}
