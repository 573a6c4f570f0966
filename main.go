package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tpog/internal/config"
	intdb "tpog/internal/db"
	"tpog/internal/fetch"
	api "tpog/internal/http"
	h "tpog/internal/http/handlers"
	"tpog/internal/realtime"
	"tpog/internal/repositories"
)

func main() {
	env := config.LoadEnv()
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	logger := config.ConfigureLogger(env)
	if err := env.CheckJWTSecret(); err != nil {
		logger.Fatalf("config: %v", err)
	}

	db, err := config.ConnectDB(env)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer config.CloseDB()

	created, err := intdb.EnsureSchema(context.Background(), db)
	if err != nil {
		logger.Fatalf("schema: %v", err)
	}
	if len(created) > 0 {
		logger.WithField("tables", created).Info("created missing tables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cache fetch.Cache = fetch.NewMemoryCache()
	if config.ConnectRedisWithRetry(ctx, env, 3) {
		cache = fetch.NewRedisCache(config.GetRedis())
	}
	defer config.CloseRedis()

	hub := realtime.NewHub(config.GetRedis())
	go hub.Run(ctx)

	a := &h.API{
		DB:        db,
		Fetcher:   fetch.New(env, cache),
		Settings:  &repositories.SettingsRepository{DB: db},
		Overrides: &repositories.OverrideRepository{DB: db},
		Snapshots: &repositories.SnapshotRepository{DB: db},
		Dispatch:  &repositories.DispatchRepository{DB: db},
		Notes:     &repositories.NoteRepository{DB: db},
		Users:     &repositories.UserRepository{DB: db},
		Hub:       hub,
		Locker:    config.GetRedisLock(),
		PINHash:   env.AdminPINHash,
		SeedFile:  env.SettingsSeedFile,
		JWTSecret: []byte(env.JWTSecret),
	}
	if env.AdminPINHash == "" {
		logger.Warn("ADMIN_PIN_HASH is not set; settings updates are disabled")
	}

	r := api.NewRouter(env, a)
	h.SetRouter(r)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      0, // /api/notes/stream stays open
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("addr", env.AppAddr).Info("tpog backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
		return
	}
	logger.Info("server stopped")
}
