package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"tpog/internal/config"
	intdb "tpog/internal/db"
	"tpog/internal/domain"
	"tpog/internal/fetch"
	"tpog/internal/repositories"
	"tpog/internal/services"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		env := config.LoadEnv()
		config.ConfigureLogger(env)
		db, err := config.ConnectDB(env)
		if err != nil {
			return err
		}
		defer config.CloseDB()
		created, err := intdb.EnsureSchema(ctx, db)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "created:", strings.Join(created, ", "))
		return nil
	},
}

var hashPINCmd = &cobra.Command{
	Use:   "hash-pin <pin>",
	Short: "Print the bcrypt hash to use as ADMIN_PIN_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return hashPIN(cmd.OutOrStdout(), args[0])
	},
}

func hashPIN(w io.Writer, pin string) error {
	pin = strings.TrimSpace(pin)
	if len(pin) < 4 {
		return domain.ValidationError{Field: "pin", Msg: "must be at least 4 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(hash))
	return err
}

var userCreateCmd = &cobra.Command{
	Use:   "create-user <username> <email> <password>",
	Short: "Create an API user",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		rt, err := connect(ctx, false)
		if err != nil {
			return err
		}
		defer rt.close()

		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		u, err := services.AuthService{Users: rt.users}.CreateUser(ctx, name, args[0], args[1], args[2], role)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), u.ToPublic())
	},
}

var computeCmd = &cobra.Command{
	Use:   "compute <pay-date>",
	Short: "Compute a pay week and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		rt, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		reports := rt.reports()
		if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
			r, err := reports.BuildDriverWeek(ctx, args[0], driver)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		}
		week, err := reports.BuildWeek(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), week)
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <pay-date>",
	Short: "Lock every open driver week of a pay date",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		rt, err := connect(ctx, true)
		if err != nil {
			return err
		}
		defer rt.close()

		rc := domain.RequestContext{Username: actor, Role: "admin"}
		locks := services.LockService{Reports: rt.reports(), Snapshots: rt.snapshots, Locker: config.GetRedisLock()}
		if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
			r, err := locks.LockWeek(ctx, rc, args[0], driver)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		}
		res, err := locks.LockPayDate(ctx, rc, args[0])
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if len(res.Failed) > 0 {
			return fmt.Errorf("%d driver week(s) failed to lock", len(res.Failed))
		}
		return nil
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// deps is the subset of the server wiring the commands need.
type deps struct {
	env       config.Env
	fetcher   *fetch.Client
	users     repositories.UserRepository
	snapshots repositories.SnapshotRepository
	settings  repositories.SettingsRepository
	overrides repositories.OverrideRepository
	dispatch  repositories.DispatchRepository
	notes     repositories.NoteRepository
}

func connect(ctx context.Context, withUpstream bool) (*deps, error) {
	env := config.LoadEnv()
	config.ConfigureLogger(env)
	db, err := config.ConnectDB(env)
	if err != nil {
		return nil, err
	}
	rt := &deps{
		env:       env,
		users:     repositories.UserRepository{DB: db},
		snapshots: repositories.SnapshotRepository{DB: db},
		settings:  repositories.SettingsRepository{DB: db},
		overrides: repositories.OverrideRepository{DB: db},
		dispatch:  repositories.DispatchRepository{DB: db},
		notes:     repositories.NoteRepository{DB: db},
	}
	if withUpstream {
		var cache fetch.Cache
		if config.ConnectRedisWithRetry(ctx, env, 1) {
			cache = fetch.NewRedisCache(config.GetRedis())
		}
		rt.fetcher = fetch.New(env, cache)
	}
	return rt, nil
}

func (rt *deps) reports() services.ReportService {
	return services.ReportService{
		Fetcher:   rt.fetcher,
		Settings:  services.SettingsService{Repo: rt.settings, PINHash: rt.env.AdminPINHash, SeedFile: rt.env.SettingsSeedFile},
		Overrides: rt.overrides,
		Snapshots: rt.snapshots,
		Dispatch:  rt.dispatch,
		Notes:     rt.notes,
	}
}

func (rt *deps) close() {
	config.CloseRedis()
	config.CloseDB()
}
