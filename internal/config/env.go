package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Env struct {
	AppAddr string
	GinMode string

	DBDSN      string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	UpstreamBaseURL string
	UpstreamAPIKey  string
	UpstreamPaths   map[string]string
	FetchRetries    int
	FetchBackoff    time.Duration
	FetchTimeout    time.Duration

	RedisAddr string
	CacheTTL  time.Duration

	JWTSecret    string
	AdminPINHash string

	CORSAllowedOrigins []string
	SettingsSeedFile   string

	LogLevel  string
	LogFormat string
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	env := Env{
		AppAddr: envOr("APP_ADDR", ":8080"),
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),

		DBDSN:      strings.TrimSpace(os.Getenv("DB_DSN")),
		DBUser:     envOr("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBHost:     envOr("DB_HOST", "127.0.0.1:3306"),
		DBName:     envOr("DB_NAME", "tpog"),

		UpstreamBaseURL: strings.TrimRight(strings.TrimSpace(os.Getenv("UPSTREAM_BASE_URL")), "/"),
		UpstreamAPIKey:  strings.TrimSpace(os.Getenv("UPSTREAM_API_KEY")),
		UpstreamPaths:   map[string]string{},
		FetchRetries:    envInt("FETCH_RETRIES", 3),
		FetchBackoff:    envDuration("FETCH_BACKOFF", 200*time.Millisecond),
		FetchTimeout:    envDuration("FETCH_TIMEOUT", 15*time.Second),

		RedisAddr: strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		CacheTTL:  envDuration("CACHE_TTL", 5*time.Minute),

		JWTSecret:    strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AdminPINHash: strings.TrimSpace(os.Getenv("ADMIN_PIN_HASH")),

		SettingsSeedFile: strings.TrimSpace(os.Getenv("SETTINGS_SEED_FILE")),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "json"),
	}

	for _, r := range Resources {
		key := "UPSTREAM_PATH_" + strings.ToUpper(r)
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			env.UpstreamPaths[r] = v
		}
	}

	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	} else {
		env.CORSAllowedOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}

	return env
}

// placeholderJWTSecret is accepted only in debug and test modes.
const placeholderJWTSecret = "change-me"

// CheckJWTSecret rejects a missing signing secret, and the placeholder one
// unless GIN_MODE is debug or test.
func (e Env) CheckJWTSecret() error {
	if e.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	if e.JWTSecret == placeholderJWTSecret && e.GinMode != "debug" && e.GinMode != "test" {
		return errors.New("JWT_SECRET is still the placeholder value")
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
