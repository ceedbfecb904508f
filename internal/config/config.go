package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Common is shared by every process.
type Common struct {
	AppEnv   string
	LogLevel slog.Level
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL builds a lib/pq connection URL from the discrete DB_* settings.
func (p Postgres) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.Name,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

type Store struct {
	Driver string
	// DSN overrides everything below when set.
	DSN      string
	Path     string
	Postgres Postgres

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool
}

// Config is the query API server configuration.
type Config struct {
	Common

	HTTPAddr        string
	APIKey          string
	LatestLookback  time.Duration
	ShutdownTimeout time.Duration

	Store Store
}

// DashboardConfig configures the dashboard process, which talks to the API
// over HTTP and never opens the store.
type DashboardConfig struct {
	Common

	HTTPAddr         string
	APIURL           string
	APIKey           string
	APITimeout       time.Duration
	FallbackLookback time.Duration
	ShutdownTimeout  time.Duration
	Location         *time.Location
}

func LoadFromEnv() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}
	common, err := loadCommon()
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":5000"
		}
	}

	apiKey := strings.TrimSpace(os.Getenv("API_KEY"))
	if apiKey == "" {
		return Config{}, errors.New("API_KEY is required")
	}

	lookback, err := envDuration("LATEST_LOOKBACK", "7d")
	if err != nil {
		return Config{}, err
	}
	if lookback <= 0 {
		return Config{}, fmt.Errorf("invalid LATEST_LOOKBACK %q (must be > 0)", os.Getenv("LATEST_LOOKBACK"))
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	store, err := loadStore()
	if err != nil {
		return Config{}, err
	}

	return Config{
		Common:          common,
		HTTPAddr:        httpAddr,
		APIKey:          apiKey,
		LatestLookback:  lookback,
		ShutdownTimeout: shutdownTimeout,
		Store:           store,
	}, nil
}

// LoadStoreFromEnv reads only the DB_* settings, for tools that need a
// connection but not the API.
func LoadStoreFromEnv() (Store, error) {
	if err := loadDotEnv(); err != nil {
		return Store{}, err
	}
	return loadStore()
}

func LoadDashboardFromEnv() (DashboardConfig, error) {
	if err := loadDotEnv(); err != nil {
		return DashboardConfig{}, err
	}
	common, err := loadCommon()
	if err != nil {
		return DashboardConfig{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("DASHBOARD_ADDR"))
	if httpAddr == "" {
		httpAddr = ":3000"
	}

	apiURL := strings.TrimRight(strings.TrimSpace(os.Getenv("API_URL")), "/")
	if apiURL == "" {
		apiURL = "http://localhost:5000"
	}
	if u, err := url.Parse(apiURL); err != nil || u.Scheme == "" || u.Host == "" {
		return DashboardConfig{}, fmt.Errorf("invalid API_URL %q (expected absolute http(s) URL)", apiURL)
	}

	apiKey := strings.TrimSpace(os.Getenv("API_KEY"))
	if apiKey == "" {
		return DashboardConfig{}, errors.New("API_KEY is required")
	}

	apiTimeout, err := envDuration("API_TIMEOUT", "15s")
	if err != nil {
		return DashboardConfig{}, err
	}
	fallback, err := envDuration("FALLBACK_LOOKBACK", "3d")
	if err != nil {
		return DashboardConfig{}, err
	}
	if fallback <= 0 {
		return DashboardConfig{}, fmt.Errorf("invalid FALLBACK_LOOKBACK %q (must be > 0)", os.Getenv("FALLBACK_LOOKBACK"))
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return DashboardConfig{}, err
	}

	tz := strings.TrimSpace(os.Getenv("DISPLAY_TIMEZONE"))
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return DashboardConfig{}, fmt.Errorf("invalid DISPLAY_TIMEZONE %q: %w", tz, err)
	}

	return DashboardConfig{
		Common:           common,
		HTTPAddr:         httpAddr,
		APIURL:           apiURL,
		APIKey:           apiKey,
		APITimeout:       apiTimeout,
		FallbackLookback: fallback,
		ShutdownTimeout:  shutdownTimeout,
		Location:         loc,
	}, nil
}

// loadDotEnv reads ENV_FILE (default .env) without overriding variables that
// are already set. A missing file is fine.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadCommon() (Common, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Common{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Common{}, err
	}
	return Common{AppEnv: appEnv, LogLevel: level}, nil
}

func loadStore() (Store, error) {
	pg := Postgres{
		Host:     strings.TrimSpace(os.Getenv("DB_HOST")),
		Port:     strings.TrimSpace(os.Getenv("DB_PORT")),
		User:     strings.TrimSpace(os.Getenv("DB_USER")),
		Password: os.Getenv("DB_PASS"),
		Name:     strings.TrimSpace(os.Getenv("DB_NAME")),
		SSLMode:  strings.TrimSpace(os.Getenv("DB_SSLMODE")),
	}
	if pg.Port == "" {
		pg.Port = "5432"
	}
	if pg.SSLMode == "" {
		pg.SSLMode = "disable"
	}

	// DB_HOST alone is enough to select Postgres, matching the variables the
	// deployed API has always been configured with.
	driver := strings.TrimSpace(os.Getenv("DB_DRIVER"))
	if driver == "" {
		driver = DriverSQLite
		if pg.Host != "" {
			driver = DriverPostgres
		}
	}
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return Store{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: postgres, sqlite3)", driver)
	}

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if driver == DriverPostgres && dsn == "" && pg.Host == "" {
		return Store{}, errors.New("postgres requires DB_DSN or DB_HOST")
	}

	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "dev/sqlite/cci.db"
	}

	defaultConns := "1"
	if driver == DriverPostgres {
		defaultConns = "10"
	}
	maxOpenConns, err := envInt("DB_MAX_OPEN_CONNS", defaultConns)
	if err != nil {
		return Store{}, err
	}
	maxIdleConns, err := envInt("DB_MAX_IDLE_CONNS", defaultConns)
	if err != nil {
		return Store{}, err
	}
	connMaxLifetime, err := envDuration("DB_CONN_MAX_LIFETIME", "0s")
	if err != nil {
		return Store{}, err
	}
	logSQL, err := envBool("DB_LOG_SQL", false)
	if err != nil {
		return Store{}, err
	}

	return Store{
		Driver:          driver,
		DSN:             dsn,
		Path:            path,
		Postgres:        pg,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
	}, nil
}

func envInt(key, def string) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		s = def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func envDuration(key, def string) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		s = def
	}
	d, err := parseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

// parseDuration extends time.ParseDuration with a whole-day form ("7d").
func parseDuration(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("expected whole days: %w", err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
