package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/config"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/db"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/httpapi"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/migrate"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/service"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

// Run serves the query API until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg config.Config) error {
	return run(ctx, cfg, observability.NewMetrics())
}

func run(ctx context.Context, cfg config.Config, metrics *observability.Metrics) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"latestLookback", cfg.LatestLookback,
		"dbDriver", cfg.Store.Driver,
		"dbHost", cfg.Store.Postgres.Host,
		"sqlitePath", cfg.Store.Path,
		"dbMaxOpenConns", cfg.Store.MaxOpenConns,
		"dbMaxIdleConns", cfg.Store.MaxIdleConns,
		"dbConnMaxLifetime", cfg.Store.ConnMaxLifetime,
		"dbLogSQL", cfg.Store.LogSQL,
	)
	dbConn, err := db.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	// Production schema is managed outside this service; the SQLite dev store
	// migrates itself.
	if cfg.Store.Driver == config.DriverSQLite {
		if err := migrate.Run(ctx, dbConn); err != nil {
			return err
		}
	}

	var ok int
	err = dbConn.QueryRowContext(ctx, `SELECT 1`).Scan(&ok)
	if err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	slog.Info("database connection successful")

	mux, err := newAPIMux(dbConn, cfg, metrics)
	if err != nil {
		return err
	}
	srv := httpapi.NewServer(cfg.HTTPAddr, mux, metrics)

	return serve(ctx, srv, cfg.ShutdownTimeout)
}

func newAPIMux(dbConn *sql.DB, cfg config.Config, metrics *observability.Metrics) (*http.ServeMux, error) {
	mux := httpapi.NewMux(dbConn)
	api := http.NewServeMux()
	if err := comfort.RegisterFeature(api, dbConn, cfg.Store.Driver, metrics,
		service.WithLatestWindow(cfg.LatestLookback),
	); err != nil {
		return nil, err
	}
	httpapi.MountAPI(mux, api, cfg.APIKey, metrics)
	return mux, nil
}
