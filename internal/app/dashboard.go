package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/config"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard/views"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard/web"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/httpapi"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

// RunDashboard serves the dashboard until ctx is cancelled or the listener
// fails. It never touches the store; all data comes from the query API.
func RunDashboard(ctx context.Context, cfg config.DashboardConfig) error {
	return runDashboard(ctx, cfg, observability.NewMetrics())
}

func runDashboard(ctx context.Context, cfg config.DashboardConfig, metrics *observability.Metrics) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"apiURL", cfg.APIURL,
		"apiTimeout", cfg.APITimeout,
		"fallbackLookback", cfg.FallbackLookback,
		"displayTimezone", cfg.Location.String(),
	)

	if err := views.LoadTemplates(cfg.Location); err != nil {
		return err
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, newDashboardMux(cfg, metrics), metrics)
	return serve(ctx, srv, cfg.ShutdownTimeout)
}

func newDashboardMux(cfg config.DashboardConfig, metrics *observability.Metrics) *http.ServeMux {
	client := dashboard.NewClient(cfg.APIURL, cfg.APIKey, cfg.APITimeout)
	dash := dashboard.New(client, metrics, dashboard.WithFallbackLookback(cfg.FallbackLookback))

	mux := http.NewServeMux()
	web.NewHandler(dash, cfg.Location).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
