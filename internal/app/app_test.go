package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/config"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard/views"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/db"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/migrate"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

const testKey = "s3cret"

func sqliteStore(t *testing.T) config.Store {
	t.Helper()
	return config.Store{
		Driver:       config.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "cci.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}
}

func TestNewAPIMux(t *testing.T) {
	cfg := config.Config{APIKey: testKey, Store: sqliteStore(t)}
	conn, err := db.Open(cfg.Store)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	ctx := context.Background()
	if err := migrate.Run(ctx, conn); err != nil {
		t.Fatalf("migrate.Run: %v", err)
	}
	if err := migrate.Seed(ctx, conn); err != nil {
		t.Fatalf("migrate.Seed: %v", err)
	}

	mux, err := newAPIMux(conn, cfg, observability.NewMetricsForTesting())
	if err != nil {
		t.Fatalf("newAPIMux: %v", err)
	}

	tests := []struct {
		name     string
		path     string
		key      string
		wantCode int
		wantBody string
	}{
		{"healthz is open", "/healthz", "", http.StatusOK, `"status":"ok"`},
		{"stations need a key", "/api/stations", "", http.StatusUnauthorized, "invalid API key"},
		{"stations", "/api/stations", testKey, http.StatusOK, `"name":"Prosser"`},
		{"readings", "/api/comfort?station=Pullman&start=2020-01-01", testKey, http.StatusOK, `"station_id"`},
		{"bad range", "/api/comfort?start=2025-02-01&end=2025-01-01", testKey, http.StatusBadRequest, "must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("x-api-key", tt.key)
			}
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d; want %d (body %s)", rec.Code, tt.wantCode, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %s; want it to contain %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRun_stopsOnCancel(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:        "127.0.0.1:0",
		APIKey:          testKey,
		ShutdownTimeout: time.Second,
		Store:           sqliteStore(t),
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	err := run(ctx, cfg, observability.NewMetricsForTesting())

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("run() = %v; want context.Canceled", err)
	}
}

func TestRun_badStore(t *testing.T) {
	cfg := config.Config{Store: config.Store{Driver: "oracle"}}

	err := run(context.Background(), cfg, observability.NewMetricsForTesting())

	if err == nil {
		t.Fatal("run() = nil; want error for unsupported driver")
	}
}

func TestDashboardMux(t *testing.T) {
	var gotKey atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/stations":
			_, _ = w.Write([]byte(`[{"id":"1","name":"Prosser","latitude":46.25,"longitude":-119.73,"zipcode":"99350"}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(api.Close)

	cfg := config.DashboardConfig{
		APIURL:     api.URL,
		APIKey:     testKey,
		APITimeout: time.Second,
		Location:   time.UTC,
	}
	if err := views.LoadTemplates(cfg.Location); err != nil {
		t.Fatalf("load templates: %v", err)
	}
	mux := newDashboardMux(cfg, observability.NewMetricsForTesting())

	for _, path := range []string{"/", "/partials/map", "/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d; want %d", path, rec.Code, http.StatusOK)
		}
	}
	if got, _ := gotKey.Load().(string); got != testKey {
		t.Errorf("dashboard sent key %q; want %q", got, testKey)
	}
}
