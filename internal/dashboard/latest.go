package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

const (
	latestOutcomeLatest   = "latest"
	latestOutcomeFallback = "fallback"
	latestOutcomeFailed   = "failed"
)

// LatestResult is the latest map region value, keyed by station id.
type LatestResult struct {
	Readings map[string]domain.DerivedReading
	// Degraded is set when the map was built from a ranged fetch because the
	// latest endpoint failed.
	Degraded bool
}

// LatestByStation asks the API for the latest reading per station. If that
// fails it fetches the fallback lookback and picks the closest reading per
// station itself. Only when both fail is an error returned.
func (d *Dashboard) LatestByStation(ctx context.Context) (LatestResult, error) {
	rows, err := d.api.Latest(ctx)
	if err == nil {
		d.metrics.LatestSource.WithLabelValues(latestOutcomeLatest).Inc()
		return LatestResult{Readings: byStation(rows)}, nil
	}
	slog.WarnContext(ctx, "dashboard: latest endpoint failed, using fallback", "error", err)

	now := d.clock.Now()
	recent, fallbackErr := d.api.Readings(ctx, domain.ReadingsFilter{Start: fallbackStart(now, d.fallbackLookback)})
	if fallbackErr != nil {
		d.metrics.LatestSource.WithLabelValues(latestOutcomeFailed).Inc()
		return LatestResult{}, fmt.Errorf("latest map: %w (fallback: %w)", err, fallbackErr)
	}
	d.metrics.LatestSource.WithLabelValues(latestOutcomeFallback).Inc()

	picked := domain.SelectLatest(recent, now, 0)
	out := make(map[string]domain.DerivedReading, len(picked))
	for id, r := range picked {
		out[id] = domain.Normalize(r)
	}
	return LatestResult{Readings: out, Degraded: true}, nil
}

// RefreshLatest reloads the latest map region. On total failure the region
// shows the error rather than an older map.
func (p *Page) RefreshLatest(ctx context.Context) (LatestResult, error) {
	token := p.Latest.Begin()
	res, err := p.d.LatestByStation(ctx)
	if err != nil {
		if p.Latest.Fail(token, err) {
			slog.ErrorContext(ctx, "dashboard: latest map unavailable", "error", err)
		}
		return LatestResult{}, err
	}
	p.Latest.Commit(token, res)
	return res, nil
}

// fallbackStart is the UTC calendar day lookback before now, so the whole of
// that day is searched.
func fallbackStart(now time.Time, lookback time.Duration) time.Time {
	y, m, dd := now.Add(-lookback).UTC().Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// byStation keys rows by station id. The server already returns one row per
// station; a duplicate keeps the first.
func byStation(rows []domain.RawReading) map[string]domain.DerivedReading {
	out := make(map[string]domain.DerivedReading, len(rows))
	for _, r := range rows {
		if r.StationID == "" {
			continue
		}
		if _, ok := out[r.StationID]; ok {
			continue
		}
		out[r.StationID] = domain.Normalize(r)
	}
	return out
}
