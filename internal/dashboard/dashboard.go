package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

// DefaultFallbackLookback is how far back the degraded latest map looks.
const DefaultFallbackLookback = 3 * 24 * time.Hour

var ErrNoStation = errors.New("no station available")

// API is the query API as the dashboard uses it.
type API interface {
	Stations(ctx context.Context) ([]domain.Station, error)
	Readings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error)
	Latest(ctx context.Context) ([]domain.RawReading, error)
}

// ReadingsView is the readings region value: the normalized rows and the
// filter they were fetched for.
type ReadingsView struct {
	Filter   Filter
	Readings []domain.DerivedReading
}

// Dashboard holds what every viewer shares: the API, the clock and metrics.
// Display state lives in a Page, one per page request.
type Dashboard struct {
	api              API
	clock            clockwork.Clock
	metrics          *observability.Metrics
	fallbackLookback time.Duration
}

// Page is one page request's three display regions. Each is refreshed and settled
// on its own, so a failure in one never blanks the others, and a newer fetch
// for a region supersedes an older one still in flight.
type Page struct {
	d *Dashboard

	Stations *Region[[]domain.Station]
	Readings *Region[ReadingsView]
	Latest   *Region[LatestResult]
}

type Option func(*Dashboard)

func WithClock(c clockwork.Clock) Option {
	return func(d *Dashboard) { d.clock = c }
}

func WithFallbackLookback(lookback time.Duration) Option {
	return func(d *Dashboard) {
		if lookback > 0 {
			d.fallbackLookback = lookback
		}
	}
}

func New(api API, metrics *observability.Metrics, opts ...Option) *Dashboard {
	d := &Dashboard{
		api:              api,
		clock:            clockwork.NewRealClock(),
		metrics:          metrics,
		fallbackLookback: DefaultFallbackLookback,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewPage returns a fresh set of regions, all loading.
func (d *Dashboard) NewPage() *Page {
	return &Page{
		d:        d,
		Stations: NewRegion(func(s []domain.Station) bool { return len(s) == 0 }),
		Readings: NewRegion(func(v ReadingsView) bool { return len(v.Readings) == 0 }),
		Latest:   NewRegion(func(l LatestResult) bool { return len(l.Readings) == 0 }),
	}
}

func (d *Dashboard) Now() time.Time {
	return d.clock.Now()
}

// Refresh reloads every region for filter and returns the filter actually
// used. Without a station the first listed station is chosen, which means
// readings wait for the station list; otherwise all three fetches run at
// once. The returned error is the first region failure, if any.
func (p *Page) Refresh(ctx context.Context, filter Filter) (Filter, error) {
	stationsToken := p.Stations.Begin()
	readingsToken := p.Readings.Begin()

	var g errgroup.Group
	stationsCh := make(chan []domain.Station, 1)

	g.Go(func() error {
		stations, err := p.fetchStations(ctx, stationsToken)
		if err != nil {
			close(stationsCh)
			return err
		}
		stationsCh <- stations
		return nil
	})

	g.Go(func() error {
		_, err := p.RefreshLatest(ctx)
		return err
	})

	if filter.StationID == "" {
		stations, ok := <-stationsCh
		if !ok {
			p.Readings.Fail(readingsToken, ErrNoStation)
			return filter, g.Wait()
		}
		if len(stations) == 0 {
			p.Readings.Commit(readingsToken, ReadingsView{Filter: filter})
			return filter, g.Wait()
		}
		filter.StationID = stations[0].ID
	}

	g.Go(func() error {
		return p.fetchReadings(ctx, readingsToken, filter)
	})
	return filter, g.Wait()
}

// RefreshStations reloads only the station list.
func (p *Page) RefreshStations(ctx context.Context) ([]domain.Station, error) {
	return p.fetchStations(ctx, p.Stations.Begin())
}

func (p *Page) fetchStations(ctx context.Context, token uint64) ([]domain.Station, error) {
	stations, err := p.d.api.Stations(ctx)
	if err != nil {
		if p.Stations.Fail(token, err) {
			slog.ErrorContext(ctx, "dashboard: stations fetch failed", "error", err)
		}
		return nil, err
	}
	p.Stations.Commit(token, stations)
	return stations, nil
}

// RefreshReadings reloads only the readings region, superseding any readings
// fetch still in flight.
func (p *Page) RefreshReadings(ctx context.Context, filter Filter) error {
	return p.fetchReadings(ctx, p.Readings.Begin(), filter)
}

func (p *Page) fetchReadings(ctx context.Context, token uint64, filter Filter) error {
	raw, err := p.d.api.Readings(ctx, filter.Query())
	if err != nil {
		if p.Readings.Fail(token, err) {
			slog.ErrorContext(ctx, "dashboard: readings fetch failed", "station_id", filter.StationID, "error", err)
		}
		return err
	}
	if !p.Readings.Commit(token, ReadingsView{Filter: filter, Readings: domain.NormalizeAll(raw)}) {
		slog.DebugContext(ctx, "dashboard: discarded superseded readings", "station_id", filter.StationID)
	}
	return nil
}
