package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

var dashNow = time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu sync.Mutex

	stations    []domain.Station
	stationsErr error
	readings    func(domain.ReadingsFilter) ([]domain.RawReading, error)
	latest      []domain.RawReading
	latestErr   error

	readingsCalls []domain.ReadingsFilter
}

func (f *fakeAPI) Stations(context.Context) ([]domain.Station, error) {
	return f.stations, f.stationsErr
}

func (f *fakeAPI) Readings(_ context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error) {
	f.mu.Lock()
	f.readingsCalls = append(f.readingsCalls, filter)
	f.mu.Unlock()
	if f.readings == nil {
		return []domain.RawReading{}, nil
	}
	return f.readings(filter)
}

func (f *fakeAPI) Latest(context.Context) ([]domain.RawReading, error) {
	return f.latest, f.latestErr
}

func (f *fakeAPI) calls() []domain.ReadingsFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ReadingsFilter(nil), f.readingsCalls...)
}

func fp(f float64) *float64 { return &f }

func rawAt(station string, at time.Time, cci any) domain.RawReading {
	return domain.RawReading{StationID: station, Name: "Station " + station, RecordedAt: at, CCIF: cci}
}

func newTestDashboard(api API) (*Dashboard, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return New(api, m, WithClock(clockwork.NewFakeClockAt(dashNow))), m
}

func newTestPage(api API) (*Page, *observability.Metrics) {
	d, m := newTestDashboard(api)
	return d.NewPage(), m
}

func TestLatestByStation_PrimaryPath(t *testing.T) {
	api := &fakeAPI{latest: []domain.RawReading{
		rawAt("1", dashNow.Add(-time.Hour), "80"),
		rawAt("2", dashNow.Add(-2*time.Hour), nil),
	}}
	d, m := newTestDashboard(api)

	res, err := d.LatestByStation(context.Background())

	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, res.Readings, 2)
	assert.InDelta(t, 80, *res.Readings["1"].CCIF, 0)
	assert.InDelta(t, 26.6666666, *res.Readings["1"].CCIC, 1e-6)
	assert.Nil(t, res.Readings["2"].CCIF)
	assert.Empty(t, api.calls(), "fallback must not run when latest works")
	assert.InDelta(t, 1, testutil.ToFloat64(m.LatestSource.WithLabelValues("latest")), 0)
}

func TestLatestByStation_Fallback(t *testing.T) {
	api := &fakeAPI{
		latestErr: errors.New("503"),
		readings: func(domain.ReadingsFilter) ([]domain.RawReading, error) {
			return []domain.RawReading{
				rawAt("1", dashNow.Add(-3*time.Hour), "70"),
				rawAt("1", dashNow.Add(-30*time.Minute), "71"),
				rawAt("1", dashNow.Add(30*time.Minute), "72"),
				rawAt("2", dashNow.Add(-60*time.Hour), "50"),
			}, nil
		},
	}
	d, m := newTestDashboard(api)

	res, err := d.LatestByStation(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Degraded)
	require.Len(t, res.Readings, 2)
	// Equal distance either side of now: the later reading wins.
	assert.InDelta(t, 72, *res.Readings["1"].CCIF, 0)
	assert.InDelta(t, 50, *res.Readings["2"].CCIF, 0)

	calls := api.calls()
	require.Len(t, calls, 1)
	// The whole calendar day three days back, in UTC.
	assert.Equal(t, time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC), calls[0].Start)
	assert.True(t, calls[0].End.IsZero())
	assert.Empty(t, calls[0].StationID)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LatestSource.WithLabelValues("fallback")), 0)
}

func TestLatestByStation_FallbackLookbackOption(t *testing.T) {
	api := &fakeAPI{latestErr: errors.New("down")}
	d := New(api, observability.NewMetricsForTesting(),
		WithClock(clockwork.NewFakeClockAt(dashNow)),
		WithFallbackLookback(24*time.Hour),
	)

	_, err := d.LatestByStation(context.Background())

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 14, 0, 0, 0, 0, time.UTC), api.calls()[0].Start)
}

func TestRefreshLatest_BothFailShowsFailedNotStale(t *testing.T) {
	api := &fakeAPI{latest: []domain.RawReading{rawAt("1", dashNow, "60")}}
	p, m := newTestPage(api)

	_, err := p.RefreshLatest(context.Background())
	require.NoError(t, err)
	require.Equal(t, StateReady, p.Latest.Snapshot().State)

	api.latestErr = errors.New("latest down")
	api.readings = func(domain.ReadingsFilter) ([]domain.RawReading, error) {
		return nil, errors.New("ranged down")
	}
	_, err = p.RefreshLatest(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "latest down")
	assert.Contains(t, err.Error(), "ranged down")
	snap := p.Latest.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Nil(t, snap.Value.Readings, "no stale map after total failure")
	assert.InDelta(t, 1, testutil.ToFloat64(m.LatestSource.WithLabelValues("failed")), 0)
}

func TestRefreshLatest_EmptyIsNoData(t *testing.T) {
	p, _ := newTestPage(&fakeAPI{latest: []domain.RawReading{}})

	_, err := p.RefreshLatest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateEmpty, p.Latest.Snapshot().State)
}

func TestRefresh_DefaultsToFirstStation(t *testing.T) {
	api := &fakeAPI{
		stations: []domain.Station{{ID: "9", Name: "Almira"}, {ID: "3", Name: "Prosser"}},
		latest:   []domain.RawReading{},
		readings: func(f domain.ReadingsFilter) ([]domain.RawReading, error) {
			return []domain.RawReading{
				rawAt(f.StationID, dashNow.Add(-2*time.Hour), "65.5"),
				rawAt(f.StationID, dashNow.Add(-time.Hour), "bad"),
			}, nil
		},
	}
	p, _ := newTestPage(api)
	filter := DefaultFilter(dashNow)

	used, err := p.Refresh(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, "9", used.StationID)
	require.Len(t, api.calls(), 1)
	assert.Equal(t, "9", api.calls()[0].StationID)

	snap := p.Readings.Snapshot()
	require.Equal(t, StateReady, snap.State)
	assert.Equal(t, used, snap.Value.Filter)
	require.Len(t, snap.Value.Readings, 2)
	assert.InDelta(t, 65.5, *snap.Value.Readings[0].CCIF, 0)
	assert.Nil(t, snap.Value.Readings[1].CCIF)
	assert.Equal(t, StateReady, p.Stations.Snapshot().State)
	assert.Equal(t, StateEmpty, p.Latest.Snapshot().State)
}

func TestRefresh_RegionsFailIndependently(t *testing.T) {
	api := &fakeAPI{
		stationsErr: errors.New("stations down"),
		latest:      []domain.RawReading{rawAt("1", dashNow, "70")},
		readings: func(domain.ReadingsFilter) ([]domain.RawReading, error) {
			return []domain.RawReading{rawAt("1", dashNow, "70")}, nil
		},
	}
	p, _ := newTestPage(api)
	filter := DefaultFilter(dashNow)
	filter.StationID = "1"

	_, err := p.Refresh(context.Background(), filter)

	require.Error(t, err)
	assert.Equal(t, StateFailed, p.Stations.Snapshot().State)
	assert.Equal(t, StateReady, p.Readings.Snapshot().State)
	assert.Equal(t, StateReady, p.Latest.Snapshot().State)
}

func TestRefresh_NoStationsAvailable(t *testing.T) {
	t.Run("station list failed", func(t *testing.T) {
		api := &fakeAPI{stationsErr: errors.New("down"), latest: []domain.RawReading{}}
		p, _ := newTestPage(api)

		_, err := p.Refresh(context.Background(), DefaultFilter(dashNow))

		require.Error(t, err)
		snap := p.Readings.Snapshot()
		assert.Equal(t, StateFailed, snap.State)
		assert.ErrorIs(t, snap.Err, ErrNoStation)
		assert.Empty(t, api.calls())
	})

	t.Run("station list empty", func(t *testing.T) {
		api := &fakeAPI{stations: []domain.Station{}, latest: []domain.RawReading{}}
		p, _ := newTestPage(api)

		_, err := p.Refresh(context.Background(), DefaultFilter(dashNow))

		require.NoError(t, err)
		assert.Equal(t, StateEmpty, p.Readings.Snapshot().State)
		assert.Equal(t, StateEmpty, p.Stations.Snapshot().State)
		assert.Empty(t, api.calls())
	})
}

func TestRefreshReadings_SupersededResponseIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{
		readings: func(f domain.ReadingsFilter) ([]domain.RawReading, error) {
			if f.StationID == "slow" {
				close(started)
				<-release
			}
			return []domain.RawReading{rawAt(f.StationID, dashNow, "70")}, nil
		},
	}
	p, _ := newTestPage(api)
	slow := Filter{StationID: "slow", Start: dashNow, End: dashNow}
	fast := Filter{StationID: "fast", Start: dashNow, End: dashNow}

	done := make(chan error, 1)
	go func() { done <- p.RefreshReadings(context.Background(), slow) }()
	<-started

	require.NoError(t, p.RefreshReadings(context.Background(), fast))
	close(release)
	require.NoError(t, <-done)

	snap := p.Readings.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.Equal(t, "fast", snap.Value.Filter.StationID)
	assert.Equal(t, "fast", snap.Value.Readings[0].Raw.StationID)
}

func TestRefreshStations(t *testing.T) {
	api := &fakeAPI{stations: []domain.Station{{ID: "1", Name: "Prosser"}}}
	p, _ := newTestPage(api)

	stations, err := p.RefreshStations(context.Background())

	require.NoError(t, err)
	assert.Len(t, stations, 1)
	assert.Equal(t, StateReady, p.Stations.Snapshot().State)

	api.stationsErr = errors.New("down")
	_, err = p.RefreshStations(context.Background())

	require.Error(t, err)
	snap := p.Stations.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.Nil(t, snap.Value)
}

func TestFallbackStart(t *testing.T) {
	pdt := time.FixedZone("PDT", -7*3600)
	now := time.Date(2025, 7, 15, 20, 30, 0, 0, pdt) // 2025-07-16 03:30 UTC

	assert.Equal(t, time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC), fallbackStart(now, DefaultFallbackLookback))
	assert.Equal(t, time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC), fallbackStart(now, time.Minute))
}

func TestPages_AreIndependent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{
		readings: func(f domain.ReadingsFilter) ([]domain.RawReading, error) {
			if f.StationID == "1" {
				close(started)
				<-release
			}
			return []domain.RawReading{rawAt(f.StationID, dashNow, "70")}, nil
		},
	}
	d, _ := newTestDashboard(api)
	first, second := d.NewPage(), d.NewPage()

	done := make(chan error, 1)
	go func() {
		done <- first.RefreshReadings(context.Background(), Filter{StationID: "1", Start: dashNow, End: dashNow})
	}()
	<-started

	require.NoError(t, second.RefreshReadings(context.Background(), Filter{StationID: "2", Start: dashNow, End: dashNow}))
	close(release)
	require.NoError(t, <-done)

	a, b := first.Readings.Snapshot(), second.Readings.Snapshot()
	require.Equal(t, StateReady, a.State, "a second page must not supersede the first page")
	assert.Equal(t, "1", a.Value.Readings[0].Raw.StationID)
	require.Equal(t, StateReady, b.State)
	assert.Equal(t, "2", b.Value.Readings[0].Raw.StationID)
}
