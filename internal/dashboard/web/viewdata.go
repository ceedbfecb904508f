package web

import (
	"errors"
	"html/template"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard/views"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

func buildPageData(p *dashboard.Page, f dashboard.Filter, now time.Time, loc *time.Location) *views.DashboardData {
	stations := p.Stations.Snapshot()
	opts := make([]views.StationOption, 0, len(stations.Value))
	for _, s := range stations.Value {
		opts = append(opts, views.StationOption{ID: s.ID, Name: s.Name, Selected: s.ID == f.StationID})
	}

	ranges := dashboard.QuickRanges()
	links := make([]views.RangeLink, 0, len(ranges))
	for _, q := range ranges {
		links = append(links, views.RangeLink{Key: q.Key, Title: q.Title, URL: query(f, "range", q.Key)})
	}

	return &views.DashboardData{
		Title:           pageTitle,
		Stations:        opts,
		StationsState:   stations.State.String(),
		Start:           f.Start.Format(dashboard.DateLayout),
		End:             f.End.Format(dashboard.DateLayout),
		Today:           now.Format(dashboard.DateLayout),
		Unit:            f.Unit.String(),
		View:            f.View.String(),
		UnitToggleURL:   query(f, "unit", f.Unit.Toggle().String()),
		UnitToggleLabel: unitToggleLabel(f.Unit),
		ViewToggleURL:   query(f, "view", f.View.Toggle().String()),
		ViewToggleLabel: viewToggleLabel(f.View),
		QuickRanges:     links,
		Readings:        buildReadingsData(p, f, loc),
		Map:             buildMapData(p, f.Unit, loc),
	}
}

func buildReadingsData(p *dashboard.Page, f dashboard.Filter, loc *time.Location) views.ReadingsData {
	snap := p.Readings.Snapshot()
	out := views.ReadingsData{State: snap.State.String(), ShowTable: f.View == dashboard.ViewTable}

	switch snap.State {
	case dashboard.StateFailed:
		out.Message = failureMessage(snap.Err)
	case dashboard.StateReady:
		out.Chart = dashboard.BuildChart(snap.Value.Readings, f.Unit)
		out.Table = dashboard.BuildTable(snap.Value.Readings, f.Unit, loc)
	}
	return out
}

func buildMapData(p *dashboard.Page, unit domain.Unit, loc *time.Location) views.MapData {
	latest := p.Latest.Snapshot()
	out := views.MapData{
		State:    latest.State.String(),
		Degraded: latest.Value.Degraded,
		Legend:   dashboard.Legend(),
	}
	if latest.State == dashboard.StateFailed {
		out.Message = failureMessage(latest.Err)
		return out
	}
	out.Markers = dashboard.BuildMarkers(mapStations(p, latest.Value), latest.Value.Readings, unit, loc)
	return out
}

// mapStations is the station list when it loaded, else the stations named by
// the latest rows.
func mapStations(p *dashboard.Page, latest dashboard.LatestResult) []domain.Station {
	stations := p.Stations.Snapshot()
	switch stations.State {
	case dashboard.StateReady, dashboard.StateEmpty:
		return stations.Value
	}
	return dashboard.StationsFromLatest(latest.Readings)
}

func failureMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, dashboard.ErrNoStation):
		return "No station is available to show."
	case dashboard.IsUnauthorized(err):
		return "The dashboard is not authorized to read comfort data."
	default:
		return "Please try again shortly."
	}
}

func query(f dashboard.Filter, overrides ...string) template.URL {
	return template.URL("?" + f.Values(overrides...).Encode())
}

func unitToggleLabel(u domain.Unit) string {
	if u == domain.Metric {
		return "Switch to English"
	}
	return "Switch to Metric"
}

func viewToggleLabel(v dashboard.View) string {
	if v == dashboard.ViewTable {
		return "Show Chart"
	}
	return "Show Table"
}
