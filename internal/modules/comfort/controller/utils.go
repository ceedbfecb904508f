package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

const dateLayout = "2006-01-02"

func parseReadingsQuery(r *http.Request) (domain.ReadingsFilter, error) {
	q := r.URL.Query()
	filter := domain.ReadingsFilter{
		StationID:   strings.TrimSpace(q.Get("station_id")),
		StationName: strings.TrimSpace(q.Get("station")),
	}

	var err error
	if s := strings.TrimSpace(q.Get("start")); s != "" {
		filter.Start, err = parseBound(s, false)
		if err != nil {
			return domain.ReadingsFilter{}, errors.New("invalid 'start' (expected RFC3339 or YYYY-MM-DD)")
		}
	}
	if s := strings.TrimSpace(q.Get("end")); s != "" {
		filter.End, err = parseBound(s, true)
		if err != nil {
			return domain.ReadingsFilter{}, errors.New("invalid 'end' (expected RFC3339 or YYYY-MM-DD)")
		}
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.Start.After(filter.End) {
		return domain.ReadingsFilter{}, errors.New("'start' must be <= 'end'")
	}
	return filter, nil
}

// parseBound accepts RFC3339 or a bare UTC date. A bare date used as an end
// bound covers the whole day.
func parseBound(s string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		return d.AddDate(0, 0, 1).Add(-time.Microsecond), nil
	}
	return d, nil
}

func parseLatestQuery(r *http.Request) (ref time.Time, window time.Duration, err error) {
	q := r.URL.Query()
	if s := strings.TrimSpace(q.Get("at")); s != "" {
		ref, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, 0, errors.New("invalid 'at' (expected RFC3339)")
		}
		ref = ref.UTC()
	}
	if s := strings.TrimSpace(q.Get("window")); s != "" {
		window, err = time.ParseDuration(s)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("invalid 'window' %q (expected duration like 72h)", s)
		}
		if window <= 0 {
			return time.Time{}, 0, errors.New("'window' must be > 0")
		}
	}
	return ref, window, nil
}
