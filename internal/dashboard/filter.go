package dashboard

import (
	"net/url"
	"strings"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

const DateLayout = "2006-01-02"

type View int

const (
	ViewGraph View = iota
	ViewTable
)

func ParseView(s string) View {
	switch s {
	case "table", "list":
		return ViewTable
	default:
		return ViewGraph
	}
}

func (v View) String() string {
	if v == ViewTable {
		return "table"
	}
	return "graph"
}

func (v View) Toggle() View {
	if v == ViewTable {
		return ViewGraph
	}
	return ViewTable
}

// Filter is what the viewer picked. Start and End are calendar days at
// midnight in the display location; both are inclusive.
type Filter struct {
	StationID string
	Start     time.Time
	End       time.Time
	Unit      domain.Unit
	View      View
}

// QuickRange is a preset date range ending today.
type QuickRange struct {
	Key    string
	Title  string
	days   int
	months int
}

var quickRanges = []QuickRange{
	{Key: "1D", Title: "Last 24 hours", days: 1},
	{Key: "1W", Title: "Last 7 days", days: 7},
	{Key: "1M", Title: "Last month", months: 1},
	{Key: "6M", Title: "Last 6 months", months: 6},
}

func QuickRanges() []QuickRange {
	out := make([]QuickRange, len(quickRanges))
	copy(out, quickRanges)
	return out
}

// Apply returns the range's start and end days for today.
func (q QuickRange) Apply(now time.Time) (start, end time.Time) {
	end = day(now)
	return end.AddDate(0, -q.months, -q.days), end
}

// DefaultFilter covers yesterday through today in now's location.
func DefaultFilter(now time.Time) Filter {
	end := day(now)
	return Filter{Start: end.AddDate(0, 0, -1), End: end}
}

// ParseFilter reads a filter from query parameters. Anything missing or
// malformed falls back to the default; a quick range key overrides explicit
// dates; reversed dates are swapped.
func ParseFilter(q url.Values, now time.Time) Filter {
	f := DefaultFilter(now)
	f.StationID = strings.TrimSpace(q.Get("station_id"))
	f.Unit = domain.ParseUnit(q.Get("unit"))
	f.View = ParseView(q.Get("view"))

	if key := q.Get("range"); key != "" {
		for _, r := range quickRanges {
			if r.Key == key {
				f.Start, f.End = r.Apply(now)
				return f
			}
		}
	}
	if t, err := time.ParseInLocation(DateLayout, q.Get("start"), now.Location()); err == nil {
		f.Start = t
	}
	if t, err := time.ParseInLocation(DateLayout, q.Get("end"), now.Location()); err == nil {
		f.End = t
	}
	if f.Start.After(f.End) {
		f.Start, f.End = f.End, f.Start
	}
	return f
}

// Query is the API filter for f: from the first instant of Start to the last
// instant of End.
func (f Filter) Query() domain.ReadingsFilter {
	return domain.ReadingsFilter{
		StationID: f.StationID,
		Start:     f.Start,
		End:       f.End.AddDate(0, 0, 1).Add(-time.Microsecond),
	}
}

// Values encodes f as query parameters, optionally overriding some.
func (f Filter) Values(overrides ...string) url.Values {
	v := url.Values{}
	if f.StationID != "" {
		v.Set("station_id", f.StationID)
	}
	v.Set("start", f.Start.Format(DateLayout))
	v.Set("end", f.End.Format(DateLayout))
	v.Set("unit", f.Unit.String())
	v.Set("view", f.View.String())
	for i := 0; i+1 < len(overrides); i += 2 {
		v.Set(overrides[i], overrides[i+1])
	}
	return v
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
