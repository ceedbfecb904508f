package dashboard

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

const (
	// Placeholder for a missing value.
	Missing = "—"

	tableTimeLayout   = "2006-01-02 15:04"
	tooltipTimeLayout = "Jan 2, 03:04 PM"
	noTimeText        = "No data"
)

// FormatValue renders v with one decimal, or the placeholder.
func FormatValue(v *float64) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

type ChartPoint struct {
	Time     time.Time
	CCI      *float64
	AirTemp  *float64
	Humidity *float64
}

type Chart struct {
	StationName   string
	Zipcode       string
	CCILabel      string
	AirTempLabel  string
	HumidityLabel string
	Points        []ChartPoint
}

// BuildChart turns readings into the three series, in unit, oldest first.
func BuildChart(readings []domain.DerivedReading, unit domain.Unit) Chart {
	c := Chart{
		CCILabel:      fmt.Sprintf("Comfort Index (%s)", unit.TempSymbol()),
		AirTempLabel:  fmt.Sprintf("Air Temp (%s)", unit.TempSymbol()),
		HumidityLabel: "Humidity (%)",
		Points:        make([]ChartPoint, 0, len(readings)),
	}
	if len(readings) > 0 {
		c.StationName = readings[0].Raw.Name
		if z := readings[0].Raw.Zipcode; z != nil {
			c.Zipcode = *z
		}
	}
	for _, r := range readings {
		c.Points = append(c.Points, ChartPoint{
			Time:     r.Raw.RecordedAt,
			CCI:      r.CCI(unit),
			AirTemp:  r.AirTemp(unit),
			Humidity: r.RelHumidity,
		})
	}
	return c
}

type Table struct {
	Headers []string
	Rows    [][]string
}

// BuildTable lays readings out as the detailed table, values in unit and
// times in loc.
func BuildTable(readings []domain.DerivedReading, unit domain.Unit, loc *time.Location) Table {
	temp := unit.TempSymbol()
	headers := []string{
		"Station",
		"ZIP",
		"Date/Time",
		fmt.Sprintf("Cattle Comfort Index (%s)", temp),
		"Environment",
		fmt.Sprintf("Air Temp (%s)", temp),
		"Humidity (%)",
		"Solar Rad",
		fmt.Sprintf("Wind (%s)", unit.SpeedSymbol()),
	}
	for _, k := range domain.AdjustmentKinds {
		headers = append(headers, fmt.Sprintf("%s (%s)", k, temp))
	}

	t := Table{Headers: headers, Rows: make([][]string, 0, len(readings))}
	for _, r := range readings {
		row := []string{
			r.Raw.Name,
			deref(r.Raw.Zipcode),
			r.Raw.RecordedAt.In(location(loc)).Format(tableTimeLayout),
			FormatValue(r.CCI(unit)),
			deref(r.Raw.Environment),
			FormatValue(r.AirTemp(unit)),
			FormatValue(r.RelHumidity),
			FormatValue(r.SolarRadiation),
			FormatValue(r.WindSpeed(unit)),
		}
		for _, k := range domain.AdjustmentKinds {
			row = append(row, FormatValue(r.Adjustment(k, unit)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

type Marker struct {
	StationID string
	Name      string
	Latitude  float64
	Longitude float64
	Color     string
	Level     string
	CCI       string
	AirTemp   string
	Humidity  string
	Time      string
	HasData   bool
}

// StationsFromLatest rebuilds station entries from the rows of a latest map,
// for when the station list itself is not available. Rows carry the station's
// name and coordinates, so markers can still be placed.
func StationsFromLatest(latest map[string]domain.DerivedReading) []domain.Station {
	out := make([]domain.Station, 0, len(latest))
	for id, r := range latest {
		out = append(out, domain.Station{
			ID:        id,
			Name:      r.Raw.Name,
			Latitude:  r.Raw.Latitude,
			Longitude: r.Raw.Longitude,
			Zipcode:   r.Raw.Zipcode,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BuildMarkers returns one marker per station with coordinates. Color and
// level always come from the Fahrenheit CCI; the displayed numbers follow
// unit.
func BuildMarkers(stations []domain.Station, latest map[string]domain.DerivedReading, unit domain.Unit, loc *time.Location) []Marker {
	out := make([]Marker, 0, len(stations))
	for _, s := range stations {
		if !s.Mappable() {
			continue
		}
		m := Marker{
			StationID: s.ID,
			Name:      s.Name,
			Latitude:  *s.Latitude,
			Longitude: *s.Longitude,
			CCI:       Missing + unit.TempSymbol(),
			Time:      noTimeText,
		}
		r, ok := latest[s.ID]
		var cciF *float64
		if ok {
			cciF = r.CCIF
			m.HasData = true
			m.CCI = FormatValue(r.CCI(unit)) + unit.TempSymbol()
			m.AirTemp = FormatValue(r.AirTemp(unit)) + unit.TempSymbol()
			if r.RelHumidity != nil {
				m.Humidity = strconv.FormatFloat(*r.RelHumidity, 'f', 0, 64) + "%"
			}
			m.Time = r.Raw.RecordedAt.In(location(loc)).Format(tooltipTimeLayout)
		}
		c := domain.Classify(cciF)
		m.Color, m.Level = c.Color, c.Label
		out = append(out, m)
	}
	return out
}

type LegendEntry struct {
	Color string
	Label string
	Range string
}

func Legend() []LegendEntry {
	levels := domain.Levels()
	out := make([]LegendEntry, 0, len(levels)+1)
	for _, l := range levels {
		out = append(out, LegendEntry{Color: l.Color, Label: l.Label, Range: l.RangeText()})
	}
	return append(out, LegendEntry{Color: domain.NoDataColor, Label: domain.NoDataLabel})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
