package views

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard"
)

//go:embed templates
var viewsFS embed.FS

var dashboardTmpl *template.Template

// displayLocation is used by fmtTime; set by LoadTemplates.
var displayLocation = time.UTC

func funcs() template.FuncMap {
	return template.FuncMap{
		"fmtValue": dashboard.FormatValue,
		"fmtTime": func(t time.Time) string {
			return t.In(displayLocation).Format("2006-01-02 15:04")
		},
		"safeCSS": func(s string) template.CSS {
			return template.CSS("background-color: " + s)
		},
	}
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	dashboardTmpl, err = template.New("dashboard").Funcs(funcs()).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	return nil
}

// LoadTemplates loads embedded dashboard templates and sets the zone times
// are shown in. Call during startup before serving requests; if it returns
// an error, do not start the server.
func LoadTemplates(loc *time.Location) error {
	if loc != nil {
		displayLocation = loc
	}
	return loadTemplatesFromFS(viewsFS, "templates")
}

type StationOption struct {
	ID       string
	Name     string
	Selected bool
}

type RangeLink struct {
	Key   string
	Title string
	URL   template.URL
}

// ReadingsData is the chart or table region.
type ReadingsData struct {
	State     string
	Message   string
	ShowTable bool
	Chart     dashboard.Chart
	Table     dashboard.Table
}

// MapData is the latest-per-station map region.
type MapData struct {
	State    string
	Message  string
	Degraded bool
	Markers  []dashboard.Marker
	Legend   []dashboard.LegendEntry
}

type DashboardData struct {
	Title         string
	Stations      []StationOption
	StationsState string

	Start string
	End   string
	Today string
	Unit  string
	View  string

	UnitToggleURL   template.URL
	UnitToggleLabel string
	ViewToggleURL   template.URL
	ViewToggleLabel string
	QuickRanges     []RangeLink

	Readings ReadingsData
	Map      MapData
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderMapPartial executes only the map partial, for refreshing the map
// without reloading the page.
func RenderMapPartial(w io.Writer, data *MapData) error {
	if dashboardTmpl == nil {
		return errors.New("map template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "partials/map.html", data)
}
