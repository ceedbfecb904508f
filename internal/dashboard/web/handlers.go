package web

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/dashboard/views"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/utils"
)

const pageTitle = "Cattle Comfort Index Monitor"

type Handler interface {
	RegisterRoutes(mux *http.ServeMux)
}

type handlerImpl struct {
	dash *dashboard.Dashboard
	loc  *time.Location
}

// NewHandler serves the dashboard page and its map partial. Dates and times
// are shown in loc; nil means UTC.
func NewHandler(d *dashboard.Dashboard, loc *time.Location) Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &handlerImpl{dash: d, loc: loc}
}

func (h *handlerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleDashboard)
	mux.HandleFunc("GET /partials/map", h.handleMapPartial)
	mux.HandleFunc("GET /healthz", handleHealthz)
}

func (h *handlerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := h.dash.Now().In(h.loc)
	filter := dashboard.ParseFilter(r.URL.Query(), now)

	page := h.dash.NewPage()
	used, err := page.Refresh(r.Context(), filter)
	if err != nil {
		// Failed regions render their own state; the page itself still loads.
		slog.WarnContext(r.Context(), "dashboard: refresh incomplete", "station_id", used.StationID, "error", err)
	}

	data := buildPageData(page, used, now, h.loc)
	h.render(w, r, func(out io.Writer) error { return views.RenderDashboard(out, data) })
}

func (h *handlerImpl) handleMapPartial(w http.ResponseWriter, r *http.Request) {
	unit := domain.ParseUnit(r.URL.Query().Get("unit"))
	page := h.dash.NewPage()

	var g errgroup.Group
	g.Go(func() error {
		_, err := page.RefreshStations(r.Context())
		return err
	})
	g.Go(func() error {
		_, err := page.RefreshLatest(r.Context())
		return err
	})
	if err := g.Wait(); err != nil {
		slog.WarnContext(r.Context(), "dashboard: map refresh incomplete", "error", err)
	}

	data := buildMapData(page, unit, h.loc)
	h.render(w, r, func(out io.Writer) error { return views.RenderMapPartial(out, &data) })
}

func (h *handlerImpl) render(w http.ResponseWriter, r *http.Request, fn func(io.Writer) error) {
	if err := utils.WriteHTML(w, http.StatusOK, fn); err != nil {
		slog.ErrorContext(r.Context(), "dashboard template render failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
