package httpapi

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/utils"
)

// NewMux registers the unauthenticated routes: liveness, health and metrics.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", handleRoot)
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// MountAPI serves everything under /api/ from api, behind the API key check.
func MountAPI(mux *http.ServeMux, api http.Handler, apiKey string, metrics *observability.Metrics) {
	mux.Handle("/api/", requireAPIKey(apiKey, metrics, api))
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Backend is running!"})
}
