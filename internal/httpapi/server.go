package httpapi

import (
	"net/http"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
)

func NewServer(addr string, handler http.Handler, metrics *observability.Metrics) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           RequestLogger(metrics, handler),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
