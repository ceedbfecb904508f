package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/domain"
)

// QueryService is the read side the handlers depend on.
type QueryService interface {
	ListStations(ctx context.Context) ([]domain.Station, error)
	QueryReadings(ctx context.Context, filter domain.ReadingsFilter) ([]domain.RawReading, error)
	QueryLatestPerStation(ctx context.Context, ref time.Time, window time.Duration) ([]domain.RawReading, error)
}

type ComfortController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type comfortControllerImpl struct {
	service QueryService
}

func NewComfortController(service QueryService) ComfortController {
	return &comfortControllerImpl{service: service}
}

func (c *comfortControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stations", c.handleStations)
	mux.HandleFunc("GET /api/comfort", c.handleReadings)
	mux.HandleFunc("GET /api/comfort/latest", c.handleLatest)
}
