package controller

import (
	"errors"
	"net/http"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/modules/comfort/service"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/utils"
)

const unavailableMessage = "comfort data is temporarily unavailable"

func (c *comfortControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.ListStations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *comfortControllerImpl) handleReadings(w http.ResponseWriter, r *http.Request) {
	filter, err := parseReadingsQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := c.service.QueryReadings(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, readings)
}

func (c *comfortControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	ref, window, err := parseLatestQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, err := c.service.QueryLatestPerStation(r.Context(), ref, window)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, latest)
}

// writeServiceError never leaks the store error to the client; the service
// has already logged it.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, service.ErrUnavailable) {
		utils.WriteError(w, http.StatusServiceUnavailable, unavailableMessage)
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, "internal error")
}
