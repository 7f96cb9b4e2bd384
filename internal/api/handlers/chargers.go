package handlers

import (
	"net/http"
	"strconv"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
)

// DefaultChargerRadiusMeters bounds the lookup when the client omits radius_m.
const DefaultChargerRadiusMeters = 10000.0

// ChargerHandler serves point lookups against the in-memory station index.
type ChargerHandler struct {
	Index *chargers.Index
}

// List returns stations near a point, nearest first. Query parameters:
// lat, lon (required), radius_m, connector.
func (h *ChargerHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lat must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "lon must be a number")
		return
	}

	at := domain.GeoPoint{Lat: lat, Lon: lon}
	if err := at.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, "coordinates out of range")
		return
	}

	radius := DefaultChargerRadiusMeters
	if raw := q.Get("radius_m"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 {
			writeError(w, r, http.StatusBadRequest, "radius_m must be a positive number")
			return
		}
	}

	connector := domain.ConnectorType("")
	if raw := q.Get("connector"); raw != "" {
		connector, err = domain.ParseConnector(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "unknown connector type")
			return
		}
	}

	stations := h.Index.NearCorridor([]domain.GeoPoint{at}, radius, connector)

	res := dto.ListChargersResponse{Chargers: make([]dto.ChargerResponse, 0, len(stations))}
	for _, s := range stations {
		res.Chargers = append(res.Chargers, toChargerResponse(s))
	}
	writeJSON(w, r, http.StatusOK, res)
}
