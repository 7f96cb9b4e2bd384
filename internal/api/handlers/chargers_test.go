package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
)

func chargerTestIndex() *chargers.Index {
	return chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-near",
			Location:   domain.GeoPoint{Lat: 45.001, Lon: -122.0},
			Connectors: []domain.ConnectorType{domain.ConnectorCCS},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
		{
			ID:         "st-far",
			Location:   domain.GeoPoint{Lat: 45.05, Lon: -122.0},
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    50,
			Status:     domain.AvailabilityAvailable,
		},
	})
}

func getChargers(t *testing.T, h *ChargerHandler, query string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/chargers?"+query, nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	return rec
}

func TestListChargersNearestFirst(t *testing.T) {
	h := &ChargerHandler{Index: chargerTestIndex()}

	rec := getChargers(t, h, "lat=45.0&lon=-122.0&radius_m=20000")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ListChargersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Chargers) != 2 {
		t.Fatalf("chargers = %d, want 2", len(res.Chargers))
	}
	if res.Chargers[0].ID != "st-near" {
		t.Errorf("first charger = %q, want st-near", res.Chargers[0].ID)
	}
}

func TestListChargersFiltersByConnector(t *testing.T) {
	h := &ChargerHandler{Index: chargerTestIndex()}

	rec := getChargers(t, h, "lat=45.0&lon=-122.0&radius_m=20000&connector=ccs")

	var res dto.ListChargersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Chargers) != 1 || res.Chargers[0].ID != "st-near" {
		t.Fatalf("chargers = %+v, want only st-near", res.Chargers)
	}
}

func TestListChargersRejectsMissingCoordinates(t *testing.T) {
	h := &ChargerHandler{Index: chargerTestIndex()}

	rec := getChargers(t, h, "lon=-122.0")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListChargersRejectsBadRadius(t *testing.T) {
	h := &ChargerHandler{Index: chargerTestIndex()}

	rec := getChargers(t, h, "lat=45.0&lon=-122.0&radius_m=-5")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
