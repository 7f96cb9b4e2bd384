package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ev-route-service/internal/adapters/routing"
	"ev-route-service/internal/adapters/traffic"
	"ev-route-service/internal/adapters/weather"
	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/energy"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/services"
)

const latStep = 10000.0 / 111320.0

func shortRoute(n int) ports.BaseRoute {
	segments := make([]domain.RouteSegment, 0, n)
	for i := 0; i < n; i++ {
		segments = append(segments, domain.RouteSegment{
			Start:               domain.GeoPoint{Lat: 45.0 + float64(i)*latStep, Lon: -122.0},
			End:                 domain.GeoPoint{Lat: 45.0 + float64(i+1)*latStep, Lon: -122.0},
			DistanceMeters:      10000,
			BaseDurationSeconds: 400,
			Class:               domain.RoadClassPrimary,
		})
	}
	return ports.BaseRoute{Segments: segments, DurationSeconds: float64(n) * 400}
}

func testHandler(provider ports.RouteProvider) *RouteHandler {
	cfg := services.DefaultPlannerConfig()
	return &RouteHandler{
		Deps: services.PlannerDeps{
			Routes:  provider,
			Index:   chargers.NewIndex(nil),
			Weather: &weather.MockWeatherSource{Sample: domain.WeatherSample{TemperatureC: 15, Summary: "clear"}},
			Traffic: &traffic.MockTrafficSource{},
			Planner: services.NewStopPlanner(cfg, energy.NewModel(energy.DefaultParams())),
			Config:  cfg,
			Weights: services.DefaultRankWeights(),
		},
		MaxAlternatives: 3,
		Timeout:         5 * time.Second,
	}
}

func postRoutes(t *testing.T, h *RouteHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/routes", bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.Compute(rec, req)
	return rec
}

func TestComputeReturnsRankedRoutes(t *testing.T) {
	provider := &routing.MockRouteProvider{Routes: []ports.BaseRoute{shortRoute(5)}}
	h := testHandler(provider)

	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 45.5, "lon": -122.0},
		"batteryCapacityKwh": 60,
		"currentBatteryPercent": 80,
		"vehicleType": "sedan",
		"portType": "CCS"
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.RouteComputationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Routes) != 1 {
		t.Fatalf("routes = %d, want 1", len(res.Routes))
	}
	if len(res.Routes[0].ChargeStops) != 0 {
		t.Errorf("charge stops = %d, want 0", len(res.Routes[0].ChargeStops))
	}
	if res.WeatherData == nil || res.WeatherData.Summary != "clear" {
		t.Errorf("weather data = %+v, want summary clear", res.WeatherData)
	}
}

func TestComputeAppliesDefaults(t *testing.T) {
	provider := &routing.MockRouteProvider{Routes: []ports.BaseRoute{shortRoute(5)}}
	h := testHandler(provider)

	// Only coordinates given: capacity, charge level, vehicle, and port all
	// fall back to documented defaults.
	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 45.5, "lon": -122.0}
	}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestComputeRejectsUnknownFields(t *testing.T) {
	h := testHandler(&routing.MockRouteProvider{})

	rec := postRoutes(t, h, `{"origin": {"lat": 45, "lon": -122}, "destinaton": {"lat": 46, "lon": -122}}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if provider := h.Deps.Routes.(*routing.MockRouteProvider); provider.Calls() != 0 {
		t.Errorf("provider calls = %d, want 0", provider.Calls())
	}
}

func TestComputeRejectsInvalidBatteryPercent(t *testing.T) {
	h := testHandler(&routing.MockRouteProvider{})

	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 45.5, "lon": -122.0},
		"currentBatteryPercent": 140
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var res dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if res.Kind != "InvalidInputError" {
		t.Errorf("kind = %q, want InvalidInputError", res.Kind)
	}
}

func TestComputeRejectsExplicitZeroCapacity(t *testing.T) {
	h := testHandler(&routing.MockRouteProvider{})

	// An explicit zero is invalid input, not a request for the default.
	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 45.5, "lon": -122.0},
		"batteryCapacityKwh": 0
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var res dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if res.Kind != "InvalidInputError" {
		t.Errorf("kind = %q, want InvalidInputError", res.Kind)
	}
	if provider := h.Deps.Routes.(*routing.MockRouteProvider); provider.Calls() != 0 {
		t.Errorf("provider calls = %d, want 0", provider.Calls())
	}
}

func TestComputeMapsNoFeasibleRouteTo422(t *testing.T) {
	// 600 km with no stations anywhere: every candidate is infeasible.
	provider := &routing.MockRouteProvider{Routes: []ports.BaseRoute{shortRoute(60)}}
	h := testHandler(provider)

	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 50.4, "lon": -122.0},
		"batteryCapacityKwh": 60,
		"currentBatteryPercent": 80,
		"portType": "CCS"
	}`)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if res.Kind != "NoFeasibleRouteError" {
		t.Errorf("kind = %q, want NoFeasibleRouteError", res.Kind)
	}
}

func TestComputeMapsProviderFailureTo502(t *testing.T) {
	provider := &routing.MockRouteProvider{Err: routing.ErrMockTransient}
	h := testHandler(provider)

	rec := postRoutes(t, h, `{
		"origin": {"lat": 45.0, "lon": -122.0},
		"destination": {"lat": 45.5, "lon": -122.0}
	}`)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "routing") {
		t.Errorf("body should name the failing source, got %s", rec.Body.String())
	}
}

func TestComputeRejectsWrongMethod(t *testing.T) {
	h := testHandler(&routing.MockRouteProvider{})

	req := httptest.NewRequest(http.MethodGet, "/routes", nil)
	rec := httptest.NewRecorder()
	h.Compute(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
