package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"ev-route-service/internal/api/dto"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/services"
)

// RouteHandler exposes the EV route computation endpoint.
type RouteHandler struct {
	Deps services.PlannerDeps
	// Bound on base-route alternatives per request.
	MaxAlternatives int
	// Per-request planning deadline.
	Timeout time.Duration
}

// Compute orchestrates route fetching, charge-stop insertion, and ranking
// for one planning request.
func (h *RouteHandler) Compute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.RouteRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	svcReq, err := buildServiceRequest(req, h.MaxAlternatives, h.Timeout)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	res, err := services.ComputeRoutes(r.Context(), svcReq, h.Deps)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	metrics.PlansComputedTotal.Add(float64(len(res.Plans)))
	writeJSON(w, r, http.StatusOK, toComputationResponse(res))
}

// buildServiceRequest applies the documented defaults and validates the
// request into service-level types.
func buildServiceRequest(req dto.RouteRequest, maxAlternatives int, timeout time.Duration) (services.ComputeRoutesRequest, error) {
	capacity := 60.0
	if req.BatteryCapacityKwh != nil {
		capacity = *req.BatteryCapacityKwh
	}

	percent := 80.0
	if req.CurrentBatteryPercent != nil {
		percent = *req.CurrentBatteryPercent
	}
	if percent < 0 || percent > 100 {
		return services.ComputeRoutesRequest{}, &domain.InvalidInputError{
			Field:  "currentBatteryPercent",
			Reason: "must be between 0 and 100",
		}
	}

	vehicleType := req.VehicleType
	if strings.TrimSpace(vehicleType) == "" {
		vehicleType = "sedan"
	}

	portType := req.PortType
	if strings.TrimSpace(portType) == "" {
		portType = "Type 2"
	}
	connector, err := domain.ParseConnector(portType)
	if err != nil {
		return services.ComputeRoutesRequest{}, err
	}

	return services.ComputeRoutesRequest{
		Origin:      domain.GeoPoint{Lat: req.Origin.Lat, Lon: req.Origin.Lon},
		Destination: domain.GeoPoint{Lat: req.Destination.Lat, Lon: req.Destination.Lon},
		Vehicle: domain.VehicleProfile{
			BatteryCapacityKwh:  capacity,
			StateOfCharge:       percent / 100.0,
			ConsumptionKwhPerKm: domain.ConsumptionForVehicleType(vehicleType),
			Connector:           connector,
		},
		MaxAlternatives: maxAlternatives,
		Timeout:         timeout,
	}, nil
}

// writeFailure maps the error taxonomy onto HTTP statuses with a structured
// body naming the failure kind.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iie *domain.InvalidInputError
		nfe *domain.NoFeasibleRouteError
		pue *domain.ProviderUnavailableError
		ire *domain.InfeasibleRouteError
	)

	switch {
	case errors.As(err, &iie):
		writeJSON(w, r, http.StatusBadRequest, dto.ErrorResponse{
			Error: "invalid input", Kind: "InvalidInputError", Detail: iie.Error(),
		})
	case errors.As(err, &nfe):
		metrics.InfeasibleRequestsTotal.Inc()
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: "no feasible route", Kind: "NoFeasibleRouteError", Detail: nfe.Error(),
		})
	case errors.As(err, &ire):
		metrics.InfeasibleRequestsTotal.Inc()
		writeJSON(w, r, http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: "infeasible route", Kind: "InfeasibleRouteError", Detail: ire.Error(),
		})
	case errors.As(err, &pue):
		writeJSON(w, r, http.StatusBadGateway, dto.ErrorResponse{
			Error: "upstream provider unavailable", Kind: "ProviderUnavailableError", Detail: pue.Source,
		})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, r, http.StatusGatewayTimeout, dto.ErrorResponse{
			Error: "planning timed out", Kind: "TimeoutError",
		})
	default:
		log.Printf("compute routes failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}

func toComputationResponse(res *services.RouteComputation) dto.RouteComputationResponse {
	out := dto.RouteComputationResponse{
		Routes:             make([]dto.RoutePlanResponse, 0, len(res.Plans)),
		ChargersAlongRoute: make([]dto.ChargerResponse, 0, len(res.Chargers)),
		TrafficIncidents:   make([]dto.TrafficIncidentResponse, 0, len(res.Incidents)),
	}

	for _, p := range res.Plans {
		out.Routes = append(out.Routes, toPlanResponse(p))
	}
	for _, c := range res.Chargers {
		out.ChargersAlongRoute = append(out.ChargersAlongRoute, toChargerResponse(c))
	}
	for _, inc := range res.Incidents {
		out.TrafficIncidents = append(out.TrafficIncidents, dto.TrafficIncidentResponse{
			ID:           inc.ID,
			Location:     dto.GeoPoint{Lat: inc.Location.Lat, Lon: inc.Location.Lon},
			RadiusMeters: inc.RadiusMeters,
			DelayFactor:  inc.DelayFactor,
			Description:  inc.Description,
		})
	}
	if res.Weather != nil {
		out.WeatherData = &dto.WeatherResponse{
			TemperatureC:      res.Weather.TemperatureC,
			WindSpeedKmh:      res.Weather.WindSpeedKmh,
			PrecipitationMmHr: res.Weather.PrecipitationMmHr,
			Summary:           res.Weather.Summary,
		}
	}
	return out
}

func toPlanResponse(p *domain.RoutePlan) dto.RoutePlanResponse {
	segments := make([]dto.SegmentResponse, 0, len(p.Segments))
	for _, s := range p.Segments {
		segments = append(segments, dto.SegmentResponse{
			Start:           dto.GeoPoint{Lat: s.Start.Lat, Lon: s.Start.Lon},
			End:             dto.GeoPoint{Lat: s.End.Lat, Lon: s.End.Lon},
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.BaseDurationSeconds,
		})
	}

	stops := make([]dto.ChargeStopResponse, 0, len(p.Stops))
	for _, st := range p.Stops {
		stops = append(stops, dto.ChargeStopResponse{
			StationID:              st.Station.ID,
			Location:               dto.GeoPoint{Lat: st.Station.Location.Lat, Lon: st.Station.Location.Lon},
			BeforeSegment:          st.BeforeSegment,
			ArrivalChargePercent:   st.ArrivalCharge * 100,
			DepartureChargePercent: st.DepartureCharge * 100,
			DwellSeconds:           st.DwellSeconds,
			DetourMeters:           st.DetourMeters,
		})
	}

	return dto.RoutePlanResponse{
		Segments:                  segments,
		ChargeStops:               stops,
		TotalDistanceMeters:       p.TotalDistanceMeters,
		TotalDurationSeconds:      p.TotalDurationSeconds,
		ChargingSeconds:           p.ChargingSeconds,
		MinProjectedChargePercent: p.MinProjectedCharge * 100,
		CostScore:                 p.CostScore,
	}
}

func toChargerResponse(c domain.ChargerStation) dto.ChargerResponse {
	connectors := make([]string, 0, len(c.Connectors))
	for _, ct := range c.Connectors {
		connectors = append(connectors, string(ct))
	}
	return dto.ChargerResponse{
		ID:         c.ID,
		Location:   dto.GeoPoint{Lat: c.Location.Lat, Lon: c.Location.Lon},
		Connectors: connectors,
		PowerKw:    c.PowerKw,
		Status:     string(c.Status),
	}
}
