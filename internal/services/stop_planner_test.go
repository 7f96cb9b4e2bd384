package services

import (
	"context"
	"errors"
	"testing"

	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/energy"
	"ev-route-service/internal/routegraph"
)

// Degrees of latitude per 10 km, for building straight northbound routes.
const latPer10Km = 10000.0 / 111320.0

// longRoute builds a straight route of n 10-km primary-road segments
// starting at (45.0, -122.6).
func longRoute(t *testing.T, n int) *routegraph.Graph {
	t.Helper()

	segs := make([]domain.RouteSegment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, domain.RouteSegment{
			Start:               domain.GeoPoint{Lat: 45.0 + float64(i)*latPer10Km, Lon: -122.6},
			End:                 domain.GeoPoint{Lat: 45.0 + float64(i+1)*latPer10Km, Lon: -122.6},
			DistanceMeters:      10000,
			BaseDurationSeconds: 400,
			Class:               domain.RoadClassPrimary,
		})
	}

	g, err := routegraph.New(segs, nil, 0)
	if err != nil {
		t.Fatalf("build route graph: %v", err)
	}
	return g
}

// routeBoundary returns the geographic point at the start of segment i on a
// longRoute.
func routeBoundary(i int) domain.GeoPoint {
	return domain.GeoPoint{Lat: 45.0 + float64(i)*latPer10Km, Lon: -122.6}
}

func planVehicle(consumptionKwhPerKm float64) domain.VehicleProfile {
	return domain.VehicleProfile{
		BatteryCapacityKwh:  60,
		StateOfCharge:       0.8,
		ConsumptionKwhPerKm: consumptionKwhPerKm,
		Connector:           domain.ConnectorType2,
	}
}

func mildWeather() domain.WeatherSample {
	return domain.WeatherSample{TemperatureC: 15}
}

func greedyPlanner(cfg PlannerConfig) *GreedyPlanner {
	return &GreedyPlanner{Model: energy.NewModel(energy.DefaultParams()), Config: cfg}
}

func TestPlanNoStopsWhenDestinationInRange(t *testing.T) {
	// 50 km at 0.2 kWh/km = 10 kWh needed against 48 kWh usable.
	g := longRoute(t, 5)
	p := greedyPlanner(DefaultPlannerConfig())

	plan, err := p.Plan(context.Background(), g, planVehicle(0.2), chargers.NewIndex(nil), mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Stops) != 0 {
		t.Fatalf("expected zero charge stops, got %d", len(plan.Stops))
	}
	if plan.MinProjectedCharge < DefaultPlannerConfig().SafetyFloor {
		t.Fatalf("min projected charge %f below floor", plan.MinProjectedCharge)
	}
	if plan.TotalDurationSeconds != 5*400 {
		t.Fatalf("duration = %f, want 2000", plan.TotalDurationSeconds)
	}
}

func TestPlanInfeasibleWithoutStations(t *testing.T) {
	// 300 km at 0.2333 kWh/km = ~70 kWh needed against 48 kWh usable, and
	// nothing to charge at.
	g := longRoute(t, 30)
	p := greedyPlanner(DefaultPlannerConfig())

	_, err := p.Plan(context.Background(), g, planVehicle(0.2333), chargers.NewIndex(nil), mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
	// Projected charge first drops below the floor traversing segment 18
	// (around km 180).
	if ire.SegmentIndex != 18 {
		t.Fatalf("feasibility broke at segment %d, want 18", ire.SegmentIndex)
	}
}

func TestPlanInsertsSingleStop(t *testing.T) {
	g := longRoute(t, 30)

	// Compatible fast charger sitting on the route at km 180.
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-180",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
	})

	p := greedyPlanner(DefaultPlannerConfig())
	plan, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Stops) != 1 {
		t.Fatalf("expected exactly one charge stop, got %d", len(plan.Stops))
	}
	stop := plan.Stops[0]
	if stop.Station.ID != "st-180" {
		t.Fatalf("unexpected station %q", stop.Station.ID)
	}
	if stop.BeforeSegment != 18 {
		t.Fatalf("stop before segment %d, want 18", stop.BeforeSegment)
	}
	// PolicyMinimizeStops charges to full; the remaining 120 km stay well
	// above the floor.
	if stop.DepartureCharge != 1.0 {
		t.Fatalf("departure charge = %f, want 1.0", stop.DepartureCharge)
	}
	if plan.MinProjectedCharge < DefaultPlannerConfig().SafetyFloor {
		t.Fatalf("min projected charge %f below floor", plan.MinProjectedCharge)
	}
	if plan.ChargingSeconds <= 0 {
		t.Fatal("expected nonzero charging time")
	}
}

func TestPlanMinimizeTimeChargesLess(t *testing.T) {
	g := longRoute(t, 30)
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-180",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
	})

	cfg := DefaultPlannerConfig()
	cfg.Policy = PolicyMinimizeTime
	p := greedyPlanner(cfg)

	plan, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Stops) != 1 {
		t.Fatalf("expected one stop, got %d", len(plan.Stops))
	}
	if got := plan.Stops[0].DepartureCharge; got >= 1.0 {
		t.Fatalf("minimize_time should not charge to full, got %f", got)
	}
	if plan.MinProjectedCharge < cfg.SafetyFloor {
		t.Fatalf("min projected charge %f below floor", plan.MinProjectedCharge)
	}

	// The same route under minimize_stops spends longer plugged in.
	cfg2 := DefaultPlannerConfig()
	full, err := greedyPlanner(cfg2).Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.ChargingSeconds >= full.ChargingSeconds {
		t.Fatalf("minimize_time charging %f should be less than minimize_stops %f",
			plan.ChargingSeconds, full.ChargingSeconds)
	}
}

func TestPlanFailsImmediatelyBelowFloor(t *testing.T) {
	g := longRoute(t, 5)
	v := planVehicle(0.2)
	v.StateOfCharge = 0.05

	p := greedyPlanner(DefaultPlannerConfig())

	// A nil index proves no charger queries happen: touching it would panic.
	_, err := p.Plan(context.Background(), g, v, nil, mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
	if ire.SegmentIndex != 0 {
		t.Fatalf("expected failure at segment 0, got %d", ire.SegmentIndex)
	}
}

func TestPlanStopsOrderedBySegment(t *testing.T) {
	// 600 km: long enough to need more than one stop.
	g := longRoute(t, 60)
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-a",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
		{
			ID:         "st-b",
			Location:   routeBoundary(41),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
	})

	p := greedyPlanner(DefaultPlannerConfig())
	plan, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Stops) < 2 {
		t.Fatalf("expected at least 2 stops, got %d", len(plan.Stops))
	}
	for i := 1; i < len(plan.Stops); i++ {
		if plan.Stops[i].BeforeSegment <= plan.Stops[i-1].BeforeSegment {
			t.Fatalf("stops out of order: segment %d after %d",
				plan.Stops[i].BeforeSegment, plan.Stops[i-1].BeforeSegment)
		}
	}
	if plan.MinProjectedCharge < DefaultPlannerConfig().SafetyFloor {
		t.Fatalf("min projected charge %f below floor", plan.MinProjectedCharge)
	}
}

func TestPlanSkipsIncompatibleConnector(t *testing.T) {
	g := longRoute(t, 30)
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "chademo-only",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorCHAdeMO},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
	})

	p := greedyPlanner(DefaultPlannerConfig())
	_, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
}

func TestPlanRejectsStationRevisit(t *testing.T) {
	// One station early on a very long route: the first stop works, a
	// revisit is disallowed, so the route becomes infeasible further out.
	g := longRoute(t, 60)
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-only",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
	})

	p := greedyPlanner(DefaultPlannerConfig())
	_, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
	if ire.SegmentIndex <= 18 {
		t.Fatalf("expected failure past the first stop, got segment %d", ire.SegmentIndex)
	}
}
