package services

import (
	"context"
	"errors"
	"testing"

	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/energy"
)

func optimalPlanner(cfg PlannerConfig) *OptimalPlanner {
	cfg.Strategy = StrategyOptimal
	return &OptimalPlanner{Model: energy.NewModel(energy.DefaultParams()), Config: cfg}
}

func TestOptimalPlanNoStopsWhenDestinationInRange(t *testing.T) {
	g := longRoute(t, 5)
	p := optimalPlanner(DefaultPlannerConfig())

	plan, err := p.Plan(context.Background(), g, planVehicle(0.2), chargers.NewIndex(nil), mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Stops) != 0 {
		t.Fatalf("expected zero stops, got %d", len(plan.Stops))
	}
	if plan.TotalDurationSeconds != 5*400 {
		t.Fatalf("duration = %f, want 2000", plan.TotalDurationSeconds)
	}
}

func TestOptimalPlanInsertsStop(t *testing.T) {
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

	p := optimalPlanner(DefaultPlannerConfig())
	plan, err := p.Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(plan.Stops) == 0 {
		t.Fatal("expected at least one charge stop")
	}
	if plan.MinProjectedCharge < DefaultPlannerConfig().SafetyFloor {
		t.Fatalf("min projected charge %f below floor", plan.MinProjectedCharge)
	}
	for i := 1; i < len(plan.Stops); i++ {
		if plan.Stops[i].BeforeSegment <= plan.Stops[i-1].BeforeSegment {
			t.Fatal("stops out of segment order")
		}
	}
}

func TestOptimalPlanNoWorseThanGreedy(t *testing.T) {
	g := longRoute(t, 30)
	idx := chargers.NewIndex([]domain.ChargerStation{
		{
			ID:         "st-180",
			Location:   routeBoundary(18),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    150,
			Status:     domain.AvailabilityAvailable,
		},
		{
			ID:         "st-160-slow",
			Location:   routeBoundary(16),
			Connectors: []domain.ConnectorType{domain.ConnectorType2},
			PowerKw:    50,
			Status:     domain.AvailabilityAvailable,
		},
	})

	greedyPlan, err := greedyPlanner(DefaultPlannerConfig()).Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("greedy: unexpected error: %v", err)
	}

	optimalPlan, err := optimalPlanner(DefaultPlannerConfig()).Plan(context.Background(), g, planVehicle(0.2333), idx, mildWeather())
	if err != nil {
		t.Fatalf("optimal: unexpected error: %v", err)
	}

	// The greedy solution is inside the optimal search space, so the
	// optimal result can only match or beat it on total time.
	if optimalPlan.TotalDurationSeconds > greedyPlan.TotalDurationSeconds+1 {
		t.Fatalf("optimal plan slower than greedy: %f > %f",
			optimalPlan.TotalDurationSeconds, greedyPlan.TotalDurationSeconds)
	}
}

func TestOptimalPlanInfeasibleWithoutStations(t *testing.T) {
	g := longRoute(t, 30)
	p := optimalPlanner(DefaultPlannerConfig())

	_, err := p.Plan(context.Background(), g, planVehicle(0.2333), chargers.NewIndex(nil), mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
}

func TestOptimalPlanFailsImmediatelyBelowFloor(t *testing.T) {
	g := longRoute(t, 5)
	v := planVehicle(0.2)
	v.StateOfCharge = 0.05

	_, err := optimalPlanner(DefaultPlannerConfig()).Plan(context.Background(), g, v, nil, mildWeather())

	var ire *domain.InfeasibleRouteError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InfeasibleRouteError, got %v", err)
	}
	if ire.SegmentIndex != 0 {
		t.Fatalf("expected failure at segment 0, got %d", ire.SegmentIndex)
	}
}
