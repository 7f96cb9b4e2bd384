package services

import (
	"context"
	"fmt"

	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/energy"
	"ev-route-service/internal/routegraph"
)

// ChargePolicy selects how much energy each stop adds.
type ChargePolicy string

const (
	// Charge to full capacity at every stop, minimizing the stop count.
	PolicyMinimizeStops ChargePolicy = "minimize_stops"
	// Charge just enough to finish the route above the floor plus a margin,
	// minimizing time plugged in.
	PolicyMinimizeTime ChargePolicy = "minimize_time"
)

// Strategy selects the stop-insertion algorithm.
type Strategy string

const (
	StrategyGreedy  Strategy = "greedy"
	StrategyOptimal Strategy = "optimal"
)

// PlannerConfig carries the tunables shared by all planner strategies.
type PlannerConfig struct {
	// Minimum acceptable projected state of charge anywhere along the route.
	SafetyFloor float64
	// Radius of the corridor searched for candidate stations.
	CorridorRadiusM float64
	// Hard cap on the one-way detour to a station.
	MaxDetourM float64
	// Assumed detour driving speed for time accounting.
	DetourSpeedMps float64
	// Fixed per-stop overhead (parking, plugging in, payment).
	StopOverheadSeconds float64
	// Extra charge fraction added on top of "just enough" under
	// PolicyMinimizeTime.
	ChargeMargin float64
	Policy       ChargePolicy
	Strategy     Strategy
	// Permit planning two stops at the same station (round trips).
	AllowRevisit bool
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		SafetyFloor:         0.10,
		CorridorRadiusM:     10000,
		MaxDetourM:          10000,
		DetourSpeedMps:      13.9,
		StopOverheadSeconds: 300,
		ChargeMargin:        0.05,
		Policy:              PolicyMinimizeStops,
		Strategy:            StrategyGreedy,
	}
}

// StopPlanner inserts charging stops into a base route so the projected state
// of charge never drops below the safety floor.
type StopPlanner interface {
	Plan(
		ctx context.Context,
		graph *routegraph.Graph,
		vehicle domain.VehicleProfile,
		index *chargers.Index,
		weather domain.WeatherSample,
	) (*domain.RoutePlan, error)
}

// NewStopPlanner returns the planner implementation selected by the config's
// Strategy.
func NewStopPlanner(cfg PlannerConfig, model *energy.Model) StopPlanner {
	if cfg.Strategy == StrategyOptimal {
		return &OptimalPlanner{Model: model, Config: cfg}
	}
	return &GreedyPlanner{Model: model, Config: cfg}
}

// GreedyPlanner walks the segment sequence and inserts a stop right before
// the first segment whose traversal would breach the floor. The station choice
// is locally optimal (minimum detour plus dwell); the trade against a global
// search keeps complexity at O(segments x candidates) on long routes.
type GreedyPlanner struct {
	Model  *energy.Model
	Config PlannerConfig
}

func (p *GreedyPlanner) Plan(
	ctx context.Context,
	graph *routegraph.Graph,
	vehicle domain.VehicleProfile,
	index *chargers.Index,
	weather domain.WeatherSample,
) (*domain.RoutePlan, error) {
	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	floor := p.Config.SafetyFloor
	charge := vehicle.StateOfCharge

	// A vehicle already below the floor has no valid starting state; fail
	// before touching the charger index.
	if charge < floor {
		return nil, &domain.InfeasibleRouteError{
			SegmentIndex: 0,
			Reason:       fmt.Sprintf("state of charge %.3f below safety floor %.3f at start", charge, floor),
		}
	}

	consFrac, err := segmentConsumptionFractions(graph, vehicle, weather, p.Model)
	if err != nil {
		return nil, err
	}

	polyline := graph.Polyline()

	var (
		stops           []domain.ChargeStop
		usedStations    = map[string]struct{}{}
		minCharge       = charge
		totalDistance   float64
		totalDuration   float64
		chargingSeconds float64
	)

	for i := 0; i < graph.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		projected := charge - consFrac[i]
		if projected < floor {
			stop, newCharge, err := p.insertStop(graph, vehicle, index, polyline, consFrac, i, charge, usedStations)
			if err != nil {
				return nil, err
			}

			stops = append(stops, stop)
			usedStations[stop.Station.ID] = struct{}{}

			detourSeconds := 2 * stop.DetourMeters / p.Config.DetourSpeedMps
			totalDistance += 2 * stop.DetourMeters
			totalDuration += detourSeconds + stop.DwellSeconds
			chargingSeconds += stop.DwellSeconds

			if stop.ArrivalCharge < minCharge {
				minCharge = stop.ArrivalCharge
			}

			charge = newCharge
			projected = charge - consFrac[i]
			if projected < floor {
				return nil, &domain.InfeasibleRouteError{
					SegmentIndex: i,
					Reason:       "segment consumption exceeds usable capacity even after a full charge",
				}
			}
		}

		charge = projected
		if charge < minCharge {
			minCharge = charge
		}

		totalDistance += graph.Segment(i).DistanceMeters
		totalDuration += graph.AdjustedDuration(i)
	}

	return &domain.RoutePlan{
		Segments:             graph.Segments(),
		Stops:                stops,
		TotalDistanceMeters:  totalDistance,
		TotalDurationSeconds: totalDuration,
		ChargingSeconds:      chargingSeconds,
		MinProjectedCharge:   minCharge,
	}, nil
}

// insertStop picks the best reachable station near the boundary before
// segment i and computes the charge amount for the configured policy. It
// returns the stop and the state of charge after rejoining the route.
func (p *GreedyPlanner) insertStop(
	graph *routegraph.Graph,
	vehicle domain.VehicleProfile,
	index *chargers.Index,
	polyline []domain.GeoPoint,
	consFrac []float64,
	segIdx int,
	charge float64,
	used map[string]struct{},
) (domain.ChargeStop, float64, error) {
	corridor := corridorWindow(polyline, segIdx)
	candidates := index.NearCorridor(corridor, p.Config.CorridorRadiusM, vehicle.Connector)

	boundary := graph.Segment(segIdx).Start
	floor := p.Config.SafetyFloor

	var (
		best       domain.ChargerStation
		bestScore  = -1.0
		bestDetour float64
		bestDwell  float64
		bestTarget float64
		bestArrive float64
	)

	for _, station := range candidates {
		if _, ok := used[station.ID]; ok && !p.Config.AllowRevisit {
			continue
		}

		detour := domain.HaversineMeters(boundary, station.Location)
		if detour > p.Config.MaxDetourM {
			continue
		}

		// Energy spent per detour leg, as a capacity fraction.
		detourFrac := (detour / 1000.0) * vehicle.ConsumptionKwhPerKm / vehicle.BatteryCapacityKwh

		arrival := charge - detourFrac
		if arrival < floor {
			// Station is unreachable without breaching the floor on the way in.
			continue
		}

		target := p.chargeTarget(consFrac, segIdx, detourFrac)
		if target <= arrival {
			target = arrival
		}

		dwell := (target-arrival)*vehicle.BatteryCapacityKwh/station.PowerKw*3600 + p.Config.StopOverheadSeconds
		score := 2*detour/p.Config.DetourSpeedMps + dwell

		if bestScore < 0 || score < bestScore {
			best = station
			bestScore = score
			bestDetour = detour
			bestDwell = dwell
			bestTarget = target
			bestArrive = arrival
		}
	}

	if bestScore < 0 {
		return domain.ChargeStop{}, 0, &domain.InfeasibleRouteError{
			SegmentIndex: segIdx,
			Reason: fmt.Sprintf(
				"no compatible station within %.0fm of route corridor",
				p.Config.CorridorRadiusM,
			),
		}
	}

	detourFrac := (bestDetour / 1000.0) * vehicle.ConsumptionKwhPerKm / vehicle.BatteryCapacityKwh
	rejoined := bestTarget - detourFrac

	stop := domain.ChargeStop{
		Station:         best,
		BeforeSegment:   segIdx,
		ArrivalCharge:   bestArrive,
		DepartureCharge: bestTarget,
		DwellSeconds:    bestDwell,
		DetourMeters:    bestDetour,
	}
	return stop, rejoined, nil
}

// chargeTarget computes the departure state of charge for a stop inserted
// before segment segIdx.
func (p *GreedyPlanner) chargeTarget(consFrac []float64, segIdx int, returnDetourFrac float64) float64 {
	if p.Config.Policy == PolicyMinimizeStops {
		return 1.0
	}

	// PolicyMinimizeTime: just enough to finish the remaining route above
	// the floor, plus margin. If that exceeds capacity a later stop will be
	// inserted on the walk.
	needed := returnDetourFrac + p.Config.SafetyFloor + p.Config.ChargeMargin
	for i := segIdx; i < len(consFrac); i++ {
		needed += consFrac[i]
	}
	if needed > 1.0 {
		needed = 1.0
	}
	return needed
}

// corridorWindow returns the stretch of polyline around the boundary before
// segment segIdx used for the charger search. A bounded window keeps corridor
// queries cheap on long routes.
func corridorWindow(polyline []domain.GeoPoint, segIdx int) []domain.GeoPoint {
	const window = 3

	lo := segIdx - window
	if lo < 0 {
		lo = 0
	}
	hi := segIdx + window
	if hi > len(polyline)-1 {
		hi = len(polyline) - 1
	}
	return polyline[lo : hi+1]
}

// segmentConsumptionFractions precomputes each segment's consumption as a
// fraction of battery capacity.
func segmentConsumptionFractions(
	graph *routegraph.Graph,
	vehicle domain.VehicleProfile,
	weather domain.WeatherSample,
	model *energy.Model,
) ([]float64, error) {
	out := make([]float64, graph.Len())
	for i := 0; i < graph.Len(); i++ {
		kwh, err := model.Consumption(graph.Segment(i), vehicle, weather)
		if err != nil {
			return nil, fmt.Errorf("plan stops: segment %d consumption: %w", i, err)
		}
		out[i] = kwh / vehicle.BatteryCapacityKwh
	}
	return out, nil
}
