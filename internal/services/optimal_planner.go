package services

import (
	"container/heap"
	"context"
	"fmt"

	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/energy"
	"ev-route-service/internal/routegraph"
)

// OptimalPlanner runs a label-correcting shortest-path search over
// (segment boundary, state of charge) states, with charging at candidate
// stations as extra edges. It finds the globally cheapest stop plan by total
// time at a higher computational cost than the greedy walk; per-boundary
// label domination keeps the state space bounded.
type OptimalPlanner struct {
	Model  *energy.Model
	Config PlannerConfig
}

// Labels kept per boundary after domination pruning. Higher values explore
// more trade-offs between arriving fast and arriving charged.
const maxLabelsPerBoundary = 32

type searchLabel struct {
	boundary int
	charge   float64
	cost     float64
	// Stop taken at this boundary to produce the label, nil when driving
	// straight through.
	stop   *domain.ChargeStop
	parent *searchLabel
	// Lowest charge seen along the path, for plan metrics.
	minCharge float64
}

type labelHeap []*searchLabel

func (h labelHeap) Len() int           { return len(h) }
func (h labelHeap) Less(i, j int) bool { return h[i].cost < h[j].cost }
func (h labelHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *labelHeap) Push(x any)        { *h = append(*h, x.(*searchLabel)) }

func (h *labelHeap) Pop() any {
	old := *h
	n := len(old)
	l := old[n-1]
	*h = old[:n-1]
	return l
}

func (p *OptimalPlanner) Plan(
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
	if vehicle.StateOfCharge < floor {
		return nil, &domain.InfeasibleRouteError{
			SegmentIndex: 0,
			Reason:       fmt.Sprintf("state of charge %.3f below safety floor %.3f at start", vehicle.StateOfCharge, floor),
		}
	}

	consFrac, err := segmentConsumptionFractions(graph, vehicle, weather, p.Model)
	if err != nil {
		return nil, err
	}

	polyline := graph.Polyline()
	n := graph.Len()

	// Labels per boundary, pruned by domination (neither faster nor more
	// charged than an existing label).
	settled := make([][]*searchLabel, n+1)

	start := &searchLabel{charge: vehicle.StateOfCharge, minCharge: vehicle.StateOfCharge}
	open := &labelHeap{}
	heap.Init(open)
	heap.Push(open, start)

	// Track the deepest boundary reached for infeasibility reporting.
	deepest := 0

	var goal *searchLabel
	for open.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := heap.Pop(open).(*searchLabel)

		if dominated(settled[label.boundary], label) {
			continue
		}
		settled[label.boundary] = insertLabel(settled[label.boundary], label)

		if label.boundary == n {
			goal = label
			break
		}
		if label.boundary > deepest {
			deepest = label.boundary
		}

		i := label.boundary

		// Edge 1: drive the next segment unmodified.
		if after := label.charge - consFrac[i]; after >= floor {
			next := &searchLabel{
				boundary:  i + 1,
				charge:    after,
				cost:      label.cost + graph.AdjustedDuration(i),
				parent:    label,
				minCharge: minOf(label.minCharge, after),
			}
			if !dominated(settled[next.boundary], next) {
				heap.Push(open, next)
			}
		}

		// Edge 2: charge at a nearby station, then drive the segment.
		for _, cand := range p.chargeEdges(graph, vehicle, index, polyline, consFrac, i, label) {
			if !dominated(settled[cand.boundary], cand) {
				heap.Push(open, cand)
			}
		}
	}

	if goal == nil {
		return nil, &domain.InfeasibleRouteError{
			SegmentIndex: deepest,
			Reason:       "no station sequence keeps the projected charge above the safety floor",
		}
	}

	return p.buildPlan(graph, goal), nil
}

// chargeEdges expands the charging transitions available at boundary i.
// Each usable station contributes two targets: full, and just-enough-to-finish
// (the two charge policies as search branches).
func (p *OptimalPlanner) chargeEdges(
	graph *routegraph.Graph,
	vehicle domain.VehicleProfile,
	index *chargers.Index,
	polyline []domain.GeoPoint,
	consFrac []float64,
	i int,
	label *searchLabel,
) []*searchLabel {
	corridor := corridorWindow(polyline, i)
	candidates := index.NearCorridor(corridor, p.Config.CorridorRadiusM, vehicle.Connector)
	if len(candidates) == 0 {
		return nil
	}

	boundary := graph.Segment(i).Start
	floor := p.Config.SafetyFloor

	finishTarget := p.Config.SafetyFloor + p.Config.ChargeMargin
	for j := i; j < len(consFrac); j++ {
		finishTarget += consFrac[j]
	}

	out := make([]*searchLabel, 0, 2*len(candidates))
	for _, station := range candidates {
		if !p.Config.AllowRevisit && stationOnPath(label, station.ID) {
			continue
		}

		detour := domain.HaversineMeters(boundary, station.Location)
		if detour > p.Config.MaxDetourM {
			continue
		}

		detourFrac := (detour / 1000.0) * vehicle.ConsumptionKwhPerKm / vehicle.BatteryCapacityKwh
		arrival := label.charge - detourFrac
		if arrival < floor {
			continue
		}

		for _, target := range []float64{1.0, minOf(finishTarget+detourFrac, 1.0)} {
			if target <= arrival {
				continue
			}

			rejoined := target - detourFrac
			after := rejoined - consFrac[i]
			if after < floor {
				continue
			}

			dwell := (target-arrival)*vehicle.BatteryCapacityKwh/station.PowerKw*3600 + p.Config.StopOverheadSeconds
			detourSeconds := 2 * detour / p.Config.DetourSpeedMps

			stop := &domain.ChargeStop{
				Station:         station,
				BeforeSegment:   i,
				ArrivalCharge:   arrival,
				DepartureCharge: target,
				DwellSeconds:    dwell,
				DetourMeters:    detour,
			}
			out = append(out, &searchLabel{
				boundary:  i + 1,
				charge:    after,
				cost:      label.cost + detourSeconds + dwell + graph.AdjustedDuration(i),
				stop:      stop,
				parent:    label,
				minCharge: minOf(label.minCharge, minOf(arrival, after)),
			})
		}
	}
	return out
}

func (p *OptimalPlanner) buildPlan(graph *routegraph.Graph, goal *searchLabel) *domain.RoutePlan {
	var stops []domain.ChargeStop
	var chargingSeconds, detourMeters float64

	for l := goal; l != nil; l = l.parent {
		if l.stop != nil {
			stops = append([]domain.ChargeStop{*l.stop}, stops...)
			chargingSeconds += l.stop.DwellSeconds
			detourMeters += 2 * l.stop.DetourMeters
		}
	}

	return &domain.RoutePlan{
		Segments:             graph.Segments(),
		Stops:                stops,
		TotalDistanceMeters:  graph.TotalDistanceMeters() + detourMeters,
		TotalDurationSeconds: goal.cost,
		ChargingSeconds:      chargingSeconds,
		MinProjectedCharge:   goal.minCharge,
	}
}

// dominated reports whether an existing label is at least as fast and at
// least as charged as the candidate.
func dominated(existing []*searchLabel, cand *searchLabel) bool {
	for _, l := range existing {
		if l.cost <= cand.cost && l.charge >= cand.charge {
			return true
		}
	}
	return false
}

// insertLabel keeps the per-boundary label set bounded, dropping the most
// expensive labels first.
func insertLabel(existing []*searchLabel, l *searchLabel) []*searchLabel {
	existing = append(existing, l)
	if len(existing) > maxLabelsPerBoundary {
		worst := 0
		for i := 1; i < len(existing); i++ {
			if existing[i].cost > existing[worst].cost {
				worst = i
			}
		}
		existing[worst] = existing[len(existing)-1]
		existing = existing[:len(existing)-1]
	}
	return existing
}

func stationOnPath(label *searchLabel, stationID string) bool {
	for l := label; l != nil; l = l.parent {
		if l.stop != nil && l.stop.Station.ID == stationID {
			return true
		}
	}
	return false
}

func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
