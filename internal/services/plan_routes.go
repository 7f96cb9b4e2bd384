package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"ev-route-service/internal/chargers"
	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/routegraph"

	"golang.org/x/sync/errgroup"
)

// ComputeRoutesRequest is the service-level planning request, validated and
// defaulted by the caller.
type ComputeRoutesRequest struct {
	Origin      domain.GeoPoint
	Destination domain.GeoPoint
	Vehicle     domain.VehicleProfile
	// Upper bound on base-route alternatives evaluated.
	MaxAlternatives int
	// Per-request latency bound. Candidates still running at the deadline
	// are dropped; completed ones are ranked and returned.
	Timeout time.Duration
}

// RouteComputation is the ranked planning result with the external data that
// went into it.
type RouteComputation struct {
	Plans []*domain.RoutePlan
	// Stations referenced by any returned plan, in rank order of first use.
	Chargers  []domain.ChargerStation
	Weather   *domain.WeatherSample
	Incidents []domain.TrafficIncident
}

// PlannerDeps bundles the read-only collaborators of route computation.
// Weather and Traffic may be nil; planning then proceeds on neutral data.
type PlannerDeps struct {
	Routes  ports.RouteProvider
	Index   *chargers.Index
	Weather ports.WeatherSource
	Traffic ports.TrafficSource
	Planner StopPlanner
	Config  PlannerConfig
	Weights RankWeights
}

// Bound on concurrently evaluated candidates; matched to the small number of
// alternatives a routing provider returns.
const maxConcurrentCandidates = 4

type candidateResult struct {
	plan      *domain.RoutePlan
	incidents []domain.TrafficIncident
	err       error
}

// ComputeRoutes fetches base route alternatives, inserts charging stops per
// candidate, and returns the feasible plans ranked by cost. Per-candidate
// infeasibility is filtered, not escalated; only when every candidate fails
// does the call return an error.
func ComputeRoutes(ctx context.Context, req ComputeRoutesRequest, deps PlannerDeps) (*RouteComputation, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, fmt.Errorf("compute routes: origin: %w", err)
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, fmt.Errorf("compute routes: destination: %w", err)
	}
	if err := req.Vehicle.Validate(); err != nil {
		return nil, fmt.Errorf("compute routes: vehicle: %w", err)
	}

	maxAlternatives := req.MaxAlternatives
	if maxAlternatives <= 0 {
		maxAlternatives = 3
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	weather := domain.WeatherSample{TemperatureC: 15, Summary: "unavailable"}
	var weatherUsed *domain.WeatherSample
	if deps.Weather != nil {
		w, err := retryOnce(ctx, "weather", func(ctx context.Context) (domain.WeatherSample, error) {
			return deps.Weather.Conditions(ctx, req.Origin)
		})
		if err != nil {
			return nil, &domain.ProviderUnavailableError{Source: "weather", Err: err}
		}
		weather = w
		weatherUsed = &w
	}

	baseRoutes, err := retryOnce(ctx, "routing", func(ctx context.Context) ([]ports.BaseRoute, error) {
		return deps.Routes.GetRoutes(ctx, req.Origin, req.Destination, maxAlternatives)
	})
	if err != nil {
		return nil, &domain.ProviderUnavailableError{Source: "routing", Err: err}
	}
	if len(baseRoutes) == 0 {
		return nil, &domain.NoFeasibleRouteError{Candidates: 0}
	}
	if len(baseRoutes) > maxAlternatives {
		baseRoutes = baseRoutes[:maxAlternatives]
	}

	// Candidates share no mutable state; evaluate them concurrently and
	// collect per-candidate outcomes without cancelling siblings.
	results := make([]candidateResult, len(baseRoutes))
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(maxConcurrentCandidates)

	for i, base := range baseRoutes {
		i, base := i, base
		g.Go(func() error {
			plan, incidents, err := evaluateCandidate(ctx, base, req.Vehicle, weather, deps)
			mu.Lock()
			results[i] = candidateResult{plan: plan, incidents: incidents, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	plans := make([]*domain.RoutePlan, 0, len(results))
	var incidents []domain.TrafficIncident
	var providerErr error
	infeasible := 0

	for i, res := range results {
		switch {
		case res.err == nil && res.plan != nil:
			plans = append(plans, res.plan)
			incidents = append(incidents, res.incidents...)
		case isInfeasible(res.err):
			// Recovered locally: the candidate is discarded, the rest of
			// the request proceeds.
			log.Printf("candidate=%d discarded: %v", i, res.err)
			metrics.InfeasibleCandidatesTotal.Inc()
			infeasible++
		case errors.Is(res.err, context.DeadlineExceeded) || errors.Is(res.err, context.Canceled):
			log.Printf("candidate=%d timed out", i)
		default:
			if providerErr == nil {
				providerErr = res.err
			}
		}
	}

	if len(plans) == 0 {
		if infeasible == len(baseRoutes) {
			return nil, &domain.NoFeasibleRouteError{Candidates: len(baseRoutes)}
		}
		if providerErr != nil {
			return nil, providerErr
		}
		return nil, fmt.Errorf("compute routes: no candidate completed before the deadline: %w", context.DeadlineExceeded)
	}

	ranked := RankPlans(plans, deps.Config.SafetyFloor, deps.Weights)

	return &RouteComputation{
		Plans:     ranked,
		Chargers:  referencedChargers(ranked),
		Weather:   weatherUsed,
		Incidents: incidents,
	}, nil
}

// evaluateCandidate runs one base route through traffic annotation and stop
// insertion.
func evaluateCandidate(
	ctx context.Context,
	base ports.BaseRoute,
	vehicle domain.VehicleProfile,
	weather domain.WeatherSample,
	deps PlannerDeps,
) (*domain.RoutePlan, []domain.TrafficIncident, error) {
	var incidents []domain.TrafficIncident
	if deps.Traffic != nil {
		corridor := make([]domain.GeoPoint, 0, len(base.Segments)+1)
		if len(base.Segments) > 0 {
			corridor = append(corridor, base.Segments[0].Start)
			for _, s := range base.Segments {
				corridor = append(corridor, s.End)
			}
		}

		found, err := retryOnce(ctx, "traffic", func(ctx context.Context) ([]domain.TrafficIncident, error) {
			return deps.Traffic.Incidents(ctx, corridor)
		})
		if err != nil {
			return nil, nil, &domain.ProviderUnavailableError{Source: "traffic", Err: err}
		}
		incidents = found
	}

	graph, err := routegraph.New(base.Segments, incidents, routegraph.DefaultMaxDelayMultiplier)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate candidate: %w", err)
	}

	plan, err := deps.Planner.Plan(ctx, graph, vehicle, deps.Index, weather)
	if err != nil {
		return nil, nil, err
	}
	return plan, incidents, nil
}

// referencedChargers collects the unique stations used by the ranked plans,
// preserving first-reference order.
func referencedChargers(plans []*domain.RoutePlan) []domain.ChargerStation {
	seen := make(map[string]struct{})
	out := make([]domain.ChargerStation, 0, 4)
	for _, p := range plans {
		for _, stop := range p.Stops {
			if _, ok := seen[stop.Station.ID]; ok {
				continue
			}
			seen[stop.Station.ID] = struct{}{}
			out = append(out, stop.Station)
		}
	}
	return out
}

func isInfeasible(err error) bool {
	var ire *domain.InfeasibleRouteError
	return errors.As(err, &ire)
}

// retryOnce retries a provider call a single time with a short backoff.
// Transient source hiccups get one second chance; persistent failures are
// surfaced to the caller.
func retryOnce[T any](ctx context.Context, source string, fn func(context.Context) (T, error)) (T, error) {
	out, err := fn(ctx)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return out, err
	}

	log.Printf("source=%s first attempt failed, retrying: %v", source, err)

	timer := time.NewTimer(500 * time.Millisecond)
	select {
	case <-ctx.Done():
		timer.Stop()
		return out, ctx.Err()
	case <-timer.C:
	}

	return fn(ctx)
}
