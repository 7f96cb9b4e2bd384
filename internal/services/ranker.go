package services

import (
	"sort"

	"ev-route-service/internal/domain"
)

// RankWeights are the coefficients of the plan cost function.
type RankWeights struct {
	// Applied to total trip duration in seconds.
	Duration float64
	// Applied to time spent charging in seconds.
	ChargingDelay float64
	// Applied to (safety floor - minimum projected charge): plans that cut
	// closer to the floor cost more. Expressed in seconds per charge
	// fraction so the terms share a unit.
	SafetyMargin float64
}

func DefaultRankWeights() RankWeights {
	return RankWeights{
		Duration:      1.0,
		ChargingDelay: 0.5,
		SafetyMargin:  3600,
	}
}

// RankPlans orders plans by ascending weighted cost; lower cost ranks first.
// The sort is stable: equal-cost plans preserve their input order. Each
// returned plan carries its computed CostScore.
func RankPlans(plans []*domain.RoutePlan, safetyFloor float64, w RankWeights) []*domain.RoutePlan {
	ranked := make([]*domain.RoutePlan, len(plans))
	copy(ranked, plans)

	for _, p := range ranked {
		p.CostScore = PlanCost(p, safetyFloor, w)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CostScore < ranked[j].CostScore
	})
	return ranked
}

// PlanCost computes the weighted cost of a single plan.
func PlanCost(p *domain.RoutePlan, safetyFloor float64, w RankWeights) float64 {
	return w.Duration*p.TotalDurationSeconds +
		w.ChargingDelay*p.ChargingSeconds +
		w.SafetyMargin*(safetyFloor-p.MinProjectedCharge)
}
