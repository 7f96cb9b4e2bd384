package routegraph

import (
	"errors"

	"ev-route-service/internal/domain"
)

// Graph wraps one externally supplied base route: an ordered segment sequence
// plus the traffic incidents affecting it. Immutable after construction.
type Graph struct {
	segments      []domain.RouteSegment
	incidents     []domain.TrafficIncident
	maxMultiplier float64
	// Per-segment delay multipliers, resolved once at construction.
	delayFactors []float64
}

// Cap on the combined incident multiplier per segment. Stacked incidents on
// the same stretch would otherwise blow the duration up without bound.
const DefaultMaxDelayMultiplier = 3.0

// New builds a Graph over the given segments. Incident delay factors below 1
// are ignored; the combined factor per segment is capped at maxMultiplier.
func New(segments []domain.RouteSegment, incidents []domain.TrafficIncident, maxMultiplier float64) (*Graph, error) {
	if len(segments) == 0 {
		return nil, errors.New("route graph: at least one segment is required")
	}
	if maxMultiplier < 1 {
		maxMultiplier = DefaultMaxDelayMultiplier
	}

	segs := make([]domain.RouteSegment, len(segments))
	copy(segs, segments)

	g := &Graph{
		segments:      segs,
		incidents:     append([]domain.TrafficIncident(nil), incidents...),
		maxMultiplier: maxMultiplier,
	}
	g.delayFactors = g.resolveDelayFactors()

	return g, nil
}

func (g *Graph) resolveDelayFactors() []float64 {
	factors := make([]float64, len(g.segments))

	for i, seg := range g.segments {
		factor := 1.0
		for _, inc := range g.incidents {
			if inc.DelayFactor <= 1 || inc.RadiusMeters <= 0 {
				continue
			}
			// An incident affects a segment when either endpoint falls
			// inside its radius.
			if domain.HaversineMeters(seg.Start, inc.Location) <= inc.RadiusMeters ||
				domain.HaversineMeters(seg.End, inc.Location) <= inc.RadiusMeters {
				factor *= inc.DelayFactor
			}
		}
		if factor > g.maxMultiplier {
			factor = g.maxMultiplier
		}
		factors[i] = factor
	}

	return factors
}

// Len returns the segment count.
func (g *Graph) Len() int { return len(g.segments) }

// Segment returns the i-th segment.
func (g *Graph) Segment(i int) domain.RouteSegment { return g.segments[i] }

// Segments returns a copy of the segment sequence.
func (g *Graph) Segments() []domain.RouteSegment {
	return append([]domain.RouteSegment(nil), g.segments...)
}

// Incidents returns the incidents attached to this route.
func (g *Graph) Incidents() []domain.TrafficIncident {
	return append([]domain.TrafficIncident(nil), g.incidents...)
}

// AdjustedDuration returns the segment's base duration scaled by the capped
// incident delay factor.
func (g *Graph) AdjustedDuration(i int) float64 {
	return g.segments[i].BaseDurationSeconds * g.delayFactors[i]
}

// TotalDistanceMeters sums segment distances.
func (g *Graph) TotalDistanceMeters() float64 {
	var total float64
	for _, s := range g.segments {
		total += s.DistanceMeters
	}
	return total
}

// Polyline returns the route geometry as an ordered point sequence.
func (g *Graph) Polyline() []domain.GeoPoint {
	pts := make([]domain.GeoPoint, 0, len(g.segments)+1)
	pts = append(pts, g.segments[0].Start)
	for _, s := range g.segments {
		pts = append(pts, s.End)
	}
	return pts
}
