package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// BaseRoute is one raw road-network alternative from the external routing
// provider, before any charging stops are inserted.
type BaseRoute struct {
	Segments []domain.RouteSegment
	// Provider-reported end-to-end duration, used to bound how many
	// alternatives we evaluate.
	DurationSeconds float64
}

// Contract for retrieving base route alternatives between two points.
type RouteProvider interface {
	// Return up to maxAlternatives base routes, best (shortest provider
	// duration) first.
	GetRoutes(ctx context.Context, origin, destination domain.GeoPoint, maxAlternatives int) ([]BaseRoute, error)
}
