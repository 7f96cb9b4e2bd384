package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Contract for retrieving traffic incidents affecting a route corridor.
type TrafficSource interface {
	Incidents(ctx context.Context, corridor []domain.GeoPoint) ([]domain.TrafficIncident, error)
}
