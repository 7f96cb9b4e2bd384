package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Contract for retrieving current weather for the region around a point.
type WeatherSource interface {
	Conditions(ctx context.Context, at domain.GeoPoint) (domain.WeatherSample, error)
}
