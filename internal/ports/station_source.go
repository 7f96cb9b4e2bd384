package ports

import (
	"context"

	"ev-route-service/internal/domain"
)

// Port: a boundary for retrieving charging stations from a data source.
// The planner only reads station data; refresh happens out-of-band.
type StationSource interface {
	// Retrieve all known stations. Implementations may page internally.
	ListStations(ctx context.Context) ([]domain.ChargerStation, error)
}
