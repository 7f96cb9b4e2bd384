package traffic

import (
	"context"

	"ev-route-service/internal/domain"
)

// MockTrafficSource returns a fixed incident list for tests.
type MockTrafficSource struct {
	IncidentList []domain.TrafficIncident
	Err          error
}

func (m *MockTrafficSource) Incidents(ctx context.Context, corridor []domain.GeoPoint) ([]domain.TrafficIncident, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.IncidentList, nil
}
