package weather

import (
	"context"

	"ev-route-service/internal/domain"
)

// MockWeatherSource returns a fixed sample for tests.
type MockWeatherSource struct {
	Sample domain.WeatherSample
	Err    error
}

func (m *MockWeatherSource) Conditions(ctx context.Context, at domain.GeoPoint) (domain.WeatherSample, error) {
	if m.Err != nil {
		return domain.WeatherSample{}, m.Err
	}
	return m.Sample, nil
}
