package routing

import (
	"context"
	"errors"
	"sync"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
)

// ErrMockTransient simulates a recoverable provider hiccup.
var ErrMockTransient = errors.New("mock route provider: transient failure")

// MockRouteProvider serves fixed base routes for tests. It records call
// counts so retry behavior can be asserted.
type MockRouteProvider struct {
	Routes []ports.BaseRoute
	Err    error
	// Fail the first FailFirst calls, then succeed.
	FailFirst int

	mu    sync.Mutex
	calls int
}

func (m *MockRouteProvider) GetRoutes(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	maxAlternatives int,
) ([]ports.BaseRoute, error) {
	m.mu.Lock()
	m.calls++
	calls := m.calls
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if calls <= m.FailFirst {
		return nil, ErrMockTransient
	}

	if len(m.Routes) > maxAlternatives {
		return m.Routes[:maxAlternatives], nil
	}
	return m.Routes, nil
}

// Calls returns how many times GetRoutes was invoked.
func (m *MockRouteProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
