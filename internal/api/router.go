package api

import (
	"net/http"
	"time"

	"ev-route-service/internal/api/handlers"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps services.PlannerDeps, maxAlternatives int, timeout time.Duration) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{
		Deps:            deps,
		MaxAlternatives: maxAlternatives,
		Timeout:         timeout,
	}
	chargerHandler := &handlers.ChargerHandler{Index: deps.Index}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/routes", routeHandler.Compute)
	mux.HandleFunc("/chargers", chargerHandler.List)
	mux.Handle("/metrics", metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
