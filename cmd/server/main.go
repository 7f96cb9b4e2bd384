package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"ev-route-service/internal/adapters/routing"
	"ev-route-service/internal/adapters/stations"
	"ev-route-service/internal/adapters/traffic"
	"ev-route-service/internal/adapters/weather"
	"ev-route-service/internal/api"
	"ev-route-service/internal/chargers"
	"ev-route-service/internal/config"
	"ev-route-service/internal/energy"
	"ev-route-service/internal/platform/db"
	"ev-route-service/internal/ports"
	"ev-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, ORS, open-meteo, Redis) behind ports
// and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	cachePath := config.Get("ROUTE_CACHE_PATH", "data/route_cache.db")
	maxAlternatives := envInt("MAX_ALTERNATIVES", 3)
	planTimeout := envDuration("PLAN_TIMEOUT", 15*time.Second)

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	// Station data changes rarely; load it once at boot into the in-memory
	// spatial index.
	index, err := loadStationIndex(pg)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Station index ready stations=%d", index.Len())

	// Base routes are cached in a local SQLite file to avoid repeated
	// directions calls for popular origin/destination pairs.
	routeCacheDB, err := openRouteCache(cachePath)
	if err != nil {
		log.Fatal(err)
	}
	defer routeCacheDB.Close()

	routeCache := routing.NewSQLiteRouteCache(routeCacheDB)
	if err := routeCache.InitSchema(); err != nil {
		log.Fatal(err)
	}

	provider, err := routing.NewORSRouteProvider(orsKey, routeCache)
	if err != nil {
		log.Fatal(err)
	}

	deps := services.PlannerDeps{
		Routes:  provider,
		Index:   index,
		Weather: buildWeatherSource(),
		Traffic: buildTrafficSource(),
		Config:  buildPlannerConfig(),
		Weights: services.DefaultRankWeights(),
	}
	deps.Planner = services.NewStopPlanner(deps.Config, energy.NewModel(energy.DefaultParams()))

	router := api.NewRouter(deps, maxAlternatives, planTimeout)

	// Timeouts are tuned for cold-cache route planning (external API latency).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func loadStationIndex(pg *sql.DB) (*chargers.Index, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	source := stations.NewPostgresStationSource(pg)
	list, err := source.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load station index: %w", err)
	}
	return chargers.NewIndex(list), nil
}

func openRouteCache(path string) (*sql.DB, error) {
	cacheDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open route cache %q: %w", path, err)
	}
	if err := cacheDB.Ping(); err != nil {
		return nil, fmt.Errorf("verify route cache %q: %w", path, err)
	}
	return cacheDB, nil
}

// buildWeatherSource wraps open-meteo with a Redis cache when REDIS_ADDR is
// set. Without Redis the forecast API is hit directly.
func buildWeatherSource() ports.WeatherSource {
	inner := weather.NewOpenMeteoSource()

	redisAddr := os.Getenv("REDIS_ADDR")
	if strings.TrimSpace(redisAddr) == "" {
		return inner
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ttl := envDuration("WEATHER_CACHE_TTL", 15*time.Minute)
	return weather.NewCachedWeatherSource(inner, rdb, ttl)
}

// buildTrafficSource is nil when no incident feed is configured; planning
// then runs on base durations.
func buildTrafficSource() ports.TrafficSource {
	baseURL := os.Getenv("TRAFFIC_URL")
	if strings.TrimSpace(baseURL) == "" {
		return nil
	}
	return traffic.NewHTTPTrafficSource(baseURL, os.Getenv("TRAFFIC_API_KEY"))
}

func buildPlannerConfig() services.PlannerConfig {
	cfg := services.DefaultPlannerConfig()

	switch config.Get("CHARGE_POLICY", "minimize_stops") {
	case "minimize_time":
		cfg.Policy = services.PolicyMinimizeTime
	default:
		cfg.Policy = services.PolicyMinimizeStops
	}

	switch config.Get("PLANNER_STRATEGY", "greedy") {
	case "optimal":
		cfg.Strategy = services.StrategyOptimal
	default:
		cfg.Strategy = services.StrategyGreedy
	}

	return cfg
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using default %d", key, raw, fallback)
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return v
}
