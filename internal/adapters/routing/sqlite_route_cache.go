package routing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/ports"
)

// SQLite-backed cache for base-route responses. Base geometry changes rarely;
// caching avoids burning external API quota on repeated origin/destination
// pairs.
type SQLiteRouteCache struct {
	DB *sql.DB
}

func NewSQLiteRouteCache(db *sql.DB) *SQLiteRouteCache {
	return &SQLiteRouteCache{DB: db}
}

// InitSchema creates the cache table.
func (c *SQLiteRouteCache) InitSchema() error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := c.DB.Exec(q); err != nil {
		return fmt.Errorf("route cache: init schema: %w", err)
	}
	return nil
}

// Coordinates are rounded to ~11m so nearby requests share cache entries.
func cacheKey(origin, destination domain.GeoPoint, alternatives int) string {
	return fmt.Sprintf("%.4f,%.4f|%.4f,%.4f|%d",
		origin.Lat, origin.Lon, destination.Lat, destination.Lon, alternatives)
}

// Get returns the cached routes for a request, if present.
func (c *SQLiteRouteCache) Get(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	alternatives int,
) ([]ports.BaseRoute, bool, error) {
	if c.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}

	q := `SELECT payload FROM route_cache WHERE cache_key = ?;`

	var payload string
	err := c.DB.QueryRowContext(ctx, q, cacheKey(origin, destination, alternatives)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: query: %w", err)
	}

	var routes []ports.BaseRoute
	if err := json.Unmarshal([]byte(payload), &routes); err != nil {
		return nil, false, fmt.Errorf("get route cache: parse payload: %w", err)
	}
	return routes, true, nil
}

// Put stores a route response.
func (c *SQLiteRouteCache) Put(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	alternatives int,
	routes []ports.BaseRoute,
) error {
	if c.DB == nil {
		return errors.New("route cache: db is nil")
	}

	payload, err := json.Marshal(routes)
	if err != nil {
		return fmt.Errorf("insert route cache: marshal payload: %w", err)
	}

	q := `
	INSERT OR REPLACE INTO route_cache (cache_key, payload)
	VALUES (?, ?);
	`
	if _, err := c.DB.ExecContext(ctx, q, cacheKey(origin, destination, alternatives), string(payload)); err != nil {
		return fmt.Errorf("insert route cache: exec: %w", err)
	}
	return nil
}
