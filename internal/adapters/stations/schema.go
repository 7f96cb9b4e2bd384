package stations

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the charger station schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	q := `
	CREATE TABLE IF NOT EXISTS charger_stations (
		station_id TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		power_kw DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'Unknown',
		connectors TEXT NOT NULL
	);
	`
	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("init schema: create charger_stations: %w", err)
	}

	idx := `
	CREATE INDEX IF NOT EXISTS idx_charger_stations_lat_lon
	ON charger_stations (lat, lon);
	`
	if _, err := db.Exec(idx); err != nil {
		return fmt.Errorf("init schema: create location index: %w", err)
	}

	return nil
}

type StationSeed struct {
	StationID  string   `json:"station_id"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	PowerKw    float64  `json:"power_kw"`
	Status     string   `json:"status"`
	Connectors []string `json:"connectors"`
}

// Populate the database with station data from a JSON file.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed stations: read %q: %w", jsonPath, err)
	}

	var data []StationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed stations: parse json: %w", err)
	}

	for i, item := range data {
		if strings.TrimSpace(item.StationID) == "" {
			return fmt.Errorf("seed stations: empty station_id at index %d", i)
		}
		if item.PowerKw <= 0 {
			return fmt.Errorf("seed stations: station %q: power_kw must be > 0, got %f", item.StationID, item.PowerKw)
		}
		if len(item.Connectors) == 0 {
			return fmt.Errorf("seed stations: station %q: at least one connector is required", item.StationID)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed stations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO charger_stations (station_id, lat, lon, power_kw, status, connectors)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (station_id) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		power_kw = EXCLUDED.power_kw,
		status = EXCLUDED.status,
		connectors = EXCLUDED.connectors;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed stations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range data {
		status := s.Status
		if status == "" {
			status = "Unknown"
		}
		if _, err := stmt.Exec(s.StationID, s.Lat, s.Lon, s.PowerKw, status, strings.Join(s.Connectors, ",")); err != nil {
			return fmt.Errorf("seed stations: insert station_id=%q: %w", s.StationID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed stations: commit tx: %w", err)
	}

	return nil
}
