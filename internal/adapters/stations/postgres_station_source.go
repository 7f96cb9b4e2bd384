package stations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ev-route-service/internal/domain"
)

// Postgres-backed implementation of the StationSource port. Station data is
// refreshed out-of-band (see cmd/dbtool); planning only reads it.
type PostgresStationSource struct{ DB *sql.DB }

func NewPostgresStationSource(db *sql.DB) *PostgresStationSource {
	return &PostgresStationSource{DB: db}
}

// Return all stations stored in the database.
func (s *PostgresStationSource) ListStations(ctx context.Context) ([]domain.ChargerStation, error) {
	if s.DB == nil {
		return nil, errors.New("postgres station source: DB is nil")
	}

	query := `
	SELECT
		station_id,
		lat,
		lon,
		power_kw,
		status,
		connectors
	FROM charger_stations
	ORDER BY station_id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stations: query charger_stations table: %w", err)
	}
	defer rows.Close()

	stations := make([]domain.ChargerStation, 0, 256)
	for rows.Next() {
		var (
			id, status, connectors string
			lat, lon, powerKw      float64
		)
		if err := rows.Scan(&id, &lat, &lon, &powerKw, &status, &connectors); err != nil {
			return nil, fmt.Errorf("list stations: scan row: %w", err)
		}

		stations = append(stations, domain.ChargerStation{
			ID:         id,
			Location:   domain.GeoPoint{Lat: lat, Lon: lon},
			PowerKw:    powerKw,
			Status:     parseAvailability(status),
			Connectors: parseConnectorList(connectors),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stations: row iteration: %w", err)
	}

	return stations, nil
}

func parseAvailability(s string) domain.Availability {
	switch domain.Availability(s) {
	case domain.AvailabilityAvailable, domain.AvailabilityBusy:
		return domain.Availability(s)
	default:
		return domain.AvailabilityUnknown
	}
}

// Connectors are stored as a comma-separated list; unknown entries are
// dropped rather than failing the whole snapshot.
func parseConnectorList(csv string) []domain.ConnectorType {
	parts := strings.Split(csv, ",")
	out := make([]domain.ConnectorType, 0, len(parts))
	for _, p := range parts {
		ct, err := domain.ParseConnector(p)
		if err != nil {
			continue
		}
		out = append(out, ct)
	}
	return out
}
