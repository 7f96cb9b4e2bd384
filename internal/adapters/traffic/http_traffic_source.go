package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ev-route-service/internal/domain"
)

// HTTPTrafficSource implements TrafficSource against an incident feed that
// accepts a bounding box and returns active incidents inside it.
type HTTPTrafficSource struct {
	session *http.Client
	baseURL string
	apiKey  string
}

func NewHTTPTrafficSource(baseURL, apiKey string) *HTTPTrafficSource {
	return &HTTPTrafficSource{
		session: &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type incidentRecord struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	RadiusM     float64 `json:"radius_m"`
	DelayFactor float64 `json:"delay_factor"`
	Description string  `json:"description"`
}

// Incidents returns the active incidents inside the corridor's bounding box.
// The feed is box-keyed; the route graph narrows hits to affected segments.
func (s *HTTPTrafficSource) Incidents(ctx context.Context, corridor []domain.GeoPoint) ([]domain.TrafficIncident, error) {
	if len(corridor) == 0 {
		return []domain.TrafficIncident{}, nil
	}

	minLat, minLon := corridor[0].Lat, corridor[0].Lon
	maxLat, maxLon := minLat, minLon
	for _, p := range corridor[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}

	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", minLon, minLat, maxLon, maxLat))
	if s.apiKey != "" {
		q.Set("key", s.apiKey)
	}

	endpoint := fmt.Sprintf("%s/incidents?%s", s.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("traffic incidents: create request: %w", err)
	}

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("traffic incidents: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("traffic incidents: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var records []incidentRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("traffic incidents: decode response: %w", err)
	}

	out := make([]domain.TrafficIncident, 0, len(records))
	for _, r := range records {
		if r.DelayFactor < 1 || r.RadiusM <= 0 {
			continue
		}
		out = append(out, domain.TrafficIncident{
			ID:           r.ID,
			Location:     domain.GeoPoint{Lat: r.Lat, Lon: r.Lon},
			RadiusMeters: r.RadiusM,
			DelayFactor:  r.DelayFactor,
			Description:  r.Description,
		})
	}
	return out, nil
}
