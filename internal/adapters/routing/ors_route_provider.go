package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"ev-route-service/internal/domain"
	"ev-route-service/internal/platform/metrics"
	"ev-route-service/internal/platform/obs"
	"ev-route-service/internal/ports"
)

// ORSRouteProvider implements RouteProvider using the OpenRouteService
// directions endpoint.
//
// It coordinates:
//   - Alternative-route requests with elevation data
//   - Persistent response caching
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	cache   *SQLiteRouteCache
}

func NewORSRouteProvider(apiKey string, cache *SQLiteRouteCache) (*ORSRouteProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSRouteProvider{
		session: &http.Client{Timeout: 15 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
		cache:   cache,
	}, nil
}

type directionsRequest struct {
	Coordinates       [][]float64        `json:"coordinates"`
	AlternativeRoutes *alternativeRoutes `json:"alternative_routes,omitempty"`
	Elevation         bool               `json:"elevation"`
}

type alternativeRoutes struct {
	TargetCount int `json:"target_count"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			// [lon, lat, ele] triples with elevation enabled.
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Chunk raw geometry into segments of roughly this length. The planner works
// at segment-boundary granularity; meter-scale geometry steps would only
// inflate the walk.
const targetSegmentMeters = 2000.0

// GetRoutes fetches up to maxAlternatives routes between origin and
// destination.
func (o *ORSRouteProvider) GetRoutes(
	ctx context.Context,
	origin, destination domain.GeoPoint,
	maxAlternatives int,
) (_ []ports.BaseRoute, err error) {
	defer obs.Time(ctx, "ors.GetRoutes")(&err)

	if err := origin.Validate(); err != nil {
		return nil, fmt.Errorf("get ORS routes: origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return nil, fmt.Errorf("get ORS routes: destination: %w", err)
	}
	if maxAlternatives < 1 {
		maxAlternatives = 1
	}

	// Check the persistent cache before issuing an external API call.
	if o.cache != nil {
		cached, ok, err := o.cache.Get(ctx, origin, destination, maxAlternatives)
		if err != nil {
			return nil, fmt.Errorf("get ORS routes: route cache: %w", err)
		}
		if ok {
			metrics.RouteCacheHitsTotal.Inc()
			return cached, nil
		}
		metrics.RouteCacheMissesTotal.Inc()
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s/geojson", o.baseURL, o.profile)

	bodyObj := directionsRequest{
		Coordinates: [][]float64{origin.CoordsToList(), destination.CoordsToList()},
		Elevation:   true,
	}
	if maxAlternatives > 1 {
		bodyObj.AlternativeRoutes = &alternativeRoutes{TargetCount: maxAlternatives}
	}

	payload, err := json.Marshal(bodyObj)
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues("ors", "error").Inc()
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	metrics.ProviderRequestsTotal.WithLabelValues("ors", "ok").Inc()
	defer resp.Body.Close()

	var parsed directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	routes := make([]ports.BaseRoute, 0, len(parsed.Features))
	for i, f := range parsed.Features {
		segments, err := segmentsFromGeometry(f.Geometry.Coordinates, f.Properties.Summary.Duration)
		if err != nil {
			return nil, fmt.Errorf("route alternative %d: %w", i, err)
		}
		routes = append(routes, ports.BaseRoute{
			Segments:        segments,
			DurationSeconds: f.Properties.Summary.Duration,
		})
	}

	if o.cache != nil && len(routes) > 0 {
		if err := o.cache.Put(ctx, origin, destination, maxAlternatives, routes); err != nil {
			log.Printf("route cache write failed: %v", err)
		}
	}

	return routes, nil
}

// segmentsFromGeometry chunks a [lon, lat, ele] coordinate sequence into
// route segments of roughly targetSegmentMeters, distributing the total
// duration by distance share.
func segmentsFromGeometry(coords [][]float64, totalDuration float64) ([]domain.RouteSegment, error) {
	if len(coords) < 2 {
		return nil, errors.New("geometry needs at least 2 coordinates")
	}

	type rawPoint struct {
		pt  domain.GeoPoint
		ele float64
	}

	pts := make([]rawPoint, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, errors.New("geometry coordinate needs lon and lat")
		}
		p := rawPoint{pt: domain.GeoPoint{Lat: c[1], Lon: c[0]}}
		if len(c) >= 3 {
			p.ele = c[2]
		}
		pts = append(pts, p)
	}

	var totalDistance float64
	for i := 0; i+1 < len(pts); i++ {
		totalDistance += domain.HaversineMeters(pts[i].pt, pts[i+1].pt)
	}
	if totalDistance == 0 {
		return nil, errors.New("geometry has zero length")
	}

	segments := make([]domain.RouteSegment, 0, int(totalDistance/targetSegmentMeters)+1)

	chunkStart := pts[0]
	var chunkDistance float64
	for i := 1; i < len(pts); i++ {
		chunkDistance += domain.HaversineMeters(pts[i-1].pt, pts[i].pt)

		last := i == len(pts)-1
		if chunkDistance >= targetSegmentMeters || last {
			duration := totalDuration * chunkDistance / totalDistance
			segments = append(segments, domain.RouteSegment{
				Start:               chunkStart.pt,
				End:                 pts[i].pt,
				DistanceMeters:      chunkDistance,
				BaseDurationSeconds: duration,
				ElevationDeltaM:     pts[i].ele - chunkStart.ele,
				Class:               classifyBySpeed(chunkDistance, duration),
			})
			chunkStart = pts[i]
			chunkDistance = 0
		}
	}

	return segments, nil
}

// classifyBySpeed infers a road class from the segment's implied speed. ORS
// does not expose way classes in the summary, so speed is the usable proxy.
func classifyBySpeed(distanceM, durationS float64) domain.RoadClass {
	if durationS <= 0 {
		return domain.RoadClassPrimary
	}
	mps := distanceM / durationS
	switch {
	case mps >= 25:
		return domain.RoadClassMotorway
	case mps >= 19:
		return domain.RoadClassTrunk
	case mps >= 12:
		return domain.RoadClassPrimary
	default:
		return domain.RoadClassUrban
	}
}
