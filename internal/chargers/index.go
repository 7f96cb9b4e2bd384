package chargers

import (
	"math"
	"sort"

	"ev-route-service/internal/domain"
)

// Index is a read-only spatial index over charging stations, bucketed into
// fixed geographic grid cells. Corridor queries touch only the cells the
// corridor passes through instead of scanning the global station set.
//
// The index is immutable after construction; refreshes swap in a new Index.
type Index struct {
	cellSizeDeg float64
	cells       map[cellKey][]domain.ChargerStation
	count       int
}

type cellKey struct {
	latCell int
	lonCell int
}

// Cell size of ~0.1 degree keeps buckets around 11 km tall, comfortably
// larger than typical corridor radii so a query touches few cells.
const defaultCellSizeDeg = 0.1

func NewIndex(stations []domain.ChargerStation) *Index {
	idx := &Index{
		cellSizeDeg: defaultCellSizeDeg,
		cells:       make(map[cellKey][]domain.ChargerStation),
	}

	for _, s := range stations {
		if s.Location.Validate() != nil {
			continue
		}
		k := idx.keyFor(s.Location)
		idx.cells[k] = append(idx.cells[k], s)
		idx.count++
	}

	return idx
}

// Len returns the number of indexed stations.
func (idx *Index) Len() int { return idx.count }

func (idx *Index) keyFor(p domain.GeoPoint) cellKey {
	return cellKey{
		latCell: int(math.Floor(p.Lat / idx.cellSizeDeg)),
		lonCell: int(math.Floor(p.Lon / idx.cellSizeDeg)),
	}
}

// lonCellRadius converts the search radius to longitude cells at the given
// latitude. A longitude cell covers cos(lat) fewer meters than a latitude
// cell, so high-latitude scans need a wider east-west window. The cosine is
// clamped so near-polar queries stay bounded.
func (idx *Index) lonCellRadius(lat, radiusM float64) int {
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.05 {
		cosLat = 0.05
	}
	return int(math.Ceil(radiusM/(111320.0*cosLat)/idx.cellSizeDeg)) + 1
}

// NearCorridor returns stations within radiusM of the corridor polyline that
// support the given connector, nearest-to-corridor first, ties broken by
// higher charging power. Busy stations are excluded; Unknown availability is
// kept (best-effort data must not starve planning). An empty result is a
// planning condition, never an error.
func (idx *Index) NearCorridor(
	corridor []domain.GeoPoint,
	radiusM float64,
	connector domain.ConnectorType,
) []domain.ChargerStation {
	if len(corridor) == 0 || radiusM <= 0 {
		return []domain.ChargerStation{}
	}

	// Expand each corridor point by the radius (in cells) and collect the
	// covered buckets. Longitude degrees shrink toward the poles, so the
	// east-west window is widened per point by cos(lat).
	latCellRadius := int(math.Ceil(radiusM/111320.0/idx.cellSizeDeg)) + 1

	visited := make(map[cellKey]struct{})
	seen := make(map[string]struct{})

	type scored struct {
		station domain.ChargerStation
		dist    float64
	}
	matches := make([]scored, 0, 16)

	for _, p := range corridor {
		center := idx.keyFor(p)
		lonCellRadius := idx.lonCellRadius(p.Lat, radiusM)
		for dLat := -latCellRadius; dLat <= latCellRadius; dLat++ {
			for dLon := -lonCellRadius; dLon <= lonCellRadius; dLon++ {
				k := cellKey{latCell: center.latCell + dLat, lonCell: center.lonCell + dLon}
				if _, ok := visited[k]; ok {
					continue
				}
				visited[k] = struct{}{}

				for _, s := range idx.cells[k] {
					if _, ok := seen[s.ID]; ok {
						continue
					}
					seen[s.ID] = struct{}{}

					if s.Status == domain.AvailabilityBusy {
						continue
					}
					if !s.SupportsConnector(connector) {
						continue
					}

					d := domain.DistanceToPolylineMeters(s.Location, corridor)
					if d <= radiusM {
						matches = append(matches, scored{station: s, dist: d})
					}
				}
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		if matches[i].station.PowerKw != matches[j].station.PowerKw {
			return matches[i].station.PowerKw > matches[j].station.PowerKw
		}
		// Final tie-breaker keeps ordering deterministic across runs.
		return matches[i].station.ID < matches[j].station.ID
	})

	out := make([]domain.ChargerStation, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.station)
	}
	return out
}
