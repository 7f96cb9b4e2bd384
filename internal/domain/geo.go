package domain

import (
	"fmt"
	"math"
)

// Immutable geographic point (WGS84 degrees).
type GeoPoint struct {
	Lat float64
	Lon float64
}

// Validate checks that the point lies within valid WGS84 bounds.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return &InvalidInputError{Field: "lat", Reason: fmt.Sprintf("latitude %f out of range [-90,90]", p.Lat)}
	}
	if p.Lon < -180 || p.Lon > 180 {
		return &InvalidInputError{Field: "lon", Reason: fmt.Sprintf("longitude %f out of range [-180,180]", p.Lon)}
	}
	return nil
}

// Return the point as [lon, lat] for external API compatibility.
func (p GeoPoint) CoordsToList() []float64 { return []float64{p.Lon, p.Lat} }

const earthRadiusMeters = 6371000.0

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// DistanceToPolylineMeters returns the minimum distance from p to any leg of
// the polyline. An equirectangular projection around p keeps the
// point-to-segment math planar; the error is negligible at corridor scale.
func DistanceToPolylineMeters(p GeoPoint, polyline []GeoPoint) float64 {
	if len(polyline) == 0 {
		return math.MaxFloat64
	}
	if len(polyline) == 1 {
		return HaversineMeters(p, polyline[0])
	}

	cosLat := math.Cos(p.Lat * math.Pi / 180)
	px := p.Lon * cosLat
	py := p.Lat

	best := math.MaxFloat64
	for i := 0; i+1 < len(polyline); i++ {
		ax := polyline[i].Lon * cosLat
		ay := polyline[i].Lat
		bx := polyline[i+1].Lon * cosLat
		by := polyline[i+1].Lat

		d := pointSegmentDistance(px, py, ax, ay, bx, by)
		if d < best {
			best = d
		}
	}

	// Degrees back to meters (1 degree of latitude ~ 111.32 km).
	return best * 111320.0
}

func pointSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay

	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		dx = px - ax
		dy = py - ay
		return math.Sqrt(dx*dx + dy*dy)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	cx := ax + t*dx
	cy := ay + t*dy
	ex := px - cx
	ey := py - cy
	return math.Sqrt(ex*ex + ey*ey)
}
