package routegraph

import (
	"testing"

	"ev-route-service/internal/domain"
)

func northboundSegments(n int) []domain.RouteSegment {
	segs := make([]domain.RouteSegment, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, domain.RouteSegment{
			Start:               domain.GeoPoint{Lat: 45.0 + float64(i)*0.1, Lon: -122.6},
			End:                 domain.GeoPoint{Lat: 45.0 + float64(i+1)*0.1, Lon: -122.6},
			DistanceMeters:      11132,
			BaseDurationSeconds: 400,
			Class:               domain.RoadClassPrimary,
		})
	}
	return segs
}

func TestNewRequiresSegments(t *testing.T) {
	if _, err := New(nil, nil, 0); err == nil {
		t.Fatal("expected error for empty segment list")
	}
}

func TestAdjustedDurationNoIncidents(t *testing.T) {
	g, err := New(northboundSegments(3), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < g.Len(); i++ {
		if got := g.AdjustedDuration(i); got != 400 {
			t.Fatalf("segment %d adjusted duration = %f, want 400", i, got)
		}
	}
}

func TestAdjustedDurationAppliesIncident(t *testing.T) {
	segs := northboundSegments(3)
	incidents := []domain.TrafficIncident{
		{
			ID:           "crash-1",
			Location:     segs[1].Start,
			RadiusMeters: 1000,
			DelayFactor:  1.5,
		},
	}

	g, err := New(segs, incidents, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Incident sits at segment 1's start, which is also segment 0's end.
	if got := g.AdjustedDuration(0); got != 600 {
		t.Fatalf("segment 0 adjusted duration = %f, want 600", got)
	}
	if got := g.AdjustedDuration(1); got != 600 {
		t.Fatalf("segment 1 adjusted duration = %f, want 600", got)
	}
	if got := g.AdjustedDuration(2); got != 400 {
		t.Fatalf("segment 2 adjusted duration = %f, want 400", got)
	}
}

func TestAdjustedDurationCapsStackedIncidents(t *testing.T) {
	segs := northboundSegments(1)
	incidents := make([]domain.TrafficIncident, 0, 5)
	for i := 0; i < 5; i++ {
		incidents = append(incidents, domain.TrafficIncident{
			ID:           "jam",
			Location:     segs[0].Start,
			RadiusMeters: 1000,
			DelayFactor:  2.0,
		})
	}

	g, err := New(segs, incidents, 3.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 2^5 = 32x uncapped; cap holds it at 3x.
	if got := g.AdjustedDuration(0); got != 1200 {
		t.Fatalf("adjusted duration = %f, want capped 1200", got)
	}
}

func TestPolyline(t *testing.T) {
	g, err := New(northboundSegments(3), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pts := g.Polyline()
	if len(pts) != 4 {
		t.Fatalf("polyline length = %d, want 4", len(pts))
	}
	if pts[0] != (domain.GeoPoint{Lat: 45.0, Lon: -122.6}) {
		t.Fatalf("unexpected first point: %+v", pts[0])
	}
}

func TestTotalDistance(t *testing.T) {
	g, err := New(northboundSegments(3), nil, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := g.TotalDistanceMeters(); got != 3*11132 {
		t.Fatalf("total distance = %f, want %f", got, 3*11132.0)
	}
}
