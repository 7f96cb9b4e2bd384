package domain

// Road class of a segment as reported by the routing provider.
// The class implies a typical cruising speed and with it a consumption factor.
type RoadClass string

const (
	RoadClassMotorway RoadClass = "motorway"
	RoadClassTrunk    RoadClass = "trunk"
	RoadClassPrimary  RoadClass = "primary"
	RoadClassUrban    RoadClass = "urban"
)

// One ordered edge of a base route as supplied by the external routing
// provider. Immutable once produced; the planner never rewrites geometry.
type RouteSegment struct {
	Start               GeoPoint
	End                 GeoPoint
	DistanceMeters      float64
	BaseDurationSeconds float64
	ElevationDeltaM     float64
	Class               RoadClass
}
