package domain

// ChargeStop is a planned stop at a station, inserted at a segment boundary.
// Created only by the stop planner; exists only within a candidate plan.
type ChargeStop struct {
	Station ChargerStation
	// Index of the segment the vehicle charges before entering.
	BeforeSegment   int
	ArrivalCharge   float64
	DepartureCharge float64
	DwellSeconds    float64
	DetourMeters    float64
}

// RoutePlan is the unit returned to the caller: one base route with charging
// stops interleaved. Immutable once ranked.
type RoutePlan struct {
	Segments []RouteSegment
	Stops    []ChargeStop

	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	ChargingSeconds      float64
	// Lowest projected state of charge anywhere along the route.
	MinProjectedCharge float64
	CostScore          float64
}
