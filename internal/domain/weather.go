package domain

// Weather snapshot for the region a route passes through. Used only as a
// multiplier on energy consumption; never mutated by the planner.
type WeatherSample struct {
	TemperatureC      float64
	WindSpeedKmh      float64
	PrecipitationMmHr float64
	Summary           string
}

// Traffic incident attached to a stretch of a route corridor. Used only as a
// multiplier on segment duration.
type TrafficIncident struct {
	ID           string
	Location     GeoPoint
	RadiusMeters float64
	// Duration multiplier for affected segments, >= 1.
	DelayFactor float64
	Description string
}
