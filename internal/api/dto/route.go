package dto

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteRequest uses pointers for the numeric battery fields so an omitted
// value (defaulted) can be told apart from an explicit zero (rejected).
type RouteRequest struct {
	Origin                GeoPoint `json:"origin"`
	Destination           GeoPoint `json:"destination"`
	BatteryCapacityKwh    *float64 `json:"batteryCapacityKwh"`
	CurrentBatteryPercent *float64 `json:"currentBatteryPercent"`
	VehicleType           string   `json:"vehicleType"`
	PortType              string   `json:"portType"`
}

type ChargeStopResponse struct {
	StationID              string   `json:"stationId"`
	Location               GeoPoint `json:"location"`
	BeforeSegment          int      `json:"beforeSegment"`
	ArrivalChargePercent   float64  `json:"arrivalChargePercent"`
	DepartureChargePercent float64  `json:"departureChargePercent"`
	DwellSeconds           float64  `json:"dwellSeconds"`
	DetourMeters           float64  `json:"detourMeters"`
}

type SegmentResponse struct {
	Start           GeoPoint `json:"start"`
	End             GeoPoint `json:"end"`
	DistanceMeters  float64  `json:"distanceMeters"`
	DurationSeconds float64  `json:"durationSeconds"`
}

type RoutePlanResponse struct {
	Segments                  []SegmentResponse    `json:"segments"`
	ChargeStops               []ChargeStopResponse `json:"chargeStops"`
	TotalDistanceMeters       float64              `json:"totalDistanceMeters"`
	TotalDurationSeconds      float64              `json:"totalDurationSeconds"`
	ChargingSeconds           float64              `json:"chargingSeconds"`
	MinProjectedChargePercent float64              `json:"minProjectedChargePercent"`
	CostScore                 float64              `json:"costScore"`
}

type ChargerResponse struct {
	ID         string   `json:"id"`
	Location   GeoPoint `json:"location"`
	Connectors []string `json:"connectors"`
	PowerKw    float64  `json:"powerKw"`
	Status     string   `json:"status"`
}

type WeatherResponse struct {
	TemperatureC      float64 `json:"temperatureC"`
	WindSpeedKmh      float64 `json:"windSpeedKmh"`
	PrecipitationMmHr float64 `json:"precipitationMmHr"`
	Summary           string  `json:"summary"`
}

type TrafficIncidentResponse struct {
	ID           string   `json:"id"`
	Location     GeoPoint `json:"location"`
	RadiusMeters float64  `json:"radiusMeters"`
	DelayFactor  float64  `json:"delayFactor"`
	Description  string   `json:"description"`
}

type RouteComputationResponse struct {
	Routes             []RoutePlanResponse       `json:"routes"`
	ChargersAlongRoute []ChargerResponse         `json:"chargersAlongRoute"`
	WeatherData        *WeatherResponse          `json:"weatherData,omitempty"`
	TrafficIncidents   []TrafficIncidentResponse `json:"trafficIncidents"`
}
