package domain

// Best-effort availability of a charging station. Staleness is acceptable;
// availability never carries a correctness invariant.
type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilityBusy      Availability = "Busy"
	AvailabilityUnknown   Availability = "Unknown"
)

// ChargerStation is a read-only snapshot of one charging location for a
// single planning run.
type ChargerStation struct {
	ID         string
	Location   GeoPoint
	Connectors []ConnectorType
	PowerKw    float64
	Status     Availability
}

// SupportsConnector reports whether the station offers the given connector.
// An empty connector matches any station.
func (s ChargerStation) SupportsConnector(ct ConnectorType) bool {
	if ct == "" {
		return true
	}
	for _, c := range s.Connectors {
		if c == ct {
			return true
		}
	}
	return false
}
