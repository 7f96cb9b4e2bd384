package domain

import (
	"fmt"
	"strings"
)

// Charging connector standard.
type ConnectorType string

const (
	ConnectorType1   ConnectorType = "Type1"
	ConnectorType2   ConnectorType = "Type2"
	ConnectorCCS     ConnectorType = "CCS"
	ConnectorCHAdeMO ConnectorType = "CHAdeMO"
	ConnectorNACS    ConnectorType = "NACS"
)

// ParseConnector maps user-facing port names ("Type 2", "ccs") to a
// ConnectorType.
func ParseConnector(s string) (ConnectorType, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "type1", "j1772":
		return ConnectorType1, nil
	case "type2", "mennekes":
		return ConnectorType2, nil
	case "ccs", "ccs1", "ccs2", "combo":
		return ConnectorCCS, nil
	case "chademo":
		return ConnectorCHAdeMO, nil
	case "nacs", "tesla":
		return ConnectorNACS, nil
	}
	return "", &InvalidInputError{Field: "portType", Reason: fmt.Sprintf("unknown connector %q", s)}
}

// VehicleProfile describes the vehicle being routed. Owned by the request and
// read-only during planning.
type VehicleProfile struct {
	BatteryCapacityKwh float64
	// Fraction of capacity currently charged, in [0,1].
	StateOfCharge float64
	// Baseline draw in kWh per km on flat ground at primary-road speed.
	ConsumptionKwhPerKm float64
	Connector           ConnectorType
}

// Consumption baselines per vehicle type (kWh/km). Sedan is the fallback for
// unrecognized types.
var vehicleConsumption = map[string]float64{
	"sedan":     0.16,
	"compact":   0.14,
	"suv":       0.20,
	"truck":     0.28,
	"van":       0.24,
	"motorbike": 0.08,
}

// ConsumptionForVehicleType returns the baseline kWh/km for a vehicle type.
func ConsumptionForVehicleType(vehicleType string) float64 {
	if c, ok := vehicleConsumption[strings.ToLower(strings.TrimSpace(vehicleType))]; ok {
		return c
	}
	return vehicleConsumption["sedan"]
}

// Validate rejects profiles that cannot be planned for.
func (v VehicleProfile) Validate() error {
	if v.BatteryCapacityKwh <= 0 {
		return &InvalidInputError{Field: "batteryCapacityKwh", Reason: fmt.Sprintf("must be > 0, got %f", v.BatteryCapacityKwh)}
	}
	if v.StateOfCharge < 0 || v.StateOfCharge > 1 {
		return &InvalidInputError{Field: "currentBatteryPercent", Reason: fmt.Sprintf("state of charge %f out of range [0,1]", v.StateOfCharge)}
	}
	if v.ConsumptionKwhPerKm <= 0 {
		return &InvalidInputError{Field: "vehicleType", Reason: fmt.Sprintf("consumption must be > 0, got %f", v.ConsumptionKwhPerKm)}
	}
	if v.Connector == "" {
		return &InvalidInputError{Field: "portType", Reason: "connector type is required"}
	}
	return nil
}

// UsableEnergyKwh returns the energy currently stored in the battery.
func (v VehicleProfile) UsableEnergyKwh() float64 {
	return v.BatteryCapacityKwh * v.StateOfCharge
}
