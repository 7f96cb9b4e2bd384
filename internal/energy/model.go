package energy

import (
	"fmt"

	"ev-route-service/internal/domain"
)

// Tunable coefficients of the consumption model.
type Params struct {
	// Extra energy per meter climbed (drivetrain + mass lift).
	LiftKwhPerMeter float64
	// Fraction of lift energy recovered on descent via regen braking.
	RegenEfficiency float64
	// Temperature below which battery chemistry and cabin heating start
	// costing extra, and the per-degree surcharge.
	ColdThresholdC  float64
	ColdPenaltyPerC float64
	// Surcharges per km/h of wind and per mm/h of precipitation.
	WindPenaltyPerKmh    float64
	PrecipPenaltyPerMmHr float64
	// Upper bound on the combined weather multiplier.
	MaxWeatherMultiplier float64
}

func DefaultParams() Params {
	return Params{
		LiftKwhPerMeter:      0.006,
		RegenEfficiency:      0.6,
		ColdThresholdC:       15,
		ColdPenaltyPerC:      0.008,
		WindPenaltyPerKmh:    0.002,
		PrecipPenaltyPerMmHr: 0.015,
		MaxWeatherMultiplier: 1.8,
	}
}

// Consumption factors implied by road class (speed profile drag).
var roadClassFactor = map[domain.RoadClass]float64{
	domain.RoadClassMotorway: 1.15,
	domain.RoadClassTrunk:    1.05,
	domain.RoadClassPrimary:  1.0,
	domain.RoadClassUrban:    0.9,
}

// Model converts segment geometry, vehicle characteristics, and weather into
// energy consumption. Deterministic: identical inputs always yield identical
// output.
type Model struct {
	params Params
}

func NewModel(params Params) *Model {
	return &Model{params: params}
}

// Consumption returns the energy in kWh needed to traverse one segment.
// Downhill regen may offset part of the draw but a segment never generates
// net energy.
func (m *Model) Consumption(
	seg domain.RouteSegment,
	vehicle domain.VehicleProfile,
	weather domain.WeatherSample,
) (float64, error) {
	if seg.DistanceMeters < 0 {
		return 0, &domain.InvalidInputError{
			Field:  "segment.distance",
			Reason: fmt.Sprintf("must be >= 0, got %f", seg.DistanceMeters),
		}
	}
	if vehicle.BatteryCapacityKwh <= 0 {
		return 0, &domain.InvalidInputError{
			Field:  "batteryCapacityKwh",
			Reason: fmt.Sprintf("must be > 0, got %f", vehicle.BatteryCapacityKwh),
		}
	}

	factor, ok := roadClassFactor[seg.Class]
	if !ok {
		factor = 1.0
	}

	base := (seg.DistanceMeters / 1000.0) * vehicle.ConsumptionKwhPerKm * factor
	base *= m.WeatherMultiplier(weather)

	if seg.ElevationDeltaM > 0 {
		base += seg.ElevationDeltaM * m.params.LiftKwhPerMeter
	} else if seg.ElevationDeltaM < 0 {
		base += seg.ElevationDeltaM * m.params.LiftKwhPerMeter * m.params.RegenEfficiency
	}

	if base < 0 {
		base = 0
	}
	return base, nil
}

// ProjectedRangeKm estimates how far the vehicle can drive on its current
// charge under the given weather, assuming flat primary roads.
func (m *Model) ProjectedRangeKm(vehicle domain.VehicleProfile, weather domain.WeatherSample) (float64, error) {
	if vehicle.BatteryCapacityKwh <= 0 {
		return 0, &domain.InvalidInputError{
			Field:  "batteryCapacityKwh",
			Reason: fmt.Sprintf("must be > 0, got %f", vehicle.BatteryCapacityKwh),
		}
	}
	if vehicle.ConsumptionKwhPerKm <= 0 {
		return 0, &domain.InvalidInputError{
			Field:  "consumptionKwhPerKm",
			Reason: fmt.Sprintf("must be > 0, got %f", vehicle.ConsumptionKwhPerKm),
		}
	}

	perKm := vehicle.ConsumptionKwhPerKm * m.WeatherMultiplier(weather)
	return vehicle.UsableEnergyKwh() / perKm, nil
}

// WeatherMultiplier returns the combined weather factor applied to baseline
// consumption, always >= 1 and capped at MaxWeatherMultiplier.
func (m *Model) WeatherMultiplier(w domain.WeatherSample) float64 {
	mult := 1.0

	if w.TemperatureC < m.params.ColdThresholdC {
		mult += (m.params.ColdThresholdC - w.TemperatureC) * m.params.ColdPenaltyPerC
	}
	mult += w.WindSpeedKmh * m.params.WindPenaltyPerKmh
	mult += w.PrecipitationMmHr * m.params.PrecipPenaltyPerMmHr

	if mult > m.params.MaxWeatherMultiplier {
		mult = m.params.MaxWeatherMultiplier
	}
	return mult
}
