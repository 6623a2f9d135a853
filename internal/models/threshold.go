package models

// Display placeholders shown before the authoritative config loads.
const (
	DefaultMinSoilMoisture       = 30.0
	DefaultMaxPumpDurationSec    = 5
	MinSoilMoistureLowerBound    = 0.0
	MinSoilMoistureUpperBound    = 100.0
	MaxPumpDurationSecLowerBound = 1
	MaxPumpDurationSecUpperBound = 3600
)

// ThresholdConfig holds the two numeric control thresholds for a device.
// The REST layer speaks camelCase for these (Spring backend).
type ThresholdConfig struct {
	DeviceUID              string  `json:"deviceUid"`
	MinSoilMoisture        float64 `json:"minSoilMoisture"`
	MaxPumpDurationSeconds int     `json:"maxPumpDurationSeconds"`
	IsActive               bool    `json:"isActive"`
}

// DefaultThresholds returns the placeholder config displayed before load.
func DefaultThresholds(deviceUID string) ThresholdConfig {
	return ThresholdConfig{
		DeviceUID:              deviceUID,
		MinSoilMoisture:        DefaultMinSoilMoisture,
		MaxPumpDurationSeconds: DefaultMaxPumpDurationSec,
		IsActive:               true,
	}
}

// Clamp forces both fields into their valid ranges. Out-of-range input never
// leaves the client.
func (c ThresholdConfig) Clamp() ThresholdConfig {
	if c.MinSoilMoisture < MinSoilMoistureLowerBound {
		c.MinSoilMoisture = MinSoilMoistureLowerBound
	}
	if c.MinSoilMoisture > MinSoilMoistureUpperBound {
		c.MinSoilMoisture = MinSoilMoistureUpperBound
	}
	if c.MaxPumpDurationSeconds < MaxPumpDurationSecLowerBound {
		c.MaxPumpDurationSeconds = MaxPumpDurationSecLowerBound
	}
	if c.MaxPumpDurationSeconds > MaxPumpDurationSecUpperBound {
		c.MaxPumpDurationSeconds = MaxPumpDurationSecUpperBound
	}
	return c
}
