package models

import "time"

// TelemetryRecord is one locally-logged observation of the reconciled state.
// The console appends a record for every non-local update it applies so the
// operator can inspect what the device reported even when the backend's
// history endpoint is unreachable.
type TelemetryRecord struct {
	ID           string    `json:"id"`
	DeviceUID    string    `json:"device_uid"`
	LoggedAt     time.Time `json:"logged_at"`
	Source       string    `json:"source"` // push | poll
	Temperature  *float64  `json:"temperature,omitempty"`
	AirHumidity  *float64  `json:"air_humidity,omitempty"`
	SoilMoisture *float64  `json:"soil_moisture,omitempty"`
	PumpState    string    `json:"pump_state,omitempty"`
	ControlMode  string    `json:"control_mode,omitempty"`
}
