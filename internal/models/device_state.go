package models

import (
	"encoding/json"
	"time"
)

// Pump actuator states reported by the device.
type PumpState string

const (
	PumpOn  PumpState = "ON"
	PumpOff PumpState = "OFF"
)

// Operating modes. Manual pump control is only allowed in ModeManual.
type ControlMode string

const (
	ModeManual ControlMode = "MANUAL"
	ModeAuto   ControlMode = "AUTO"
)

// ConnectionStatus reflects the push-channel lifecycle only; polling success
// never promotes OFFLINE back to ONLINE.
type ConnectionStatus string

const (
	StatusConnecting ConnectionStatus = "CONNECTING"
	StatusOnline     ConnectionStatus = "ONLINE"
	StatusOffline    ConnectionStatus = "OFFLINE"
)

// Canonical sensor metric keys (wire snake_case).
const (
	MetricTemperature  = "temperature"
	MetricAirHumidity  = "air_humidity"
	MetricSoilMoisture = "soil_moisture"
	MetricLight        = "light"
)

// DeviceState is the single reconciled snapshot for one device. A missing
// metric is an absent map key, never a zero reading.
type DeviceState struct {
	DeviceUID   string             `json:"device_uid"`
	Sensors     map[string]float64 `json:"sensors"`
	PumpState   PumpState          `json:"pump_state"`
	ControlMode ControlMode        `json:"control_mode"`
	ObservedAt  time.Time          `json:"observed_at"`
}

// Clone returns a deep copy; the reconciler replaces state wholesale and must
// not hand out a snapshot sharing its sensor map.
func (s DeviceState) Clone() DeviceState {
	out := s
	if s.Sensors != nil {
		out.Sensors = make(map[string]float64, len(s.Sensors))
		for k, v := range s.Sensors {
			out.Sensors[k] = v
		}
	}
	return out
}

// StateMessage is a partial device-state update as it arrives on the wire.
// The firmware publishes snake_case over MQTT while the backend REST layer
// answers in camelCase; both spellings are accepted. Nil pointer fields mean
// "not carried by this message", which drives the field-set-union merge.
type StateMessage struct {
	DeviceUID   string
	Status      string
	PumpState   *PumpState
	ControlMode *ControlMode
	Sensors     map[string]float64
	LastSeen    int64
}

// rawStateMessage mirrors every accepted spelling of every field.
type rawStateMessage struct {
	DeviceUID      string                     `json:"device_uid"`
	DeviceUIDAlt   string                     `json:"deviceUid"`
	Status         string                     `json:"status"`
	PumpState      *string                    `json:"pump_state"`
	PumpStateAlt   *string                    `json:"pumpState"`
	ControlMode    *string                    `json:"control_mode"`
	ControlModeAlt *string                    `json:"controlMode"`
	Sensors        map[string]json.RawMessage `json:"sensors"`
	LastSeen       int64                      `json:"last_seen"`
	LastSeenAlt    int64                      `json:"lastSeen"`
}

// metricAliases maps camelCase sensor keys onto the canonical snake_case ones.
var metricAliases = map[string]string{
	"airHumidity":  MetricAirHumidity,
	"soilMoisture": MetricSoilMoisture,
}

func (m *StateMessage) UnmarshalJSON(b []byte) error {
	var raw rawStateMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	m.DeviceUID = firstNonEmpty(raw.DeviceUID, raw.DeviceUIDAlt)
	m.Status = raw.Status
	m.LastSeen = raw.LastSeen
	if m.LastSeen == 0 {
		m.LastSeen = raw.LastSeenAlt
	}

	if p := firstNonNil(raw.PumpState, raw.PumpStateAlt); p != nil {
		ps := PumpState(*p)
		m.PumpState = &ps
	}
	if p := firstNonNil(raw.ControlMode, raw.ControlModeAlt); p != nil {
		cm := ControlMode(*p)
		m.ControlMode = &cm
	}

	if len(raw.Sensors) > 0 {
		m.Sensors = make(map[string]float64, len(raw.Sensors))
		for k, v := range raw.Sensors {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				// non-numeric reading: skip the metric, keep the rest
				continue
			}
			if canonical, ok := metricAliases[k]; ok {
				k = canonical
			}
			m.Sensors[k] = f
		}
	}
	return nil
}

// MarshalJSON emits the canonical snake_case form.
func (m StateMessage) MarshalJSON() ([]byte, error) {
	raw := struct {
		DeviceUID   string             `json:"device_uid,omitempty"`
		Status      string             `json:"status,omitempty"`
		PumpState   *PumpState         `json:"pump_state,omitempty"`
		ControlMode *ControlMode       `json:"control_mode,omitempty"`
		Sensors     map[string]float64 `json:"sensors,omitempty"`
		LastSeen    int64              `json:"last_seen,omitempty"`
	}{m.DeviceUID, m.Status, m.PumpState, m.ControlMode, m.Sensors, m.LastSeen}
	return json.Marshal(raw)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}
