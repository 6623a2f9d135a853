package models

import (
	"encoding/json"
	"time"
)

// HistorySample is one recorded server-side observation. Metric fields are
// optional; charts render gaps for absent readings.
type HistorySample struct {
	Timestamp    time.Time `json:"timestamp"`
	Temperature  *float64  `json:"temperature,omitempty"`
	AirHumidity  *float64  `json:"air_humidity,omitempty"`
	SoilMoisture *float64  `json:"soil_moisture,omitempty"`
}

// rawHistorySample accepts the backend's camelCase fields plus the legacy
// timestamp spellings the original clients tolerated.
type rawHistorySample struct {
	LogTime        json.RawMessage `json:"log_time"`
	LogTimeAlt     json.RawMessage `json:"logTime"`
	Timestamp      json.RawMessage `json:"timestamp"`
	Temperature    *float64        `json:"temperature"`
	AirHumidity    *float64        `json:"air_humidity"`
	AirHumidityAlt *float64        `json:"airHumidity"`
	SoilMoisture   *float64        `json:"soil_moisture"`
	SoilMoistAlt   *float64        `json:"soilMoisture"`
}

func (h *HistorySample) UnmarshalJSON(b []byte) error {
	var raw rawHistorySample
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	for _, ts := range []json.RawMessage{raw.LogTime, raw.LogTimeAlt, raw.Timestamp} {
		if len(ts) == 0 {
			continue
		}
		t, ok := parseWireTime(ts)
		if ok {
			h.Timestamp = t
			break
		}
	}

	h.Temperature = raw.Temperature
	h.AirHumidity = raw.AirHumidity
	if h.AirHumidity == nil {
		h.AirHumidity = raw.AirHumidityAlt
	}
	h.SoilMoisture = raw.SoilMoisture
	if h.SoilMoisture == nil {
		h.SoilMoisture = raw.SoilMoistAlt
	}
	return nil
}

// parseWireTime decodes either an RFC3339 string or epoch milliseconds.
func parseWireTime(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t.UTC(), true
		}
		return time.Time{}, false
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

// SeriesPoint is one chart point inside a per-metric series.
type SeriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Series is the normalized, time-ascending per-metric sequence handed to the
// charting boundary.
type Series struct {
	Metric string        `json:"metric"`
	Points []SeriesPoint `json:"points"`
}
