package service

import (
	"sync"
	"time"
)

type suppressedField string

const (
	fieldPumpState   suppressedField = "pump_state"
	fieldControlMode suppressedField = "control_mode"
)

// suppressionGate tracks per-field windows during which remote updates
// must not overwrite a locally commanded value. Local echoes bypass the
// gate entirely.
type suppressionGate struct {
	mu    sync.Mutex
	until map[suppressedField]time.Time
}

func newSuppressionGate() *suppressionGate {
	return &suppressionGate{until: make(map[suppressedField]time.Time)}
}

func (g *suppressionGate) Hold(field suppressedField, until time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until[field] = until
}

func (g *suppressionGate) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.until = make(map[suppressedField]time.Time)
}

func (g *suppressionGate) Suppressed(field suppressedField, at time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	until, ok := g.until[field]
	return ok && at.Before(until)
}
