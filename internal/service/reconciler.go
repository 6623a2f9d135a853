package service

import (
	"context"
	"sync"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
	"smartgarden/internal/repository"
)

// UpdateSource identifies which channel produced a state update.
type UpdateSource string

const (
	SourcePush  UpdateSource = "push"
	SourcePoll  UpdateSource = "poll"
	SourceLocal UpdateSource = "local"
)

// StateUpdate is the single unit of work the reconciler consumes. Push
// messages, poll responses and local command echoes all travel through
// the same channel so ordering is defined by local receipt time.
type StateUpdate struct {
	Source     UpdateSource
	Message    models.StateMessage
	ReceivedAt time.Time
}

const updateBuffer = 16

// ReconcilerService owns the authoritative DeviceState. All mutations
// happen on the Run goroutine; readers get defensive copies.
type ReconcilerService struct {
	deviceUID string
	gate      *suppressionGate
	telemetry repository.TelemetryRepo
	log       *logger.Logger

	updates chan StateUpdate

	mu        sync.RWMutex
	current   models.DeviceState
	hasState  bool
	status    models.ConnectionStatus
	listeners []func(models.DeviceState)
}

func NewReconcilerService(deviceUID string, gate *suppressionGate, telemetry repository.TelemetryRepo, log *logger.Logger) *ReconcilerService {
	return &ReconcilerService{
		deviceUID: deviceUID,
		gate:      gate,
		telemetry: telemetry,
		log:       log.Named("reconciler"),
		updates:   make(chan StateUpdate, updateBuffer),
		status:    models.StatusConnecting,
	}
}

// Submit enqueues an update without blocking the caller. When the
// buffer is full the oldest queued update is dropped: a newer snapshot
// supersedes a stale one anyway.
func (r *ReconcilerService) Submit(u StateUpdate) {
	if u.ReceivedAt.IsZero() {
		u.ReceivedAt = time.Now().UTC()
	}
	for {
		select {
		case r.updates <- u:
			return
		default:
		}
		select {
		case dropped := <-r.updates:
			r.log.Warnw("update dropped, queue full", "source", dropped.Source)
		default:
		}
	}
}

// Run consumes updates until the context is cancelled.
func (r *ReconcilerService) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-r.updates:
			r.apply(u)
		}
	}
}

func (r *ReconcilerService) apply(u StateUpdate) {
	msg := u.Message
	// Catch-all topic carries other devices too; keep only ours.
	if msg.DeviceUID != "" && msg.DeviceUID != r.deviceUID {
		return
	}

	local := u.Source == SourceLocal

	r.mu.Lock()
	next := r.current.Clone()
	next.DeviceUID = r.deviceUID
	if len(msg.Sensors) > 0 && next.Sensors == nil {
		next.Sensors = make(map[string]float64, len(msg.Sensors))
	}
	for k, v := range msg.Sensors {
		next.Sensors[k] = v
	}
	if msg.PumpState != nil && (local || !r.gate.Suppressed(fieldPumpState, u.ReceivedAt)) {
		next.PumpState = *msg.PumpState
	}
	if msg.ControlMode != nil && (local || !r.gate.Suppressed(fieldControlMode, u.ReceivedAt)) {
		next.ControlMode = *msg.ControlMode
	}
	next.ObservedAt = u.ReceivedAt
	r.current = next
	r.hasState = true
	listeners := make([]func(models.DeviceState), len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	if !local {
		r.record(u)
	}
	for _, fn := range listeners {
		fn(next.Clone())
	}
}

// record appends the raw update to the local telemetry log, best effort.
func (r *ReconcilerService) record(u StateUpdate) {
	if r.telemetry == nil {
		return
	}
	rec := models.TelemetryRecord{
		DeviceUID: r.deviceUID,
		LoggedAt:  u.ReceivedAt,
		Source:    string(u.Source),
	}
	if v, ok := u.Message.Sensors[models.MetricTemperature]; ok {
		t := v
		rec.Temperature = &t
	}
	if v, ok := u.Message.Sensors[models.MetricAirHumidity]; ok {
		h := v
		rec.AirHumidity = &h
	}
	if v, ok := u.Message.Sensors[models.MetricSoilMoisture]; ok {
		m := v
		rec.SoilMoisture = &m
	}
	if u.Message.PumpState != nil {
		rec.PumpState = string(*u.Message.PumpState)
	}
	if u.Message.ControlMode != nil {
		rec.ControlMode = string(*u.Message.ControlMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.telemetry.Append(ctx, rec); err != nil {
		r.log.Warnw("telemetry append failed", "error", err)
	}
}

// Current returns a copy of the reconciled state; ok is false before
// the first update arrives.
func (r *ReconcilerService) Current() (models.DeviceState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasState {
		return models.DeviceState{}, false
	}
	return r.current.Clone(), true
}

func (r *ReconcilerService) Status() models.ConnectionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// SetStatus is driven by the transport lifecycle only; poll results
// never call it.
func (r *ReconcilerService) SetStatus(s models.ConnectionStatus) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// OnUpdate registers a listener invoked with a state copy after each
// applied update. Listeners run on the reconciler goroutine and must
// not block.
func (r *ReconcilerService) OnUpdate(fn func(models.DeviceState)) {
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}
