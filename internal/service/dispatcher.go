package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
)

// Domain errors for command dispatch.
var (
	ErrManualOnly   = errors.New("pump commands require MANUAL mode")
	ErrStateUnknown = errors.New("device state not received yet")
)

const defaultSuppressionWindow = time.Second

// commandEffects decides how each command kind is reflected locally on a
// successful dispatch. Mode changes apply immediately; pump changes hold a
// suppression window so a stale remote snapshot cannot undo the echo
// before the device confirms.
var commandEffects = map[models.CommandKind]models.CommandEffect{
	models.CommandPump: models.EffectSuppressedPendingConfirm,
	models.CommandMode: models.EffectOptimisticImmediate,
}

// stateView is the slice of the reconciler the dispatcher reads from.
type stateView interface {
	Current() (models.DeviceState, bool)
}

// updateSink is where local command echoes are submitted.
type updateSink interface {
	Submit(StateUpdate)
}

// DispatcherService sends control commands over REST and feeds the
// resulting local echoes back into the reconciler.
type DispatcherService struct {
	deviceUID string
	api       DeviceAPI
	state     stateView
	sink      updateSink
	gate      *suppressionGate
	window    time.Duration
	log       *logger.Logger

	mu      sync.Mutex
	pending map[string]models.PendingCommand
}

func NewDispatcherService(deviceUID string, api DeviceAPI, state stateView, sink updateSink, gate *suppressionGate, window time.Duration, log *logger.Logger) *DispatcherService {
	if window <= 0 {
		window = defaultSuppressionWindow
	}
	return &DispatcherService{
		deviceUID: deviceUID,
		api:       api,
		state:     state,
		sink:      sink,
		gate:      gate,
		window:    window,
		log:       log.Named("dispatcher"),
		pending:   make(map[string]models.PendingCommand),
	}
}

// TogglePump turns the pump on or off. Rejected before any network call
// when the device is in AUTO mode or no state has been reconciled yet.
func (d *DispatcherService) TogglePump(ctx context.Context, on bool) error {
	st, ok := d.state.Current()
	if !ok {
		return ErrStateUnknown
	}
	if st.ControlMode == models.ModeAuto {
		return ErrManualOnly
	}

	target := models.PumpOff
	if on {
		target = models.PumpOn
	}
	cmd := d.track(models.CommandPump, string(target))

	if err := d.api.SendPumpCommand(ctx, d.deviceUID, on); err != nil {
		// Only confirm opens windows, so a failed command has none to
		// release. Commands are independent: a window an earlier
		// successful toggle holds stays open.
		d.untrack(cmd.ID)
		return fmt.Errorf("send pump command: %w", err)
	}

	d.confirm(cmd, models.StateMessage{DeviceUID: d.deviceUID, PumpState: &target})
	return nil
}

// SetControlMode switches between MANUAL and AUTO.
func (d *DispatcherService) SetControlMode(ctx context.Context, mode models.ControlMode) error {
	cmd := d.track(models.CommandMode, string(mode))

	if err := d.api.SetAutoMode(ctx, d.deviceUID, mode == models.ModeAuto); err != nil {
		d.untrack(cmd.ID)
		return fmt.Errorf("set control mode: %w", err)
	}

	d.confirm(cmd, models.StateMessage{DeviceUID: d.deviceUID, ControlMode: &mode})
	return nil
}

// Pending returns the in-flight commands, oldest first. Expired entries
// are pruned lazily.
func (d *DispatcherService) Pending() []models.PendingCommand {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]models.PendingCommand, 0, len(d.pending))
	for id, cmd := range d.pending {
		if !cmd.SuppressUntil.IsZero() && now.After(cmd.SuppressUntil) {
			delete(d.pending, id)
			continue
		}
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out
}

// Reset discards all tracked commands and open windows. Called on
// session teardown; in-flight requests are abandoned, not cancelled.
func (d *DispatcherService) Reset() {
	d.mu.Lock()
	d.pending = make(map[string]models.PendingCommand)
	d.mu.Unlock()
	d.gate.ReleaseAll()
}

func (d *DispatcherService) track(kind models.CommandKind, target string) models.PendingCommand {
	cmd := models.PendingCommand{
		ID:          uuid.NewString(),
		Kind:        kind,
		TargetValue: target,
		IssuedAt:    time.Now().UTC(),
	}
	d.mu.Lock()
	d.pending[cmd.ID] = cmd
	d.mu.Unlock()
	return cmd
}

func (d *DispatcherService) untrack(id string) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}

// confirm applies the local echo for a successfully dispatched command
// and, for suppressed kinds, opens the window that keeps remote
// snapshots from reverting it.
func (d *DispatcherService) confirm(cmd models.PendingCommand, echo models.StateMessage) {
	now := time.Now().UTC()
	d.sink.Submit(StateUpdate{Source: SourceLocal, Message: echo, ReceivedAt: now})

	if commandEffects[cmd.Kind] != models.EffectSuppressedPendingConfirm {
		d.untrack(cmd.ID)
		return
	}

	until := now.Add(d.window)
	d.gate.Hold(fieldPumpState, until)
	cmd.SuppressUntil = until
	d.mu.Lock()
	d.pending[cmd.ID] = cmd
	d.mu.Unlock()
	d.log.Infow("pump echo applied", "target", cmd.TargetValue, "suppress_until", until)
}
