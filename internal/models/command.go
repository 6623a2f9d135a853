package models

import "time"

// CommandKind identifies an operator-initiated command.
type CommandKind string

const (
	CommandPump CommandKind = "CONTROL_PUMP"
	CommandMode CommandKind = "SET_MODE"
)

// CommandEffect selects how a command's result is reflected locally.
//
// OptimisticImmediate applies the target value as soon as the server
// acknowledges (mode is a pure configuration flag with negligible device-side
// propagation delay). SuppressedPendingConfirm applies the expected value and
// holds a suppression window over the targeted field, because the physical
// actuator reports back slower than the refresh cadence and the UI would
// otherwise flicker back to the pre-command value.
type CommandEffect int

const (
	EffectOptimisticImmediate CommandEffect = iota
	EffectSuppressedPendingConfirm
)

// PendingCommand tracks one in-flight command. It exists only between
// dispatch and the end of its suppression window and is never persisted.
type PendingCommand struct {
	ID            string      `json:"id"`
	Kind          CommandKind `json:"kind"`
	TargetValue   string      `json:"target_value"`
	IssuedAt      time.Time   `json:"issued_at"`
	SuppressUntil time.Time   `json:"suppress_until"`
}
