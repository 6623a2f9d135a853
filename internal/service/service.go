package service

import (
	"context"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
	"smartgarden/internal/repository"
	"smartgarden/internal/transport"
)

// DeviceAPI is the REST boundary to the backend. Implemented by
// apiclient.Client; kept as an interface so services can be tested
// against fakes.
type DeviceAPI interface {
	DeviceState(ctx context.Context, deviceUID string) (models.StateMessage, error)
	SendPumpCommand(ctx context.Context, deviceUID string, on bool) error
	SetAutoMode(ctx context.Context, deviceUID string, autoOff bool) error
	History(ctx context.Context, deviceUID string, from, to time.Time) ([]models.HistorySample, error)
	Thresholds(ctx context.Context, deviceUID string) (*models.ThresholdConfig, error)
	SaveThresholds(ctx context.Context, cfg models.ThresholdConfig) error
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitor exposes the reconciled view of the device: the single
// authoritative state plus the transport-driven connection status.
type Monitor interface {
	Current() (models.DeviceState, bool)
	Status() models.ConnectionStatus
	OnUpdate(fn func(models.DeviceState))
}

// Commands dispatches control actions to the device.
type Commands interface {
	TogglePump(ctx context.Context, on bool) error
	SetControlMode(ctx context.Context, mode models.ControlMode) error
	Pending() []models.PendingCommand
}

// History serves normalized sensor history for the chart presets.
type History interface {
	Query(ctx context.Context, preset RangePreset) (HistoryResult, error)
	SetPreset(preset RangePreset) error
	Preset() RangePreset
	Latest() (HistoryResult, bool)
}

// Thresholds manages the automation config for the device.
type Thresholds interface {
	Load(ctx context.Context) (models.ThresholdConfig, error)
	Save(ctx context.Context, cfg models.ThresholdConfig) (models.ThresholdConfig, error)
	Current() models.ThresholdConfig
}

// Assistant answers free-form gardening questions via the AI backend.
type Assistant interface {
	Ask(ctx context.Context, question string) string
}

// TelemetryLog exposes the locally persisted telemetry with filtering access.
type TelemetryLog interface {
	List(ctx context.Context, f LogFilter) ([]models.TelemetryRecord, error)
}

// Config carries the tunables NewService needs; zero values fall back
// to sane defaults.
type Config struct {
	DeviceUID              string
	DeviceTopic            string
	CatchAllTopic          string
	PollInterval           time.Duration
	HistoryRefreshInterval time.Duration
	SuppressionWindow      time.Duration
	SigningKey             string
	AssistantURL           string
}

type Service struct {
	Authorization
	Monitor
	Commands
	History
	Thresholds
	Assistant
	TelemetryLog

	Session *Session
}

// NewService wires the repository layer, REST client and MQTT adapter
// into the concrete services.
func NewService(repos *repository.Repository, api DeviceAPI, adapter transport.Adapter, cfg Config, log *logger.Logger) *Service {
	gate := newSuppressionGate()
	rec := NewReconcilerService(cfg.DeviceUID, gate, repos.Telemetry, log)
	disp := NewDispatcherService(cfg.DeviceUID, api, rec, rec, gate, cfg.SuppressionWindow, log)
	hist := NewHistoryService(cfg.DeviceUID, api, log)
	poll := NewPollerService(cfg.DeviceUID, api, rec, log)

	return &Service{
		Authorization: NewAuthService(repos.Operators, cfg.SigningKey),
		Monitor:       rec,
		Commands:      disp,
		History:       hist,
		Thresholds:    NewThresholdService(cfg.DeviceUID, api, log),
		Assistant:     NewAssistantService(cfg.AssistantURL, cfg.DeviceUID, rec, log),
		TelemetryLog:  NewTelemetryLogService(cfg.DeviceUID, repos.Telemetry),
		Session:       NewSession(cfg, adapter, rec, poll, hist, disp, log),
	}
}
