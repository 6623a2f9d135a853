package handlers

import (
	"context"
	"net/http"
	"time"

	"smartgarden/internal/models"
	"smartgarden/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockMonitor struct {
	state    models.DeviceState
	hasState bool
	status   models.ConnectionStatus
}

func (m *mockMonitor) Current() (models.DeviceState, bool) { return m.state, m.hasState }
func (m *mockMonitor) Status() models.ConnectionStatus { return m.status }
func (m *mockMonitor) OnUpdate(fn func(models.DeviceState)) {}

type mockCommands struct {
	toggleErr   error
	setModeErr  error
	pending     []models.PendingCommand
	toggleCalls []bool
	modeCalls   []models.ControlMode
}

func (m *mockCommands) TogglePump(ctx context.Context, on bool) error {
	m.toggleCalls = append(m.toggleCalls, on)
	return m.toggleErr
}
func (m *mockCommands) SetControlMode(ctx context.Context, mode models.ControlMode) error {
	m.modeCalls = append(m.modeCalls, mode)
	return m.setModeErr
}
func (m *mockCommands) Pending() []models.PendingCommand { return m.pending }

type mockHistory struct {
	result     service.HistoryResult
	queryErr   error
	preset     service.RangePreset
	setErr     error
	lastQuery  service.RangePreset
	lastPreset service.RangePreset
}

func (m *mockHistory) Query(ctx context.Context, preset service.RangePreset) (service.HistoryResult, error) {
	m.lastQuery = preset
	return m.result, m.queryErr
}
func (m *mockHistory) SetPreset(preset service.RangePreset) error {
	m.lastPreset = preset
	return m.setErr
}
func (m *mockHistory) Preset() service.RangePreset { return m.preset }
func (m *mockHistory) Latest() (service.HistoryResult, bool) {
	return m.result, m.queryErr == nil
}

type mockThresholds struct {
	cfg      models.ThresholdConfig
	loadErr  error
	saveErr  error
	lastSave models.ThresholdConfig
}

func (m *mockThresholds) Load(ctx context.Context) (models.ThresholdConfig, error) {
	return m.cfg, m.loadErr
}
func (m *mockThresholds) Save(ctx context.Context, cfg models.ThresholdConfig) (models.ThresholdConfig, error) {
	m.lastSave = cfg
	if m.saveErr != nil {
		return m.cfg, m.saveErr
	}
	return cfg.Clamp(), nil
}
func (m *mockThresholds) Current() models.ThresholdConfig { return m.cfg }

type mockAssistant struct {
	reply        string
	lastQuestion string
}

func (m *mockAssistant) Ask(ctx context.Context, question string) string {
	m.lastQuestion = question
	return m.reply
}

type mockTelemetryLog struct {
	resp     []models.TelemetryRecord
	err      error
	lastFrom time.Time
	lastTo   time.Time
}

func (m *mockTelemetryLog) List(ctx context.Context, f service.LogFilter) ([]models.TelemetryRecord, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
