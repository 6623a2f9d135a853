package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartgarden/internal/models"
	"smartgarden/internal/service"
)

func deviceService(commands *mockCommands, monitor *mockMonitor) *service.Service {
	return &service.Service{
		Authorization: &mockAuth{parseID: 1},
		Monitor:       monitor,
		Commands:      commands,
	}
}

func postJSON(t *testing.T, r http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)
	return w
}

func TestGetState_IncludesStatusAndState(t *testing.T) {
	monitor := &mockMonitor{
		state: models.DeviceState{
			DeviceUID:   "garden-1",
			PumpState:   models.PumpOn,
			ControlMode: models.ModeManual,
			Sensors:     map[string]float64{models.MetricTemperature: 21},
		},
		hasState: true,
		status:   models.StatusOnline,
	}
	s := deviceService(&mockCommands{}, monitor)
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/device/state", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if m["status"] != string(models.StatusOnline) {
		t.Fatalf("status field = %v", m["status"])
	}
	st, ok := m["state"].(map[string]any)
	if !ok {
		t.Fatalf("missing state object: %s", w.Body.String())
	}
	if st["pump_state"] != string(models.PumpOn) {
		t.Fatalf("pump_state = %v", st["pump_state"])
	}
}

func TestGetState_OmitsStateBeforeFirstUpdate(t *testing.T) {
	monitor := &mockMonitor{status: models.StatusConnecting}
	s := deviceService(&mockCommands{}, monitor)
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/device/state", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)

	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if _, present := m["state"]; present {
		t.Fatalf("state must be omitted before the first update: %s", w.Body.String())
	}
	if m["status"] != string(models.StatusConnecting) {
		t.Fatalf("status field = %v", m["status"])
	}
}

func TestTogglePump_Success(t *testing.T) {
	commands := &mockCommands{}
	s := deviceService(commands, &mockMonitor{})
	r := newTestRouter(s)

	w := postJSON(t, r, "/api/v1/device/pump", `{"state":"ON"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(commands.toggleCalls) != 1 || !commands.toggleCalls[0] {
		t.Fatalf("toggle calls = %v", commands.toggleCalls)
	}
}

func TestTogglePump_InvalidState(t *testing.T) {
	commands := &mockCommands{}
	s := deviceService(commands, &mockMonitor{})
	r := newTestRouter(s)

	w := postJSON(t, r, "/api/v1/device/pump", `{"state":"MAYBE"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(commands.toggleCalls) != 0 {
		t.Fatalf("invalid state must not reach the service")
	}
}

func TestTogglePump_AutoModeConflict(t *testing.T) {
	commands := &mockCommands{toggleErr: service.ErrManualOnly}
	s := deviceService(commands, &mockMonitor{})
	r := newTestRouter(s)

	w := postJSON(t, r, "/api/v1/device/pump", `{"state":"ON"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestSetMode_Success(t *testing.T) {
	commands := &mockCommands{}
	s := deviceService(commands, &mockMonitor{})
	r := newTestRouter(s)

	w := postJSON(t, r, "/api/v1/device/mode", `{"mode":"auto"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if len(commands.modeCalls) != 1 || commands.modeCalls[0] != models.ModeAuto {
		t.Fatalf("mode calls = %v", commands.modeCalls)
	}
}

func TestSetMode_InvalidMode(t *testing.T) {
	s := deviceService(&mockCommands{}, &mockMonitor{})
	r := newTestRouter(s)

	w := postJSON(t, r, "/api/v1/device/mode", `{"mode":"TURBO"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetPendingCommands(t *testing.T) {
	commands := &mockCommands{pending: []models.PendingCommand{{ID: "c1", Kind: models.CommandPump}}}
	s := deviceService(commands, &mockMonitor{})
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/device/commands", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)

	var m map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	if int(m["count"].(float64)) != 1 {
		t.Fatalf("count = %v", m["count"])
	}
}
