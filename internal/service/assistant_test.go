package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartgarden/internal/models"
)

func TestAssistantAsk_ReturnsBackendReplyWithContext(t *testing.T) {
	var gotBody chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %q, want /chat", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_type":"TEXT","text_content":"Water in the evening."}`))
	}))
	defer srv.Close()

	view := &fakeStateView{
		state: models.DeviceState{
			DeviceUID:   "garden-1",
			PumpState:   models.PumpOff,
			ControlMode: models.ModeAuto,
			Sensors:     map[string]float64{models.MetricSoilMoisture: 33},
		},
		ok: true,
	}
	s := NewAssistantService(srv.URL, "garden-1", view, testLogger())

	reply := s.Ask(context.Background(), "When should I water?")
	if reply != "Water in the evening." {
		t.Fatalf("reply = %q", reply)
	}
	if gotBody.UserMessage != "When should I water?" {
		t.Fatalf("user message = %q", gotBody.UserMessage)
	}
	if gotBody.GardenContext == nil {
		t.Fatalf("expected garden context attached")
	}
	if gotBody.GardenContext.Sensors[models.MetricSoilMoisture] != 33 {
		t.Fatalf("context sensors = %v", gotBody.GardenContext.Sensors)
	}
}

func TestAssistantAsk_FallsBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewAssistantService(srv.URL, "garden-1", &fakeStateView{}, testLogger())

	if reply := s.Ask(context.Background(), "hi"); reply != assistantFallback {
		t.Fatalf("reply = %q, want fallback", reply)
	}
}

func TestAssistantAsk_FallsBackOnNonTextReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response_type":"COMMAND","text_content":""}`))
	}))
	defer srv.Close()

	s := NewAssistantService(srv.URL, "garden-1", &fakeStateView{}, testLogger())

	if reply := s.Ask(context.Background(), "hi"); reply != assistantFallback {
		t.Fatalf("reply = %q, want fallback", reply)
	}
}

func TestAssistantAsk_FallsBackWhenUnreachable(t *testing.T) {
	s := NewAssistantService("http://127.0.0.1:1", "garden-1", &fakeStateView{}, testLogger())

	if reply := s.Ask(context.Background(), "hi"); reply != assistantFallback {
		t.Fatalf("reply = %q, want fallback", reply)
	}
}
