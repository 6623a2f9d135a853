package service

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
)

const (
	assistantTimeout  = 30 * time.Second
	assistantFallback = "The garden assistant is unavailable right now. Please try again in a moment."
)

type chatRequest struct {
	UserMessage   string               `json:"user_message"`
	DeviceUID     string               `json:"device_uid"`
	GardenContext *models.StateMessage `json:"garden_context,omitempty"`
}

type chatResponse struct {
	ResponseType string `json:"response_type"`
	TextContent  string `json:"text_content"`
}

// AssistantService forwards operator questions to the AI backend,
// attaching the current garden state as context. Any failure yields a
// fixed fallback reply instead of an error.
type AssistantService struct {
	http      *resty.Client
	deviceUID string
	state     stateView
	log       *logger.Logger
}

func NewAssistantService(baseURL, deviceUID string, state stateView, log *logger.Logger) *AssistantService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(assistantTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &AssistantService{
		http:      client,
		deviceUID: deviceUID,
		state:     state,
		log:       log.Named("assistant"),
	}
}

func (s *AssistantService) Ask(ctx context.Context, question string) string {
	req := chatRequest{UserMessage: question, DeviceUID: s.deviceUID}
	if st, ok := s.state.Current(); ok {
		req.GardenContext = stateToMessage(st)
	}

	var out chatResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat")
	if err != nil {
		s.log.Warnw("assistant request failed", "error", err)
		return assistantFallback
	}
	if resp.IsError() || out.ResponseType != "TEXT" || out.TextContent == "" {
		s.log.Warnw("assistant returned unusable reply", "status", resp.StatusCode(), "type", out.ResponseType)
		return assistantFallback
	}
	return out.TextContent
}

func stateToMessage(st models.DeviceState) *models.StateMessage {
	pump := st.PumpState
	mode := st.ControlMode
	msg := &models.StateMessage{
		DeviceUID:   st.DeviceUID,
		PumpState:   &pump,
		ControlMode: &mode,
	}
	if len(st.Sensors) > 0 {
		msg.Sensors = make(map[string]float64, len(st.Sensors))
		for k, v := range st.Sensors {
			msg.Sensors[k] = v
		}
	}
	return msg
}
