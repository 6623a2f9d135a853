package apiclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"

	"github.com/go-resty/resty/v2"
)

const defaultTimeout = 10 * time.Second

// Client talks to the backend REST boundary. Every call is a single
// fire-and-wait request; nothing here retries — failed commands are
// re-issued by the operator, failed polls are retried by the next tick.
type Client struct {
	http *resty.Client
	log  *logger.Logger
}

// NewClient builds a client against the backend base URL
// (e.g. http://localhost:8080/api/v1).
func NewClient(baseURL string, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		log:  log.Named("apiclient"),
	}
}

// Response envelope used by the backend on every endpoint.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type stateEnvelope struct {
	envelope
	Data models.StateMessage `json:"data"`
}

type historyEnvelope struct {
	envelope
	Data []models.HistorySample `json:"data"`
}

type thresholdEnvelope struct {
	envelope
	Data *models.ThresholdConfig `json:"data"`
}

// commandRequest is the body of POST /devices/{id}/command.
type commandRequest struct {
	Action  string         `json:"action"`
	Payload commandPayload `json:"payload"`
}

type commandPayload struct {
	State string `json:"state"`
}

// DeviceState fetches the current snapshot for one device.
func (c *Client) DeviceState(ctx context.Context, deviceUID string) (models.StateMessage, error) {
	var out stateEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/devices/%s/state", deviceUID))
	if err != nil {
		return models.StateMessage{}, fmt.Errorf("get device state: %w", err)
	}
	if resp.IsError() {
		return models.StateMessage{}, fmt.Errorf("get device state: backend returned %d", resp.StatusCode())
	}
	return out.Data, nil
}

// SendPumpCommand dispatches a CONTROL_PUMP command.
func (c *Client) SendPumpCommand(ctx context.Context, deviceUID string, on bool) error {
	state := string(models.PumpOff)
	if on {
		state = string(models.PumpOn)
	}
	body := commandRequest{
		Action:  string(models.CommandPump),
		Payload: commandPayload{State: state},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(fmt.Sprintf("/devices/%s/command", deviceUID))
	if err != nil {
		return fmt.Errorf("send pump command: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send pump command: backend returned %d", resp.StatusCode())
	}
	return nil
}

// SetAutoMode flips the device between AUTO (autoOff=true) and MANUAL.
func (c *Client) SetAutoMode(ctx context.Context, deviceUID string, autoOff bool) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("autoOff", strconv.FormatBool(autoOff)).
		Post(fmt.Sprintf("/devices/%s/auto-off", deviceUID))
	if err != nil {
		return fmt.Errorf("set control mode: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("set control mode: backend returned %d", resp.StatusCode())
	}
	return nil
}

// History fetches samples in [from, to]; bounds travel as epoch millis.
// Arrival order is arbitrary — the history engine sorts.
func (c *Client) History(ctx context.Context, deviceUID string, from, to time.Time) ([]models.HistorySample, error) {
	var out historyEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("from", strconv.FormatInt(from.UnixMilli(), 10)).
		SetQueryParam("to", strconv.FormatInt(to.UnixMilli(), 10)).
		SetResult(&out).
		Get(fmt.Sprintf("/devices/%s/history", deviceUID))
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get history: backend returned %d", resp.StatusCode())
	}
	return out.Data, nil
}

// Thresholds loads the persisted threshold config, or nil when the backend
// has none yet (created on first save).
func (c *Client) Thresholds(ctx context.Context, deviceUID string) (*models.ThresholdConfig, error) {
	var out thresholdEnvelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(fmt.Sprintf("/thresholds/%s", deviceUID))
	if err != nil {
		return nil, fmt.Errorf("get thresholds: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get thresholds: backend returned %d", resp.StatusCode())
	}
	return out.Data, nil
}

// SaveThresholds persists both fields together; partial update is not
// supported by this layer.
func (c *Client) SaveThresholds(ctx context.Context, cfg models.ThresholdConfig) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(cfg).
		Post("/thresholds")
	if err != nil {
		return fmt.Errorf("save thresholds: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("save thresholds: backend returned %d", resp.StatusCode())
	}
	return nil
}
