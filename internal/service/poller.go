package service

import (
	"context"
	"time"

	"smartgarden/internal/logger"
)

const defaultPollInterval = 10 * time.Second

// PollerService is the REST fallback channel: it periodically fetches
// the device state and submits it to the reconciler. Poll outcomes
// never touch the connection status, and a failed poll keeps the
// last-known state on display.
type PollerService struct {
	deviceUID string
	api       DeviceAPI
	sink      updateSink
	log       *logger.Logger
}

func NewPollerService(deviceUID string, api DeviceAPI, sink updateSink, log *logger.Logger) *PollerService {
	return &PollerService{
		deviceUID: deviceUID,
		api:       api,
		sink:      sink,
		log:       log.Named("poller"),
	}
}

// Run polls until the context is cancelled.
func (p *PollerService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultPollInterval
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *PollerService) poll(ctx context.Context) {
	msg, err := p.api.DeviceState(ctx, p.deviceUID)
	if err != nil {
		p.log.Warnw("poll failed", "error", err)
		return
	}
	p.sink.Submit(StateUpdate{Source: SourcePoll, Message: msg, ReceivedAt: time.Now().UTC()})
}
