package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
	"smartgarden/internal/transport"
)

// Session ties the transport lifecycle to the reconciler and runs the
// background loops. One session per process lifetime; Close is
// idempotent.
type Session struct {
	cfg     Config
	adapter transport.Adapter
	rec     *ReconcilerService
	poller  *PollerService
	history *HistoryService
	disp    *DispatcherService
	log     *logger.Logger

	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewSession(cfg Config, adapter transport.Adapter, rec *ReconcilerService, poller *PollerService, history *HistoryService, disp *DispatcherService, log *logger.Logger) *Session {
	if cfg.DeviceTopic == "" {
		cfg.DeviceTopic = fmt.Sprintf("smartgarden/device/%s", cfg.DeviceUID)
	}
	if cfg.CatchAllTopic == "" {
		cfg.CatchAllTopic = "smartgarden/all-devices"
	}
	return &Session{
		cfg:     cfg,
		adapter: adapter,
		rec:     rec,
		poller:  poller,
		history: history,
		disp:    disp,
		log:     log.Named("session"),
	}
}

// Start launches the background loops and initiates the MQTT connect.
// A failed initial connect is not fatal: the adapter keeps retrying and
// the poll channel covers the gap, so only the status shows it.
func (s *Session) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.rec.Run(runCtx)
	go s.poller.Run(runCtx, s.cfg.PollInterval)
	go s.history.Run(runCtx, s.cfg.HistoryRefreshInterval)

	s.rec.SetStatus(models.StatusConnecting)
	if err := s.adapter.Connect(s.onConnected, s.onConnectionLost); err != nil {
		s.log.Warnw("initial mqtt connect failed, polling only until reconnect", "error", err)
	}
	return nil
}

// onConnected fires on every successful connect, including automatic
// reconnects; broker sessions are clean, so subscriptions must be
// re-established each time.
func (s *Session) onConnected() {
	s.rec.SetStatus(models.StatusOnline)
	for _, topic := range []string{s.cfg.DeviceTopic, s.cfg.CatchAllTopic} {
		if _, err := s.adapter.Subscribe(topic, s.onMessage); err != nil {
			s.log.Errorw("subscribe failed", "topic", topic, "error", err)
		}
	}
	s.log.Infow("mqtt connected", "device_uid", s.cfg.DeviceUID)
}

func (s *Session) onConnectionLost(err error) {
	s.rec.SetStatus(models.StatusOffline)
	s.log.Warnw("mqtt connection lost", "error", err)
}

func (s *Session) onMessage(msg models.StateMessage) {
	s.rec.Submit(StateUpdate{Source: SourcePush, Message: msg, ReceivedAt: time.Now().UTC()})
}

// Close stops the loops, disconnects the transport and discards any
// pending commands. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.adapter.Disconnect()
		s.disp.Reset()
		s.rec.SetStatus(models.StatusOffline)
		s.log.Infow("session closed")
	})
}
