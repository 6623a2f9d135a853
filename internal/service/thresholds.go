package service

import (
	"context"
	"fmt"
	"sync"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
)

// ThresholdService caches the automation config so the console always
// has values to show, even when the backend is unreachable.
type ThresholdService struct {
	deviceUID string
	api       DeviceAPI
	log       *logger.Logger

	mu      sync.Mutex
	current models.ThresholdConfig
}

func NewThresholdService(deviceUID string, api DeviceAPI, log *logger.Logger) *ThresholdService {
	return &ThresholdService{
		deviceUID: deviceUID,
		api:       api,
		log:       log.Named("thresholds"),
		current:   models.DefaultThresholds(deviceUID),
	}
}

// Load fetches the config from the backend. On failure the cached
// values are returned alongside the error; a device without a saved
// config keeps the defaults.
func (s *ThresholdService) Load(ctx context.Context) (models.ThresholdConfig, error) {
	cfg, err := s.api.Thresholds(ctx, s.deviceUID)
	if err != nil {
		s.log.Warnw("threshold load failed, keeping cached values", "error", err)
		return s.Current(), fmt.Errorf("load thresholds: %w", err)
	}
	if cfg == nil {
		return s.Current(), nil
	}

	cfg.DeviceUID = s.deviceUID
	s.mu.Lock()
	s.current = *cfg
	s.mu.Unlock()
	return *cfg, nil
}

// Save clamps the values into their valid ranges, persists them and
// updates the cache. The cache is untouched when the save fails.
func (s *ThresholdService) Save(ctx context.Context, cfg models.ThresholdConfig) (models.ThresholdConfig, error) {
	cfg.DeviceUID = s.deviceUID
	cfg = cfg.Clamp()

	if err := s.api.SaveThresholds(ctx, cfg); err != nil {
		return s.Current(), fmt.Errorf("save thresholds: %w", err)
	}

	s.mu.Lock()
	s.current = cfg
	s.mu.Unlock()
	return cfg, nil
}

func (s *ThresholdService) Current() models.ThresholdConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
