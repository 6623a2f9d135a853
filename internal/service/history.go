package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"smartgarden/internal/logger"
	"smartgarden/internal/models"
)

// RangePreset is one of the fixed chart windows.
type RangePreset string

const (
	Range1h  RangePreset = "1h"
	Range6h  RangePreset = "6h"
	Range24h RangePreset = "24h"
	Range7d  RangePreset = "7d"
)

var ErrUnknownPreset = errors.New("unknown history preset")

// Window converts a preset into its duration.
func (p RangePreset) Window() (time.Duration, error) {
	switch p {
	case Range1h:
		return time.Hour, nil
	case Range6h:
		return 6 * time.Hour, nil
	case Range24h:
		return 24 * time.Hour, nil
	case Range7d:
		return 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}

const defaultHistoryRefresh = 30 * time.Second

// HistoryResult is one completed query: the normalized samples plus the
// per-metric series the charts consume. Err is set when the backend
// call failed; Samples and Series are then empty.
type HistoryResult struct {
	Preset    RangePreset            `json:"preset"`
	From      time.Time              `json:"from"`
	To        time.Time              `json:"to"`
	Samples   []models.HistorySample `json:"samples"`
	Series    []models.Series        `json:"series"`
	QueriedAt time.Time              `json:"queried_at"`
	Err       error                  `json:"-"`
}

// HistoryService fetches and normalizes sensor history. A background
// refresh loop re-queries the current preset; preset changes trigger an
// immediate refresh.
type HistoryService struct {
	deviceUID string
	api       DeviceAPI
	log       *logger.Logger
	refresh   chan struct{}
	now       func() time.Time

	mu        sync.Mutex
	preset    RangePreset
	nextSeq   uint64
	latestSeq uint64
	latest    *HistoryResult
}

func NewHistoryService(deviceUID string, api DeviceAPI, log *logger.Logger) *HistoryService {
	return &HistoryService{
		deviceUID: deviceUID,
		api:       api,
		log:       log.Named("history"),
		refresh:   make(chan struct{}, 1),
		now:       func() time.Time { return time.Now().UTC() },
		preset:    Range24h,
	}
}

// Query fetches one window and normalizes it. Results never depend on
// backend ordering: samples are sorted ascending, ties kept in arrival
// order.
func (s *HistoryService) Query(ctx context.Context, preset RangePreset) (HistoryResult, error) {
	window, err := preset.Window()
	if err != nil {
		return HistoryResult{}, err
	}
	to := s.now()
	from := to.Add(-window)
	res := HistoryResult{Preset: preset, From: from, To: to, QueriedAt: to}

	samples, err := s.api.History(ctx, s.deviceUID, from, to)
	if err != nil {
		res.Samples = []models.HistorySample{}
		res.Series = []models.Series{}
		res.Err = fmt.Errorf("query history: %w", err)
		return res, res.Err
	}

	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	res.Samples = samples
	res.Series = buildSeries(samples)
	return res, nil
}

// SetPreset switches the active window and triggers a refresh.
func (s *HistoryService) SetPreset(preset RangePreset) error {
	if _, err := preset.Window(); err != nil {
		return err
	}
	s.mu.Lock()
	changed := s.preset != preset
	s.preset = preset
	s.mu.Unlock()

	if changed {
		s.TriggerRefresh()
	}
	return nil
}

func (s *HistoryService) Preset() RangePreset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.preset
}

// Latest returns the last stored result; ok is false before the first
// refresh completes.
func (s *HistoryService) Latest() (HistoryResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return HistoryResult{}, false
	}
	return *s.latest, true
}

// TriggerRefresh requests an out-of-band refresh without blocking.
func (s *HistoryService) TriggerRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// Run refreshes the active preset on a fixed cadence and on demand.
func (s *HistoryService) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = defaultHistoryRefresh
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.doRefresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.doRefresh(ctx)
		case <-s.refresh:
			s.doRefresh(ctx)
		}
	}
}

// doRefresh queries the current preset and stores the result unless it
// went stale while in flight: the preset changed, or a later-started
// query for the same preset already finished.
func (s *HistoryService) doRefresh(ctx context.Context) {
	s.mu.Lock()
	preset := s.preset
	seq := s.nextSeq
	s.nextSeq++
	s.mu.Unlock()

	res, err := s.Query(ctx, preset)
	if err != nil {
		s.log.Warnw("history refresh failed", "preset", preset, "error", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if preset != s.preset {
		return
	}
	if s.latest != nil && s.latest.Preset == preset && s.latestSeq > seq {
		return
	}
	s.latest = &res
	s.latestSeq = seq
}

var seriesMetrics = []struct {
	name  string
	value func(models.HistorySample) *float64
}{
	{models.MetricTemperature, func(s models.HistorySample) *float64 { return s.Temperature }},
	{models.MetricAirHumidity, func(s models.HistorySample) *float64 { return s.AirHumidity }},
	{models.MetricSoilMoisture, func(s models.HistorySample) *float64 { return s.SoilMoisture }},
}

// buildSeries splits samples into per-metric series. A sample missing a
// metric contributes no point to that series, so gaps stay gaps.
func buildSeries(samples []models.HistorySample) []models.Series {
	out := make([]models.Series, 0, len(seriesMetrics))
	for _, m := range seriesMetrics {
		points := make([]models.SeriesPoint, 0, len(samples))
		for _, s := range samples {
			if v := m.value(s); v != nil {
				points = append(points, models.SeriesPoint{Timestamp: s.Timestamp, Value: *v})
			}
		}
		out = append(out, models.Series{Metric: m.name, Points: points})
	}
	return out
}
