package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartgarden/internal/models"
)

func floatVal(v float64) *float64 { return &v }

func TestRangePreset_Window(t *testing.T) {
	cases := []struct {
		preset RangePreset
		want   time.Duration
	}{
		{Range1h, time.Hour},
		{Range6h, 6 * time.Hour},
		{Range24h, 24 * time.Hour},
		{Range7d, 7 * 24 * time.Hour},
	}
	for _, c := range cases {
		got, err := c.preset.Window()
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.preset, err)
		}
		if got != c.want {
			t.Fatalf("%s: window = %v, want %v", c.preset, got, c.want)
		}
	}

	if _, err := RangePreset("90m").Window(); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestHistoryQuery_SortsAndBuildsSeries(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	api := &fakeDeviceAPI{
		historyFn: func(ctx context.Context, deviceUID string, from, to time.Time) ([]models.HistorySample, error) {
			// Out of order on purpose; the middle sample misses soil moisture.
			return []models.HistorySample{
				{Timestamp: base.Add(2 * time.Minute), Temperature: floatVal(23), SoilMoisture: floatVal(40)},
				{Timestamp: base, Temperature: floatVal(21), SoilMoisture: floatVal(42)},
				{Timestamp: base.Add(time.Minute), Temperature: floatVal(22)},
			}, nil
		},
	}
	s := NewHistoryService("garden-1", api, testLogger())

	res, err := s.Query(context.Background(), Range1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(res.Samples))
	}
	for i := 1; i < len(res.Samples); i++ {
		if res.Samples[i].Timestamp.Before(res.Samples[i-1].Timestamp) {
			t.Fatalf("samples not ascending at index %d", i)
		}
	}

	var soil *models.Series
	for i := range res.Series {
		if res.Series[i].Metric == models.MetricSoilMoisture {
			soil = &res.Series[i]
		}
	}
	if soil == nil {
		t.Fatalf("missing soil moisture series")
	}
	// The gap sample contributes no point.
	if len(soil.Points) != 2 {
		t.Fatalf("soil points = %d, want 2", len(soil.Points))
	}
	if soil.Points[0].Value != 42 || soil.Points[1].Value != 40 {
		t.Fatalf("soil points out of order: %+v", soil.Points)
	}
}

func TestHistoryQuery_KeepsArrivalOrderForEqualTimestamps(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	api := &fakeDeviceAPI{
		historyFn: func(context.Context, string, time.Time, time.Time) ([]models.HistorySample, error) {
			// Three samples share one timestamp; temperature marks
			// their arrival order.
			return []models.HistorySample{
				{Timestamp: base.Add(time.Minute), Temperature: floatVal(99)},
				{Timestamp: base, Temperature: floatVal(1)},
				{Timestamp: base, Temperature: floatVal(2)},
				{Timestamp: base, Temperature: floatVal(3)},
			}, nil
		},
	}
	s := NewHistoryService("garden-1", api, testLogger())

	res, err := s.Query(context.Background(), Range1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{1, 2, 3, 99}
	if len(res.Samples) != len(want) {
		t.Fatalf("samples = %d, want %d", len(res.Samples), len(want))
	}
	for i, w := range want {
		if got := *res.Samples[i].Temperature; got != w {
			t.Fatalf("sample %d temperature = %v, want %v (equal timestamps must keep arrival order)", i, got, w)
		}
	}

	for i := range res.Series {
		if res.Series[i].Metric != models.MetricTemperature {
			continue
		}
		if len(res.Series[i].Points) != len(want) {
			t.Fatalf("temperature points = %d, want %d", len(res.Series[i].Points), len(want))
		}
		for j, w := range want {
			if got := res.Series[i].Points[j].Value; got != w {
				t.Fatalf("temperature point %d = %v, want %v", j, got, w)
			}
		}
	}
}

func TestHistoryQuery_BackendErrorYieldsEmptyResult(t *testing.T) {
	api := &fakeDeviceAPI{
		historyFn: func(context.Context, string, time.Time, time.Time) ([]models.HistorySample, error) {
			return nil, errors.New("502 bad gateway")
		},
	}
	s := NewHistoryService("garden-1", api, testLogger())

	res, err := s.Query(context.Background(), Range6h)
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.Err == nil {
		t.Fatalf("result must carry the error")
	}
	if len(res.Samples) != 0 || len(res.Series) != 0 {
		t.Fatalf("failed query must yield empty samples and series")
	}
	if res.Preset != Range6h {
		t.Fatalf("preset = %v, want %v", res.Preset, Range6h)
	}
}

func TestHistoryQuery_RequestsPresetWindow(t *testing.T) {
	var gotFrom, gotTo time.Time
	api := &fakeDeviceAPI{
		historyFn: func(_ context.Context, _ string, from, to time.Time) ([]models.HistorySample, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	s := NewHistoryService("garden-1", api, testLogger())
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.Query(context.Background(), Range7d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotTo.Equal(now) {
		t.Fatalf("to = %v, want %v", gotTo, now)
	}
	if !gotFrom.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("from = %v, want 7d before now", gotFrom)
	}
}

func TestSetPreset_RejectsUnknownAndTriggersRefresh(t *testing.T) {
	s := NewHistoryService("garden-1", &fakeDeviceAPI{}, testLogger())

	if err := s.SetPreset(RangePreset("2w")); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
	if got := s.Preset(); got != Range24h {
		t.Fatalf("preset changed on invalid input: %v", got)
	}

	if err := s.SetPreset(Range1h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Preset(); got != Range1h {
		t.Fatalf("preset = %v, want %v", got, Range1h)
	}
	select {
	case <-s.refresh:
	default:
		t.Fatalf("preset change must queue a refresh")
	}
}

func TestDoRefresh_StoresLatest(t *testing.T) {
	api := &fakeDeviceAPI{
		historyFn: func(context.Context, string, time.Time, time.Time) ([]models.HistorySample, error) {
			return []models.HistorySample{{Timestamp: time.Now().UTC(), Temperature: floatVal(20)}}, nil
		},
	}
	s := NewHistoryService("garden-1", api, testLogger())

	if _, ok := s.Latest(); ok {
		t.Fatalf("no result expected before first refresh")
	}
	s.doRefresh(context.Background())

	res, ok := s.Latest()
	if !ok {
		t.Fatalf("expected a stored result")
	}
	if res.Preset != Range24h || len(res.Samples) != 1 {
		t.Fatalf("stored result = %+v", res)
	}
}

func TestDoRefresh_DiscardsResultForStalePreset(t *testing.T) {
	s := NewHistoryService("garden-1", nil, testLogger())
	api := &fakeDeviceAPI{
		historyFn: func(context.Context, string, time.Time, time.Time) ([]models.HistorySample, error) {
			// Preset switches while this query is in flight.
			if err := s.SetPreset(Range1h); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return []models.HistorySample{{Timestamp: time.Now().UTC()}}, nil
		},
	}
	s.api = api

	s.doRefresh(context.Background())

	if _, ok := s.Latest(); ok {
		t.Fatalf("result for a stale preset must be discarded")
	}
}
