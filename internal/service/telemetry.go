package service

import (
	"context"
	"errors"
	"time"

	"smartgarden/internal/models"
	"smartgarden/internal/repository"
)

var ErrInvalidTimeRange = errors.New("invalid time range: from is after to")

// LogFilter bounds a telemetry log query. Zero times mean unbounded.
type LogFilter struct {
	From time.Time
	To   time.Time
}

// TelemetryLogService reads the locally persisted observation log.
type TelemetryLogService struct {
	deviceUID string
	repo      repository.TelemetryRepo
}

func NewTelemetryLogService(deviceUID string, repo repository.TelemetryRepo) *TelemetryLogService {
	return &TelemetryLogService{deviceUID: deviceUID, repo: repo}
}

func (s *TelemetryLogService) List(ctx context.Context, f LogFilter) ([]models.TelemetryRecord, error) {
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, ErrInvalidTimeRange
	}
	return s.repo.List(ctx, s.deviceUID, f.From.UTC(), f.To.UTC())
}
