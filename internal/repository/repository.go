package repository

import (
	"context"
	"database/sql"
	"time"

	"smartgarden/internal/models"
)

// OperatorRepo stores console accounts.
type OperatorRepo interface {
	Create(username, passwordHash string) (int, error)
	GetByUsername(username string) (*models.Operator, error)
}

// TelemetryRepo is the local observation log: every update the reconciler
// applies is appended here so the operator can inspect device behaviour even
// when the backend history endpoint is unreachable.
type TelemetryRepo interface {
	Append(ctx context.Context, rec models.TelemetryRecord) error
	List(ctx context.Context, deviceUID string, from, to time.Time) ([]models.TelemetryRecord, error)
}

type Repository struct {
	Telemetry TelemetryRepo
	Operators OperatorRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Telemetry: NewTelemetrySQLite(db),
		Operators: NewOperatorRepository(db),
	}
}
