package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"smartgarden/internal/models"

	"github.com/google/uuid"
)

type TelemetrySQLite struct {
	db *sql.DB
}

func NewTelemetrySQLite(db *sql.DB) *TelemetrySQLite { return &TelemetrySQLite{db: db} }

var _ TelemetryRepo = (*TelemetrySQLite)(nil)

const sqliteTimeLayout = "2006-01-02 15:04:05"

const insertTelemetrySQL = `
	INSERT INTO telemetry_log
		(id, device_uid, logged_at, source, temperature, air_humidity, soil_moisture, pump_state, control_mode)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Append inserts one record. Missing ID/LoggedAt are filled in.
func (r *TelemetrySQLite) Append(ctx context.Context, rec models.TelemetryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.LoggedAt.IsZero() {
		rec.LoggedAt = time.Now().UTC()
	} else {
		rec.LoggedAt = rec.LoggedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, insertTelemetrySQL,
		rec.ID,
		rec.DeviceUID,
		rec.LoggedAt.Format(sqliteTimeLayout),
		rec.Source,
		rec.Temperature,
		rec.AirHumidity,
		rec.SoilMoisture,
		nullableString(rec.PumpState),
		nullableString(rec.ControlMode),
	)
	return err
}

// List returns records for one device filtered by [from, to] inclusive,
// ordered ascending by logged_at.
func (r *TelemetrySQLite) List(ctx context.Context, deviceUID string, from, to time.Time) ([]models.TelemetryRecord, error) {
	conds := []string{"device_uid = ?"}
	args := []any{deviceUID}

	// Bounds travel in the same text layout the insert writes, so the
	// comparison stays lexicographic-safe.
	if !from.IsZero() {
		conds = append(conds, "logged_at >= ?")
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if !to.IsZero() {
		conds = append(conds, "logged_at <= ?")
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}

	q := `SELECT id, device_uid, logged_at, source, temperature, air_humidity, soil_moisture, pump_state, control_mode
		FROM telemetry_log
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY logged_at ASC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.TelemetryRecord, 0, 64)
	for rows.Next() {
		var (
			rec        models.TelemetryRecord
			pump, mode sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.DeviceUID,
			&rec.LoggedAt,
			&rec.Source,
			&rec.Temperature,
			&rec.AirHumidity,
			&rec.SoilMoisture,
			&pump,
			&mode,
		); err != nil {
			return nil, err
		}
		rec.LoggedAt = rec.LoggedAt.UTC()
		rec.PumpState = pump.String
		rec.ControlMode = mode.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// nullableString maps "" to NULL so absent enum fields stay absent.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
