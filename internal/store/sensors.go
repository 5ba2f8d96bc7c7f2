package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lab271/sensorkb/internal/kb"
)

// AddSensor registers a sensor. A duplicate id is an error.
func (s *Store) AddSensor(ctx context.Context, sensor kb.Sensor) error {
	if sensor.ID == "" || sensor.Name == "" {
		return fmt.Errorf("sensor id and name are required")
	}
	if sensor.CreatedAt.IsZero() {
		sensor.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sensors (id, name, type, location, created_at) VALUES (?, ?, ?, ?, ?)`,
		sensor.ID, sensor.Name, sensor.Type, sensor.Location, sensor.CreatedAt,
	)
	if err != nil {
		return kb.WrapStorage("insert sensor", err)
	}
	return nil
}

// GetSensor returns a sensor by id, or kb.ErrNotFound.
func (s *Store) GetSensor(ctx context.Context, id string) (*kb.Sensor, error) {
	var sensor kb.Sensor
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, location, created_at FROM sensors WHERE id = ?`, id,
	).Scan(&sensor.ID, &sensor.Name, &sensor.Type, &sensor.Location, &sensor.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sensor %s: %w", id, kb.ErrNotFound)
	}
	if err != nil {
		return nil, kb.WrapStorage("get sensor", err)
	}
	return &sensor, nil
}

// ListSensors returns all sensors ordered by name.
func (s *Store) ListSensors(ctx context.Context) ([]kb.Sensor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, location, created_at FROM sensors ORDER BY name`)
	if err != nil {
		return nil, kb.WrapStorage("list sensors", err)
	}
	defer rows.Close()

	var sensors []kb.Sensor
	for rows.Next() {
		var sensor kb.Sensor
		if err := rows.Scan(&sensor.ID, &sensor.Name, &sensor.Type, &sensor.Location, &sensor.CreatedAt); err != nil {
			return nil, kb.WrapStorage("scan sensor", err)
		}
		sensors = append(sensors, sensor)
	}
	return sensors, rows.Err()
}

// AddReading records a time-series measurement for an existing sensor.
func (s *Store) AddReading(ctx context.Context, sensorID string, value float64, at time.Time) (*kb.Reading, error) {
	if _, err := s.GetSensor(ctx, sensorID); err != nil {
		return nil, err
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (sensor_id, value, recorded_at) VALUES (?, ?, ?)`,
		sensorID, value, at,
	)
	if err != nil {
		return nil, kb.WrapStorage("insert reading", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, kb.WrapStorage("insert reading", err)
	}
	return &kb.Reading{ID: id, SensorID: sensorID, Value: value, RecordedAt: at}, nil
}

// GetReadings returns up to limit readings for a sensor, newest first,
// optionally restricted to a time window.
func (s *Store) GetReadings(ctx context.Context, sensorID string, limit int, from, to time.Time) ([]kb.Reading, error) {
	if _, err := s.GetSensor(ctx, sensorID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, sensor_id, value, recorded_at FROM readings WHERE sensor_id = ?`
	args := []any{sensorID}
	if !from.IsZero() {
		query += ` AND recorded_at >= ?`
		args = append(args, from)
	}
	if !to.IsZero() {
		query += ` AND recorded_at <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY recorded_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kb.WrapStorage("get readings", err)
	}
	defer rows.Close()

	var readings []kb.Reading
	for rows.Next() {
		var r kb.Reading
		if err := rows.Scan(&r.ID, &r.SensorID, &r.Value, &r.RecordedAt); err != nil {
			return nil, kb.WrapStorage("scan reading", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
