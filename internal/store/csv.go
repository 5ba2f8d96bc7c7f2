package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lab271/sensorkb/internal/kb"
)

// ImportSensorsCSV loads typed sensor records from CSV with a header of
// id,name,type,location. Malformed rows abort the import with a
// row-numbered error rather than being deferred to query time.
func (s *Store) ImportSensorsCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := readCSV(r, []string{"id", "name", "type", "location"})
	if err != nil {
		return 0, err
	}

	count := 0
	for i, rec := range records {
		if rec[0] == "" || rec[1] == "" {
			return count, fmt.Errorf("row %d: sensor id and name are required", i+2)
		}
		sensor := kb.Sensor{ID: rec[0], Name: rec[1], Type: rec[2], Location: rec[3]}
		if err := s.AddSensor(ctx, sensor); err != nil {
			return count, fmt.Errorf("row %d: %w", i+2, err)
		}
		count++
	}
	return count, nil
}

// ImportReadingsCSV loads readings from CSV with a header of
// sensor_id,value,recorded_at. recorded_at is RFC 3339 and may be empty,
// meaning now. Rows referencing unknown sensors are rejected.
func (s *Store) ImportReadingsCSV(ctx context.Context, r io.Reader) (int, error) {
	records, err := readCSV(r, []string{"sensor_id", "value", "recorded_at"})
	if err != nil {
		return 0, err
	}

	count := 0
	for i, rec := range records {
		value, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return count, fmt.Errorf("row %d: invalid value %q: %w", i+2, rec[1], err)
		}
		var at time.Time
		if rec[2] != "" {
			at, err = time.Parse(time.RFC3339, rec[2])
			if err != nil {
				return count, fmt.Errorf("row %d: invalid recorded_at %q: %w", i+2, rec[2], err)
			}
		}
		if _, err := s.AddReading(ctx, rec[0], value, at); err != nil {
			return count, fmt.Errorf("row %d: %w", i+2, err)
		}
		count++
	}
	return count, nil
}

// readCSV parses r expecting exactly the given header columns, returning
// the data rows.
func readCSV(r io.Reader, header []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(header)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv is empty, expected header %v", header)
	}
	for i, col := range header {
		if records[0][i] != col {
			return nil, fmt.Errorf("csv header column %d is %q, expected %q", i+1, records[0][i], col)
		}
	}
	return records[1:], nil
}
