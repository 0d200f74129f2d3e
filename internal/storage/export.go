package storage

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/afroash/fevertrack/internal/models"
)

// ExportCSV renders a full table as CSV text for download. Only the two
// record tables are exportable.
func (s *SQLiteStore) ExportCSV(table string) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	switch table {
	case "measurements":
		readings, err := s.FetchMeasurements(0)
		if err != nil {
			return "", err
		}
		if err := w.Write([]string{"id", "recorded_at", "temperature_c", "notes"}); err != nil {
			return "", fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, r := range readings {
			record := []string{
				strconv.FormatInt(r.ID, 10),
				models.FormatMinute(r.RecordedAt),
				strconv.FormatFloat(r.TemperatureC, 'f', 1, 64),
				r.Notes,
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("failed to write csv record: %w", err)
			}
		}

	case "medications":
		meds, err := s.FetchMedications(0)
		if err != nil {
			return "", err
		}
		if err := w.Write([]string{"id", "given_at", "med_name", "dose_desc", "notes"}); err != nil {
			return "", fmt.Errorf("failed to write csv header: %w", err)
		}
		for _, m := range meds {
			record := []string{
				strconv.FormatInt(m.ID, 10),
				models.FormatMinute(m.GivenAt),
				m.MedName,
				m.DoseDesc,
				m.Notes,
			}
			if err := w.Write(record); err != nil {
				return "", fmt.Errorf("failed to write csv record: %w", err)
			}
		}

	default:
		return "", fmt.Errorf("unsupported table for export: %q", table)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	return sb.String(), nil
}
