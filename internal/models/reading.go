package models

import (
	"fmt"
	"time"
)

// TemperatureReading represents a single body temperature measurement.
type TemperatureReading struct {
	ID           int64     `json:"id"`
	RecordedAt   time.Time `json:"recorded_at"`
	TemperatureC float64   `json:"temperature_c"`
	Notes        string    `json:"notes,omitempty"`
}

// IsValid checks if the reading values are within acceptable ranges.
// Body temperature is only plausible between 30 and 45°C.
func (r *TemperatureReading) IsValid() bool {
	const (
		minTemp = 30.0
		maxTemp = 45.0
	)

	if r.RecordedAt.IsZero() {
		return false
	}

	if r.TemperatureC < minTemp || r.TemperatureC > maxTemp {
		return false
	}

	return true
}

// String returns the reading as a string
func (r *TemperatureReading) String() string {
	return fmt.Sprintf("RecordedAt: %s, Temperature: %.1f°C",
		r.RecordedAt.Format(TimeLayoutMinute),
		r.TemperatureC)
}

// NewTemperatureReading creates a reading, truncating the timestamp to
// minute precision (the precision the store keeps).
func NewTemperatureReading(recordedAt time.Time, temperatureC float64, notes string) *TemperatureReading {
	return &TemperatureReading{
		RecordedAt:   recordedAt.Truncate(time.Minute),
		TemperatureC: temperatureC,
		Notes:        notes,
	}
}

// Copy returns a deep copy of the reading
func (r *TemperatureReading) Copy() *TemperatureReading {
	if r == nil {
		return nil
	}
	return &TemperatureReading{
		ID:           r.ID,
		RecordedAt:   r.RecordedAt,
		TemperatureC: r.TemperatureC,
		Notes:        r.Notes,
	}
}
