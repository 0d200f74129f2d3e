package models

import (
	"fmt"
	"strings"
	"time"
)

// MedicationEvent represents a single administered medication dose.
type MedicationEvent struct {
	ID       int64     `json:"id"`
	GivenAt  time.Time `json:"given_at"`
	MedName  string    `json:"med_name"`
	DoseDesc string    `json:"dose_desc,omitempty"`
	Notes    string    `json:"notes,omitempty"`
}

// IsValid checks that the event carries a name and a timestamp.
func (m *MedicationEvent) IsValid() bool {
	if strings.TrimSpace(m.MedName) == "" {
		return false
	}
	if m.GivenAt.IsZero() {
		return false
	}
	return true
}

// Label returns the chart label for the event: the medication name,
// with the dose appended in parentheses when present.
func (m *MedicationEvent) Label() string {
	if m.DoseDesc != "" {
		return fmt.Sprintf("%s (%s)", m.MedName, m.DoseDesc)
	}
	return m.MedName
}

// String returns the event as a string
func (m *MedicationEvent) String() string {
	return fmt.Sprintf("GivenAt: %s, Medication: %s",
		m.GivenAt.Format(TimeLayoutMinute),
		m.Label())
}

// NewMedicationEvent creates an event, truncating the timestamp to
// minute precision (the precision the store keeps).
func NewMedicationEvent(givenAt time.Time, medName, doseDesc, notes string) *MedicationEvent {
	return &MedicationEvent{
		GivenAt:  givenAt.Truncate(time.Minute),
		MedName:  medName,
		DoseDesc: doseDesc,
		Notes:    notes,
	}
}

// Copy returns a deep copy of the event
func (m *MedicationEvent) Copy() *MedicationEvent {
	if m == nil {
		return nil
	}
	return &MedicationEvent{
		ID:       m.ID,
		GivenAt:  m.GivenAt,
		MedName:  m.MedName,
		DoseDesc: m.DoseDesc,
		Notes:    m.Notes,
	}
}

// MedicationName is a row of the known-medication lookup table, used to
// populate the name selection control in the entry form.
type MedicationName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
