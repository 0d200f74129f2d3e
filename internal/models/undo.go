package models

// UndoKind identifies which table an UndoBuffer was captured from.
type UndoKind string

const (
	UndoMeasurements UndoKind = "measurements"
	UndoMedications  UndoKind = "medications"
)

// UndoBuffer holds the last deleted batch of records so a delete can be
// reversed. It is a plain value owned by the caller: delete operations
// return one, Restore accepts one, and the HTTP layer keeps the most
// recent buffer between requests. Nothing else holds on to it.
type UndoBuffer struct {
	Kind        UndoKind              `json:"kind"`
	Readings    []*TemperatureReading `json:"readings,omitempty"`
	Medications []*MedicationEvent    `json:"medications,omitempty"`
}

// Count returns the number of records held in the buffer.
func (b *UndoBuffer) Count() int {
	if b == nil {
		return 0
	}
	if b.Kind == UndoMeasurements {
		return len(b.Readings)
	}
	return len(b.Medications)
}
