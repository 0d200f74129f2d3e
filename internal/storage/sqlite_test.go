package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/fevertrack/internal/models"
)

// testLogger creates a logger for tests
func testLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fevertrack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")
	store, err := NewSQLiteStore(dbPath, testLogger())
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func testMeasurement(at time.Time, temp float64, notes string) *models.TemperatureReading {
	return models.NewTemperatureReading(at, temp, notes)
}

func testMedication(at time.Time, name, dose string) *models.MedicationEvent {
	return models.NewMedicationEvent(at, name, dose, "")
}

// TestNewSQLiteStore tests store creation
func TestNewSQLiteStore(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if store == nil {
		t.Fatal("Expected non-nil store")
	}

	if store.db == nil {
		t.Fatal("Expected non-nil database connection")
	}
}

// TestNewSQLiteStore_InvalidPath tests creation with invalid path
func TestNewSQLiteStore_InvalidPath(t *testing.T) {
	_, err := NewSQLiteStore("/nonexistent/path/that/cannot/exist/test.db", testLogger())
	if err == nil {
		t.Fatal("Expected error for invalid path")
	}
}

// TestMigrate_Idempotent tests that migration can be called multiple times
func TestMigrate_Idempotent(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.Migrate(); err != nil {
		t.Fatalf("Second migration failed: %v", err)
	}
	if err := store.Migrate(); err != nil {
		t.Fatalf("Third migration failed: %v", err)
	}
}

// TestMeasurementRoundTrip verifies persisting then fetching returns
// identical values at minute precision
func TestMeasurementRoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	id, err := store.InsertMeasurement(testMeasurement(at, 38.2, "morning"))
	if err != nil {
		t.Fatalf("InsertMeasurement failed: %v", err)
	}
	if id == 0 {
		t.Fatal("Expected non-zero id")
	}

	readings, err := store.FetchMeasurements(0)
	if err != nil {
		t.Fatalf("FetchMeasurements failed: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("Got %d readings, want 1", len(readings))
	}

	got := readings[0]
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if !got.RecordedAt.Equal(at) {
		t.Errorf("RecordedAt = %v, want %v", got.RecordedAt, at)
	}
	if got.TemperatureC != 38.2 {
		t.Errorf("TemperatureC = %v, want 38.2", got.TemperatureC)
	}
	if got.Notes != "morning" {
		t.Errorf("Notes = %q, want %q", got.Notes, "morning")
	}
}

// TestUpdateMeasurement tests updating an existing measurement
func TestUpdateMeasurement(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	id, err := store.InsertMeasurement(testMeasurement(at, 38.2, "morning"))
	if err != nil {
		t.Fatalf("InsertMeasurement failed: %v", err)
	}

	updated := testMeasurement(at.Add(time.Hour), 37.8, "")
	updated.ID = id
	if err := store.UpdateMeasurement(updated); err != nil {
		t.Fatalf("UpdateMeasurement failed: %v", err)
	}

	readings, err := store.FetchMeasurements(0)
	if err != nil {
		t.Fatalf("FetchMeasurements failed: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("Got %d readings, want 1", len(readings))
	}
	if !readings[0].RecordedAt.Equal(at.Add(time.Hour)) {
		t.Errorf("RecordedAt = %v, want %v", readings[0].RecordedAt, at.Add(time.Hour))
	}
	if readings[0].TemperatureC != 37.8 {
		t.Errorf("TemperatureC = %v, want 37.8", readings[0].TemperatureC)
	}
	if readings[0].Notes != "" {
		t.Errorf("Notes = %q, want empty", readings[0].Notes)
	}
}

// TestFetchMeasurements_Ascending verifies fetch order regardless of
// insert order
func TestFetchMeasurements_Ascending(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	offsets := []time.Duration{2 * time.Hour, 0, time.Hour}
	for _, off := range offsets {
		if _, err := store.InsertMeasurement(testMeasurement(base.Add(off), 37.0, "")); err != nil {
			t.Fatalf("InsertMeasurement failed: %v", err)
		}
	}

	readings, err := store.FetchMeasurements(0)
	if err != nil {
		t.Fatalf("FetchMeasurements failed: %v", err)
	}
	if len(readings) != 3 {
		t.Fatalf("Got %d readings, want 3", len(readings))
	}
	for i := 1; i < len(readings); i++ {
		if readings[i].RecordedAt.Before(readings[i-1].RecordedAt) {
			t.Errorf("Readings not in ascending order at index %d", i)
		}
	}
}

// TestFetchMeasurements_Limit tests the optional limit
func TestFetchMeasurements_Limit(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := store.InsertMeasurement(testMeasurement(base.Add(time.Duration(i)*time.Hour), 37.0, "")); err != nil {
			t.Fatalf("InsertMeasurement failed: %v", err)
		}
	}

	readings, err := store.FetchMeasurements(2)
	if err != nil {
		t.Fatalf("FetchMeasurements failed: %v", err)
	}
	if len(readings) != 2 {
		t.Errorf("Got %d readings, want 2", len(readings))
	}
}

// TestMedicationRoundTrip tests medication insert and fetch
func TestMedicationRoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.InsertMedication(testMedication(at, "Paracetamol", "120 mg"))
	if err != nil {
		t.Fatalf("InsertMedication failed: %v", err)
	}

	meds, err := store.FetchMedications(0)
	if err != nil {
		t.Fatalf("FetchMedications failed: %v", err)
	}
	if len(meds) != 1 {
		t.Fatalf("Got %d medications, want 1", len(meds))
	}

	got := meds[0]
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if !got.GivenAt.Equal(at) {
		t.Errorf("GivenAt = %v, want %v", got.GivenAt, at)
	}
	if got.MedName != "Paracetamol" {
		t.Errorf("MedName = %q, want %q", got.MedName, "Paracetamol")
	}
	if got.DoseDesc != "120 mg" {
		t.Errorf("DoseDesc = %q, want %q", got.DoseDesc, "120 mg")
	}
}

// TestUpdateMedication tests clearing optional fields
func TestUpdateMedication(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.InsertMedication(models.NewMedicationEvent(at, "Paracetamol", "120 mg", "after meal"))
	if err != nil {
		t.Fatalf("InsertMedication failed: %v", err)
	}

	updated := models.NewMedicationEvent(at.Add(30*time.Minute), "Paracetamol", "", "")
	updated.ID = id
	if err := store.UpdateMedication(updated); err != nil {
		t.Fatalf("UpdateMedication failed: %v", err)
	}

	meds, err := store.FetchMedications(0)
	if err != nil {
		t.Fatalf("FetchMedications failed: %v", err)
	}
	if meds[0].DoseDesc != "" {
		t.Errorf("DoseDesc = %q, want empty", meds[0].DoseDesc)
	}
	if meds[0].Notes != "" {
		t.Errorf("Notes = %q, want empty", meds[0].Notes)
	}
	if !meds[0].GivenAt.Equal(at.Add(30 * time.Minute)) {
		t.Errorf("GivenAt = %v, want %v", meds[0].GivenAt, at.Add(30*time.Minute))
	}
}

// TestDeleteAndRestore tests delete returning an undo buffer and
// restoring it
func TestDeleteAndRestore(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	id1, _ := store.InsertMeasurement(testMeasurement(base, 37.2, "a"))
	id2, _ := store.InsertMeasurement(testMeasurement(base.Add(time.Hour), 38.4, ""))
	store.InsertMeasurement(testMeasurement(base.Add(2*time.Hour), 39.0, "c"))

	buf, err := store.DeleteMeasurements([]int64{id1, id2})
	if err != nil {
		t.Fatalf("DeleteMeasurements failed: %v", err)
	}
	if buf.Kind != models.UndoMeasurements {
		t.Errorf("Kind = %q, want %q", buf.Kind, models.UndoMeasurements)
	}
	if buf.Count() != 2 {
		t.Fatalf("Buffer count = %d, want 2", buf.Count())
	}

	readings, _ := store.FetchMeasurements(0)
	if len(readings) != 1 {
		t.Fatalf("Got %d readings after delete, want 1", len(readings))
	}

	if err := store.Restore(buf); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	readings, _ = store.FetchMeasurements(0)
	if len(readings) != 3 {
		t.Fatalf("Got %d readings after restore, want 3", len(readings))
	}
	if !readings[0].RecordedAt.Equal(base) {
		t.Errorf("Restored RecordedAt = %v, want %v", readings[0].RecordedAt, base)
	}
	if readings[0].TemperatureC != 37.2 {
		t.Errorf("Restored TemperatureC = %v, want 37.2", readings[0].TemperatureC)
	}
	if readings[0].Notes != "a" {
		t.Errorf("Restored Notes = %q, want %q", readings[0].Notes, "a")
	}
}

// TestDeleteMedicationsAndRestore tests the medication undo path
func TestDeleteMedicationsAndRestore(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	id, _ := store.InsertMedication(testMedication(at, "Ibuprofen", "5 ml"))

	buf, err := store.DeleteMedications([]int64{id})
	if err != nil {
		t.Fatalf("DeleteMedications failed: %v", err)
	}
	if buf.Count() != 1 {
		t.Fatalf("Buffer count = %d, want 1", buf.Count())
	}

	meds, _ := store.FetchMedications(0)
	if len(meds) != 0 {
		t.Fatalf("Got %d medications after delete, want 0", len(meds))
	}

	if err := store.Restore(buf); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	meds, _ = store.FetchMedications(0)
	if len(meds) != 1 {
		t.Fatalf("Got %d medications after restore, want 1", len(meds))
	}
	if meds[0].MedName != "Ibuprofen" || meds[0].DoseDesc != "5 ml" {
		t.Errorf("Restored medication = %q (%q)", meds[0].MedName, meds[0].DoseDesc)
	}
}

// TestRestore_Empty tests restoring a nil or empty buffer is a no-op
func TestRestore_Empty(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.Restore(nil); err != nil {
		t.Fatalf("Restore(nil) failed: %v", err)
	}
	if err := store.Restore(&models.UndoBuffer{Kind: models.UndoMeasurements}); err != nil {
		t.Fatalf("Restore(empty) failed: %v", err)
	}
}

// TestMedicationNamesCRUD tests the lookup table operations
func TestMedicationNamesCRUD(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	id, err := store.AddMedicationName("Ibuprofen")
	if err != nil {
		t.Fatalf("AddMedicationName failed: %v", err)
	}

	// Adding the same name returns the same id
	again, err := store.AddMedicationName("Ibuprofen")
	if err != nil {
		t.Fatalf("AddMedicationName (duplicate) failed: %v", err)
	}
	if again != id {
		t.Errorf("Duplicate add returned id %d, want %d", again, id)
	}

	if _, err := store.AddMedicationName("  "); err == nil {
		t.Error("Expected error for blank name")
	}

	if err := store.UpdateMedicationName(id, "Ibuprofen 100mg"); err != nil {
		t.Fatalf("UpdateMedicationName failed: %v", err)
	}

	names, err := store.FetchMedicationNames()
	if err != nil {
		t.Fatalf("FetchMedicationNames failed: %v", err)
	}
	if len(names) != 1 || names[0].Name != "Ibuprofen 100mg" {
		t.Fatalf("Names = %+v, want single Ibuprofen 100mg", names)
	}

	if err := store.DeleteMedicationName(id); err != nil {
		t.Fatalf("DeleteMedicationName failed: %v", err)
	}
	names, _ = store.FetchMedicationNames()
	if len(names) != 0 {
		t.Errorf("Got %d names after delete, want 0", len(names))
	}
}

// TestFetchMedicationNames_SortedCaseInsensitive tests the ordering
func TestFetchMedicationNames_SortedCaseInsensitive(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	for _, name := range []string{"paracetamol", "Aspirin", "ibuprofen"} {
		if _, err := store.AddMedicationName(name); err != nil {
			t.Fatalf("AddMedicationName failed: %v", err)
		}
	}

	names, err := store.FetchMedicationNames()
	if err != nil {
		t.Fatalf("FetchMedicationNames failed: %v", err)
	}

	got := make([]string, len(names))
	for i, n := range names {
		got[i] = n.Name
	}
	want := []string{"Aspirin", "ibuprofen", "paracetamol"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names order = %v, want %v", got, want)
		}
	}
}

// TestMigrate_SeedsNamesFromMedications tests the lookup table seed
func TestMigrate_SeedsNamesFromMedications(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if _, err := store.InsertMedication(testMedication(at, "Dafalgan", "")); err != nil {
		t.Fatalf("InsertMedication failed: %v", err)
	}

	// Re-running migration picks up names from existing medications
	if err := store.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	names, err := store.FetchMedicationNames()
	if err != nil {
		t.Fatalf("FetchMedicationNames failed: %v", err)
	}
	found := false
	for _, n := range names {
		if n.Name == "Dafalgan" {
			found = true
		}
	}
	if !found {
		t.Error("Expected Dafalgan to be seeded into medication_names")
	}
}

// TestFetchMeasurements_MalformedTimestamp verifies bad rows surface an
// error instead of being dropped
func TestFetchMeasurements_MalformedTimestamp(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if _, err := store.db.Exec(
		"INSERT INTO measurements (recorded_at, temperature_c) VALUES (?, ?)",
		"not-a-timestamp", 37.0,
	); err != nil {
		t.Fatalf("Raw insert failed: %v", err)
	}

	_, err := store.FetchMeasurements(0)
	if err == nil {
		t.Fatal("Expected error for malformed timestamp")
	}

	var malformed *models.MalformedTimestampError
	if !errors.As(err, &malformed) {
		t.Fatalf("Expected MalformedTimestampError, got %v", err)
	}
	if malformed.Raw != "not-a-timestamp" {
		t.Errorf("Raw = %q, want %q", malformed.Raw, "not-a-timestamp")
	}
}
