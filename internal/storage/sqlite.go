package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/afroash/fevertrack/internal/models"
)

// Store defines the interface for health record storage
type Store interface {
	Close() error
	Migrate() error

	InsertMeasurement(r *models.TemperatureReading) (int64, error)
	UpdateMeasurement(r *models.TemperatureReading) error
	FetchMeasurements(limit int) ([]*models.TemperatureReading, error)
	DeleteMeasurements(ids []int64) (*models.UndoBuffer, error)

	InsertMedication(m *models.MedicationEvent) (int64, error)
	UpdateMedication(m *models.MedicationEvent) error
	FetchMedications(limit int) ([]*models.MedicationEvent, error)
	DeleteMedications(ids []int64) (*models.UndoBuffer, error)

	Restore(buf *models.UndoBuffer) error

	FetchMedicationNames() ([]*models.MedicationName, error)
	AddMedicationName(name string) (int64, error)
	UpdateMedicationName(id int64, name string) error
	DeleteMedicationName(id int64) error

	ExportCSV(table string) (string, error)
}

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore handles persistent storage of measurements and medications
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply performance pragmas for SQLite
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	// Auto-migrate schema
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("SQLite store initialized")

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the database schema if it doesn't exist
func (s *SQLiteStore) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS medication_names (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS measurements (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at   TEXT NOT NULL,
		temperature_c REAL NOT NULL,
		notes         TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_recorded_at ON measurements(recorded_at);

	CREATE TABLE IF NOT EXISTS medications (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		given_at  TEXT NOT NULL,
		med_name  TEXT NOT NULL,
		dose_desc TEXT,
		notes     TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_medications_given_at ON medications(given_at);

	INSERT OR IGNORE INTO medication_names(name)
	SELECT DISTINCT med_name FROM medications WHERE med_name IS NOT NULL AND TRIM(med_name) <> '';
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Debug().Msg("Database schema migrated")
	return nil
}

// InsertMeasurement inserts a single temperature measurement and
// returns its row id
func (s *SQLiteStore) InsertMeasurement(r *models.TemperatureReading) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO measurements (recorded_at, temperature_c, notes) VALUES (?, ?, ?)",
		models.FormatMinute(r.RecordedAt),
		r.TemperatureC,
		nullable(r.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert measurement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}
	return id, nil
}

// UpdateMeasurement updates an existing measurement by id
func (s *SQLiteStore) UpdateMeasurement(r *models.TemperatureReading) error {
	_, err := s.db.Exec(
		"UPDATE measurements SET recorded_at = ?, temperature_c = ?, notes = ? WHERE id = ?",
		models.FormatMinute(r.RecordedAt),
		r.TemperatureC,
		nullable(r.Notes),
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update measurement: %w", err)
	}
	return nil
}

// FetchMeasurements returns measurements ascending by recorded_at.
// limit <= 0 means no limit.
func (s *SQLiteStore) FetchMeasurements(limit int) ([]*models.TemperatureReading, error) {
	query := "SELECT id, recorded_at, temperature_c, notes FROM measurements ORDER BY recorded_at ASC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	var readings []*models.TemperatureReading
	for rows.Next() {
		var r models.TemperatureReading
		var recordedAt string
		var notes sql.NullString

		if err := rows.Scan(&r.ID, &recordedAt, &r.TemperatureC, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}

		r.RecordedAt, err = models.ParseTimestamp(r.ID, recordedAt)
		if err != nil {
			return nil, err
		}
		r.Notes = notes.String

		readings = append(readings, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return readings, nil
}

// DeleteMeasurements removes the given measurements and returns an undo
// buffer holding the deleted rows so the caller can restore them
func (s *SQLiteStore) DeleteMeasurements(ids []int64) (*models.UndoBuffer, error) {
	if len(ids) == 0 {
		return &models.UndoBuffer{Kind: models.UndoMeasurements}, nil
	}

	buf := &models.UndoBuffer{Kind: models.UndoMeasurements}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "SELECT id, recorded_at, temperature_c, notes FROM measurements WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := tx.Query(query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements for delete: %w", err)
	}

	for rows.Next() {
		var r models.TemperatureReading
		var recordedAt string
		var notes sql.NullString

		if err := rows.Scan(&r.ID, &recordedAt, &r.TemperatureC, &notes); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}

		r.RecordedAt, err = models.ParseTimestamp(r.ID, recordedAt)
		if err != nil {
			rows.Close()
			return nil, err
		}
		r.Notes = notes.String

		buf.Readings = append(buf.Readings, &r)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("error closing rows: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM measurements WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...); err != nil {
		return nil, fmt.Errorf("failed to delete measurements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("count", len(buf.Readings)).Msg("Deleted measurements")
	return buf, nil
}

// InsertMedication inserts a single medication event and returns its row id
func (s *SQLiteStore) InsertMedication(m *models.MedicationEvent) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO medications (given_at, med_name, dose_desc, notes) VALUES (?, ?, ?, ?)",
		models.FormatMinute(m.GivenAt),
		m.MedName,
		nullable(m.DoseDesc),
		nullable(m.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert medication: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}
	return id, nil
}

// UpdateMedication updates an existing medication event by id
func (s *SQLiteStore) UpdateMedication(m *models.MedicationEvent) error {
	_, err := s.db.Exec(
		"UPDATE medications SET given_at = ?, med_name = ?, dose_desc = ?, notes = ? WHERE id = ?",
		models.FormatMinute(m.GivenAt),
		m.MedName,
		nullable(m.DoseDesc),
		nullable(m.Notes),
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}
	return nil
}

// FetchMedications returns medication events ascending by given_at.
// limit <= 0 means no limit.
func (s *SQLiteStore) FetchMedications(limit int) ([]*models.MedicationEvent, error) {
	query := "SELECT id, given_at, med_name, dose_desc, notes FROM medications ORDER BY given_at ASC"
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}
	defer rows.Close()

	return scanMedications(rows)
}

// DeleteMedications removes the given medication events and returns an
// undo buffer holding the deleted rows
func (s *SQLiteStore) DeleteMedications(ids []int64) (*models.UndoBuffer, error) {
	if len(ids) == 0 {
		return &models.UndoBuffer{Kind: models.UndoMedications}, nil
	}

	buf := &models.UndoBuffer{Kind: models.UndoMedications}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := "SELECT id, given_at, med_name, dose_desc, notes FROM medications WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := tx.Query(query, idArgs(ids)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications for delete: %w", err)
	}

	buf.Medications, err = scanMedications(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec("DELETE FROM medications WHERE id IN ("+placeholders(len(ids))+")", idArgs(ids)...); err != nil {
		return nil, fmt.Errorf("failed to delete medications: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Int("count", len(buf.Medications)).Msg("Deleted medications")
	return buf, nil
}

// Restore re-inserts a previously deleted batch. Rows get fresh ids;
// the original ids belonged to the deleted rows and are not reused.
func (s *SQLiteStore) Restore(buf *models.UndoBuffer) error {
	if buf == nil || buf.Count() == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	switch buf.Kind {
	case models.UndoMeasurements:
		stmt, err := tx.Prepare("INSERT INTO measurements (recorded_at, temperature_c, notes) VALUES (?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()
		for _, r := range buf.Readings {
			if _, err := stmt.Exec(models.FormatMinute(r.RecordedAt), r.TemperatureC, nullable(r.Notes)); err != nil {
				return fmt.Errorf("failed to restore measurement: %w", err)
			}
		}
	case models.UndoMedications:
		stmt, err := tx.Prepare("INSERT INTO medications (given_at, med_name, dose_desc, notes) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()
		for _, m := range buf.Medications {
			if _, err := stmt.Exec(models.FormatMinute(m.GivenAt), m.MedName, nullable(m.DoseDesc), nullable(m.Notes)); err != nil {
				return fmt.Errorf("failed to restore medication: %w", err)
			}
		}
	default:
		return fmt.Errorf("unsupported undo kind: %q", buf.Kind)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().Str("kind", string(buf.Kind)).Int("count", buf.Count()).Msg("Restored deleted records")
	return nil
}

// FetchMedicationNames returns the known medication names ordered
// case-insensitively
func (s *SQLiteStore) FetchMedicationNames() ([]*models.MedicationName, error) {
	rows, err := s.db.Query("SELECT id, name FROM medication_names ORDER BY LOWER(name) ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query medication names: %w", err)
	}
	defer rows.Close()

	var names []*models.MedicationName
	for rows.Next() {
		var n models.MedicationName
		if err := rows.Scan(&n.ID, &n.Name); err != nil {
			return nil, fmt.Errorf("failed to scan medication name: %w", err)
		}
		names = append(names, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return names, nil
}

// AddMedicationName inserts a name if not already known and returns its
// id either way
func (s *SQLiteStore) AddMedicationName(name string) (int64, error) {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return 0, fmt.Errorf("medication name cannot be empty")
	}

	if _, err := s.db.Exec("INSERT OR IGNORE INTO medication_names(name) VALUES (?)", cleaned); err != nil {
		return 0, fmt.Errorf("failed to insert medication name: %w", err)
	}

	var id int64
	if err := s.db.QueryRow("SELECT id FROM medication_names WHERE name = ?", cleaned).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up medication name: %w", err)
	}
	return id, nil
}

// UpdateMedicationName renames a known medication
func (s *SQLiteStore) UpdateMedicationName(id int64, name string) error {
	cleaned := strings.TrimSpace(name)
	if cleaned == "" {
		return fmt.Errorf("medication name cannot be empty")
	}

	if _, err := s.db.Exec("UPDATE medication_names SET name = ? WHERE id = ?", cleaned, id); err != nil {
		return fmt.Errorf("failed to update medication name: %w", err)
	}
	return nil
}

// DeleteMedicationName removes a known medication name
func (s *SQLiteStore) DeleteMedicationName(id int64) error {
	if _, err := s.db.Exec("DELETE FROM medication_names WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete medication name: %w", err)
	}
	return nil
}

// scanMedications scans medication rows into a slice of events
func scanMedications(rows *sql.Rows) ([]*models.MedicationEvent, error) {
	var meds []*models.MedicationEvent
	for rows.Next() {
		var m models.MedicationEvent
		var givenAt string
		var doseDesc, notes sql.NullString

		if err := rows.Scan(&m.ID, &givenAt, &m.MedName, &doseDesc, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}

		var err error
		m.GivenAt, err = models.ParseTimestamp(m.ID, givenAt)
		if err != nil {
			return nil, err
		}
		m.DoseDesc = doseDesc.String
		m.Notes = notes.String

		meds = append(meds, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return meds, nil
}

// nullable maps an empty string to NULL so optional text columns stay
// NULL rather than empty
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// placeholders returns "?, ?, ..." for n parameters
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs converts ids to query arguments
func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
