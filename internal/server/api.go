package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/afroash/fevertrack/internal/chart"
	"github.com/afroash/fevertrack/internal/models"
	"github.com/afroash/fevertrack/internal/storage"
)

// APIHandler handles HTTP API requests for the tracker
type APIHandler struct {
	store   storage.Store
	builder *chart.Builder
	logger  zerolog.Logger

	// Last deleted batch, retained between requests for one level of
	// undo. The chart core never sees this.
	mu          sync.Mutex
	lastDeleted *models.UndoBuffer
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store storage.Store, builder *chart.Builder, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		store:   store,
		builder: builder,
		logger:  logger,
	}
}

// measurementRequest is the wire form of a temperature measurement
type measurementRequest struct {
	ID           int64   `json:"id,omitempty"`
	RecordedAt   string  `json:"recorded_at"`
	TemperatureC float64 `json:"temperature_c"`
	Notes        string  `json:"notes,omitempty"`
}

// medicationRequest is the wire form of a medication event
type medicationRequest struct {
	ID       int64  `json:"id,omitempty"`
	GivenAt  string `json:"given_at"`
	MedName  string `json:"med_name"`
	DoseDesc string `json:"dose_desc,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// HandleChart builds and returns the timeline figure. Both series are
// re-fetched fresh on every request; nothing is cached.
func (api *APIHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	readings, err := api.store.FetchMeasurements(0)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to fetch measurements")
		http.Error(w, "Failed to fetch measurements", http.StatusInternalServerError)
		return
	}

	meds, err := api.store.FetchMedications(0)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to fetch medications")
		http.Error(w, "Failed to fetch medications", http.StatusInternalServerError)
		return
	}

	fig := api.builder.Build(readings, meds, time.Now())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(fig)
}

// HandleMeasurements serves CRUD for temperature measurements
func (api *APIHandler) HandleMeasurements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listMeasurements(w, r)
	case http.MethodPost:
		api.addMeasurement(w, r)
	case http.MethodPut:
		api.updateMeasurement(w, r)
	case http.MethodDelete:
		api.deleteMeasurements(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *APIHandler) listMeasurements(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	readings, err := api.store.FetchMeasurements(limit)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to fetch measurements")
		http.Error(w, "Failed to fetch measurements", http.StatusInternalServerError)
		return
	}
	if readings == nil {
		readings = []*models.TemperatureReading{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(readings)
}

func (api *APIHandler) addMeasurement(w http.ResponseWriter, r *http.Request) {
	reading, ok := api.decodeMeasurement(w, r)
	if !ok {
		return
	}

	id, err := api.store.InsertMeasurement(reading)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to insert measurement")
		http.Error(w, "Failed to insert measurement", http.StatusInternalServerError)
		return
	}

	api.logger.Info().Int64("id", id).Float64("temp", reading.TemperatureC).Msg("Measurement added")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

func (api *APIHandler) updateMeasurement(w http.ResponseWriter, r *http.Request) {
	reading, ok := api.decodeMeasurement(w, r)
	if !ok {
		return
	}
	if reading.ID == 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := api.store.UpdateMeasurement(reading); err != nil {
		api.logger.Error().Err(err).Int64("id", reading.ID).Msg("Failed to update measurement")
		http.Error(w, "Failed to update measurement", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *APIHandler) deleteMeasurements(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buf, err := api.store.DeleteMeasurements(ids)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to delete measurements")
		http.Error(w, "Failed to delete measurements", http.StatusInternalServerError)
		return
	}

	api.retainUndo(buf)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"deleted": buf.Count()})
}

// decodeMeasurement parses and validates a measurement payload. Entry
// validation lives here, before persistence; the chart core never
// validates.
func (api *APIHandler) decodeMeasurement(w http.ResponseWriter, r *http.Request) (*models.TemperatureReading, bool) {
	var req measurementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}

	recordedAt, err := time.Parse(models.TimeLayoutMinute, req.RecordedAt)
	if err != nil {
		http.Error(w, fmt.Sprintf("recorded_at must match %s", models.TimeLayoutMinute), http.StatusBadRequest)
		return nil, false
	}

	reading := models.NewTemperatureReading(recordedAt, req.TemperatureC, strings.TrimSpace(req.Notes))
	reading.ID = req.ID
	if !reading.IsValid() {
		http.Error(w, "temperature_c must be between 30.0 and 45.0", http.StatusBadRequest)
		return nil, false
	}
	return reading, true
}

// HandleMedications serves CRUD for medication events
func (api *APIHandler) HandleMedications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.listMedications(w, r)
	case http.MethodPost:
		api.addMedication(w, r)
	case http.MethodPut:
		api.updateMedication(w, r)
	case http.MethodDelete:
		api.deleteMedications(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (api *APIHandler) listMedications(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	meds, err := api.store.FetchMedications(limit)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to fetch medications")
		http.Error(w, "Failed to fetch medications", http.StatusInternalServerError)
		return
	}
	if meds == nil {
		meds = []*models.MedicationEvent{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meds)
}

func (api *APIHandler) addMedication(w http.ResponseWriter, r *http.Request) {
	med, ok := api.decodeMedication(w, r)
	if !ok {
		return
	}

	id, err := api.store.InsertMedication(med)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to insert medication")
		http.Error(w, "Failed to insert medication", http.StatusInternalServerError)
		return
	}

	// Keep the lookup table in sync so the name shows up in the form.
	if _, err := api.store.AddMedicationName(med.MedName); err != nil {
		api.logger.Warn().Err(err).Str("name", med.MedName).Msg("Failed to record medication name")
	}

	api.logger.Info().Int64("id", id).Str("name", med.MedName).Msg("Medication added")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int64{"id": id})
}

func (api *APIHandler) updateMedication(w http.ResponseWriter, r *http.Request) {
	med, ok := api.decodeMedication(w, r)
	if !ok {
		return
	}
	if med.ID == 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := api.store.UpdateMedication(med); err != nil {
		api.logger.Error().Err(err).Int64("id", med.ID).Msg("Failed to update medication")
		http.Error(w, "Failed to update medication", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *APIHandler) deleteMedications(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	buf, err := api.store.DeleteMedications(ids)
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to delete medications")
		http.Error(w, "Failed to delete medications", http.StatusInternalServerError)
		return
	}

	api.retainUndo(buf)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"deleted": buf.Count()})
}

func (api *APIHandler) decodeMedication(w http.ResponseWriter, r *http.Request) (*models.MedicationEvent, bool) {
	var req medicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}

	givenAt, err := time.Parse(models.TimeLayoutMinute, req.GivenAt)
	if err != nil {
		http.Error(w, fmt.Sprintf("given_at must match %s", models.TimeLayoutMinute), http.StatusBadRequest)
		return nil, false
	}

	med := models.NewMedicationEvent(givenAt,
		strings.TrimSpace(req.MedName),
		strings.TrimSpace(req.DoseDesc),
		strings.TrimSpace(req.Notes))
	med.ID = req.ID
	if !med.IsValid() {
		http.Error(w, "med_name is required", http.StatusBadRequest)
		return nil, false
	}
	return med, true
}

// HandleMedicationNames serves CRUD for the known-medication lookup table
func (api *APIHandler) HandleMedicationNames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		names, err := api.store.FetchMedicationNames()
		if err != nil {
			api.logger.Error().Err(err).Msg("Failed to fetch medication names")
			http.Error(w, "Failed to fetch medication names", http.StatusInternalServerError)
			return
		}
		if names == nil {
			names = []*models.MedicationName{}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(names)

	case http.MethodPost:
		var req models.MedicationName
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		id, err := api.store.AddMedicationName(req.Name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int64{"id": id})

	case http.MethodPut:
		var req models.MedicationName
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
		if err := api.store.UpdateMedicationName(req.ID, req.Name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "id query parameter is required", http.StatusBadRequest)
			return
		}
		if err := api.store.DeleteMedicationName(id); err != nil {
			api.logger.Error().Err(err).Int64("id", id).Msg("Failed to delete medication name")
			http.Error(w, "Failed to delete medication name", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleExport returns a full table as a CSV attachment
func (api *APIHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	table := r.URL.Query().Get("table")
	csvText, err := api.store.ExportCSV(table)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", table))
	w.Write([]byte(csvText))
}

// HandleUndo restores the most recently deleted batch
func (api *APIHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	api.mu.Lock()
	buf := api.lastDeleted
	api.lastDeleted = nil
	api.mu.Unlock()

	if buf == nil || buf.Count() == 0 {
		http.Error(w, "Nothing to undo", http.StatusNotFound)
		return
	}

	if err := api.store.Restore(buf); err != nil {
		api.logger.Error().Err(err).Msg("Failed to restore deleted records")
		// Put the buffer back so the user can retry.
		api.retainUndo(buf)
		http.Error(w, "Failed to restore deleted records", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"restored": buf.Count(),
		"kind":     buf.Kind,
	})
}

// retainUndo keeps the latest non-empty deleted batch
func (api *APIHandler) retainUndo(buf *models.UndoBuffer) {
	if buf == nil || buf.Count() == 0 {
		return
	}
	api.mu.Lock()
	api.lastDeleted = buf
	api.mu.Unlock()
}

// parseLimit reads an optional positive limit query parameter
func parseLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 0
}

// parseIDs reads the ids query parameter, e.g. ids=3,7,12
func parseIDs(r *http.Request) ([]int64, error) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		return nil, fmt.Errorf("ids query parameter is required")
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
