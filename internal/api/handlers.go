package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/metrics"
	"stealthcompany.com/healthdesk/internal/patients"
)

// CreatePatientHandler handles POST /patients. The service owns patient id
// assignment: whatever patientId the caller supplies is overwritten with the
// next value from the store's sequence before insert.
func CreatePatientHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req patients.Patient
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Error().Err(err).Msg("Failed to decode create patient request")
			metrics.RecordPatientRequest("create", "invalid_json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(createFailureResponse{Message: "Failed to add patient", Error: "invalid JSON"})
			return
		}

		pid, err := store.NextPatientID(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to allocate patientId")
			metrics.RecordPatientRequest("create", "store_error")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(createFailureResponse{Message: "Failed to add patient", Error: err.Error()})
			return
		}
		req.PatientID = pid
		req.ID = ""

		stored, err := store.Insert(r.Context(), &req)
		if err != nil {
			result := "store_error"
			if errors.Is(err, patients.ErrDuplicatePatientID) {
				result = "duplicate_id"
			}
			log.Error().Err(err).Str("patientId", pid).Msg("Failed to insert patient")
			metrics.RecordPatientRequest("create", result)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(createFailureResponse{Message: "Failed to add patient", Error: err.Error()})
			return
		}

		log.Info().
			Str("patientId", stored.PatientID).
			Str("id", stored.ID).
			Msg("Patient created")
		metrics.RecordPatientRequest("create", "success")

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(stored)
	}
}

// ListPatientsHandler handles GET /patients. No filtering, no pagination.
func ListPatientsHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		all, err := store.FindAll(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to list patients")
			metrics.RecordPatientRequest("list", "store_error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		metrics.RecordPatientRequest("list", "success")
		json.NewEncoder(w).Encode(all)
	}
}

// UpdatePatientHandler handles PUT /patients/{id}. Fields are passed through
// to the store without server-side validation; the dashboard owns the phone
// and date checks.
func UpdatePatientHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := mux.Vars(r)["id"]

		var fields patients.Patient
		if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
			log.Error().Err(err).Str("id", id).Msg("Failed to decode update patient request")
			metrics.RecordPatientRequest("update", "invalid_json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: "invalid JSON"})
			return
		}

		updated, err := store.UpdateByID(r.Context(), id, fields)
		if errors.Is(err, patients.ErrPatientNotFound) {
			log.Warn().Str("id", id).Msg("Update addressed a missing patient")
			metrics.RecordPatientRequest("update", "not_found")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(errorResponse{Error: "patient not found"})
			return
		}
		if err != nil {
			result := "store_error"
			if errors.Is(err, patients.ErrDuplicatePatientID) {
				result = "duplicate_id"
			}
			log.Error().Err(err).Str("id", id).Msg("Failed to update patient")
			metrics.RecordPatientRequest("update", result)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		metrics.RecordPatientRequest("update", "success")
		json.NewEncoder(w).Encode(updated)
	}
}

// DeletePatientHandler handles DELETE /patients/{id}. Deleting an id with no
// record still reports success; repeated deletes are idempotent.
func DeletePatientHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := mux.Vars(r)["id"]

		err := store.DeleteByID(r.Context(), id)
		if err != nil && !errors.Is(err, patients.ErrPatientNotFound) {
			log.Error().Err(err).Str("id", id).Msg("Failed to delete patient")
			metrics.RecordPatientRequest("delete", "store_error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		if errors.Is(err, patients.ErrPatientNotFound) {
			log.Warn().Str("id", id).Msg("Delete addressed a missing patient")
		}
		metrics.RecordPatientRequest("delete", "success")
		json.NewEncoder(w).Encode(messageResponse{Message: "Patient deleted successfully"})
	}
}

// MedicationAnalyticsHandler handles GET /analytics/most-prescribed-medications.
func MedicationAnalyticsHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		result, err := store.MedicationCounts(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to aggregate medication counts")
			metrics.RecordPatientRequest("analytics", "store_error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		metrics.RecordPatientRequest("analytics", "success")
		json.NewEncoder(w).Encode(result)
	}
}

// VisitsPerMonthHandler handles GET /patients/visits-per-month.
func VisitsPerMonthHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		result, err := store.VisitsByMonth(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to aggregate visits per month")
			metrics.RecordPatientRequest("analytics", "store_error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		metrics.RecordPatientRequest("analytics", "success")
		json.NewEncoder(w).Encode(result)
	}
}

// AverageAgeHandler handles GET /analytics/average-age-per-department.
func AverageAgeHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		result, err := store.AverageAgeByDepartment(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to aggregate average age per department")
			metrics.RecordPatientRequest("analytics", "store_error")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		metrics.RecordPatientRequest("analytics", "success")
		json.NewEncoder(w).Encode(result)
	}
}
