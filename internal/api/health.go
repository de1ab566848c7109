package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/patients"
)

// HealthHandler reports liveness. While the seeder holds the maintenance
// lock the body carries seeding=true so the dashboard can show a loading
// state instead of a half-empty table.
func HealthHandler(store patients.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		seeding, err := store.UnderMaintenance(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to check maintenance lock")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
			return
		}

		json.NewEncoder(w).Encode(healthResponse{Status: "ok", Seeding: seeding})
	}
}
