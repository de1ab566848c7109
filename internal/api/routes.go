package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stealthcompany.com/healthdesk/internal/metrics"
	"stealthcompany.com/healthdesk/internal/patients"
)

// SetupRoutes configures and returns the HTTP handler
func SetupRoutes(store patients.Store) http.Handler {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.Middleware)

	// Patient record endpoints
	r.HandleFunc("/patients", CreatePatientHandler(store)).Methods("POST")
	r.HandleFunc("/patients", ListPatientsHandler(store)).Methods("GET")
	r.HandleFunc("/patients/visits-per-month", VisitsPerMonthHandler(store)).Methods("GET")
	r.HandleFunc("/patients/{id}", UpdatePatientHandler(store)).Methods("PUT")
	r.HandleFunc("/patients/{id}", DeletePatientHandler(store)).Methods("DELETE")

	// Analytics endpoints
	r.HandleFunc("/analytics/most-prescribed-medications", MedicationAnalyticsHandler(store)).Methods("GET")
	r.HandleFunc("/analytics/average-age-per-department", AverageAgeHandler(store)).Methods("GET")

	// Health endpoint
	r.HandleFunc("/health", HealthHandler(store)).Methods("GET")

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	// CORS wraps the router itself so OPTIONS preflights short-circuit
	return CORSMiddleware(r)
}
