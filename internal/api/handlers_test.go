package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stealthcompany.com/healthdesk/internal/patients"
)

func newTestServer() (http.Handler, *patients.MemStore) {
	store := patients.NewMemStore()
	return SetupRoutes(store), store
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestCreatePatientAssignsSequentialIDs(t *testing.T) {
	h, _ := newTestServer()

	for i := 1; i <= 3; i++ {
		rr := doJSON(t, h, "POST", "/patients", map[string]any{
			"name":              "Alice Smith",
			"phoneNumber":       "0123456789",
			"dateOfAppointment": "2024-04-15",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		stored := decodeBody[patients.Patient](t, rr)
		want := fmt.Sprintf("P%03d", i)
		if stored.PatientID != want {
			t.Errorf("Expected patientId %s, got %s", want, stored.PatientID)
		}
		if stored.ID == "" {
			t.Error("Expected internal id to be assigned")
		}
	}
}

func TestCreateOverwritesCallerSuppliedPatientID(t *testing.T) {
	h, _ := newTestServer()

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"patientId":   "P999",
		"name":        "Bob Jones",
		"phoneNumber": "0123456789",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rr.Code)
	}
	stored := decodeBody[patients.Patient](t, rr)
	if stored.PatientID != "P001" {
		t.Errorf("Expected service-assigned P001, got %s", stored.PatientID)
	}
}

func TestCreateAcceptsUnvalidatedPhoneNumber(t *testing.T) {
	// Phone validation is client-side only; the endpoint stores whatever
	// it is given.
	h, _ := newTestServer()

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"name":        "Carol Davis",
		"phoneNumber": "not-a-phone",
	})
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestCreateRejectsInvalidJSON(t *testing.T) {
	h, _ := newTestServer()

	req := httptest.NewRequest("POST", "/patients", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["message"] != "Failed to add patient" {
		t.Errorf("Expected failure message, got %q", body["message"])
	}
}

func TestListRoundTrip(t *testing.T) {
	h, _ := newTestServer()

	input := map[string]any{
		"name":                  "Dan Garcia",
		"phoneNumber":           "01234567890",
		"dateOfAppointment":     "2024-04-15",
		"prescribedMedication":  "Metformin 500mg",
		"departmentOfAdmission": "Cardiology",
	}
	if rr := doJSON(t, h, "POST", "/patients", input); rr.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d", rr.Code)
	}

	rr := doJSON(t, h, "GET", "/patients", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	all := decodeBody[[]patients.Patient](t, rr)
	if len(all) != 1 {
		t.Fatalf("Expected 1 patient, got %d", len(all))
	}
	p := all[0]
	if p.Name != "Dan Garcia" ||
		p.PhoneNumber != "01234567890" ||
		p.PrescribedMedication != "Metformin 500mg" ||
		p.DepartmentOfAdmission != "Cardiology" {
		t.Errorf("Round-tripped fields do not match input: %+v", p)
	}
	if p.PatientID != "P001" || p.ID == "" {
		t.Errorf("Expected assigned identifiers, got patientId=%q id=%q", p.PatientID, p.ID)
	}
	if p.DateOfAppointment == nil || p.DateOfAppointment.UTC().Format("2006-01-02") != "2024-04-15" {
		t.Errorf("Appointment date mangled: %v", p.DateOfAppointment)
	}
}

func TestUpdatePatient(t *testing.T) {
	h, _ := newTestServer()

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"name":        "Erin Miller",
		"phoneNumber": "0123456789",
	})
	stored := decodeBody[patients.Patient](t, rr)

	rr = doJSON(t, h, "PUT", "/patients/"+stored.ID, map[string]any{
		"name":        "Erin Miller-Lopez",
		"phoneNumber": "9876543210",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	updated := decodeBody[patients.Patient](t, rr)
	if updated.Name != "Erin Miller-Lopez" {
		t.Errorf("Expected updated name, got %s", updated.Name)
	}
	if updated.PatientID != stored.PatientID {
		t.Errorf("Expected patientId retained, got %s", updated.PatientID)
	}

	rr = doJSON(t, h, "GET", "/patients", nil)
	all := decodeBody[[]patients.Patient](t, rr)
	if len(all) != 1 || all[0].Name != "Erin Miller-Lopez" {
		t.Errorf("Update not reflected in list: %+v", all)
	}
}

func TestUpdateMissingPatient(t *testing.T) {
	h, _ := newTestServer()

	rr := doJSON(t, h, "PUT", "/patients/no-such-id", map[string]any{"name": "X"})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestDeletePatient(t *testing.T) {
	h, _ := newTestServer()

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"name":        "Frank Wilson",
		"phoneNumber": "0123456789",
	})
	stored := decodeBody[patients.Patient](t, rr)

	rr = doJSON(t, h, "DELETE", "/patients/"+stored.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["message"] != "Patient deleted successfully" {
		t.Errorf("Unexpected delete message: %q", body["message"])
	}

	rr = doJSON(t, h, "GET", "/patients", nil)
	if all := decodeBody[[]patients.Patient](t, rr); len(all) != 0 {
		t.Errorf("Expected empty list after delete, got %d", len(all))
	}

	// Deleting again still reports success
	rr = doJSON(t, h, "DELETE", "/patients/"+stored.ID, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 on repeated delete, got %d", rr.Code)
	}
}

func TestMedicationAnalytics(t *testing.T) {
	h, _ := newTestServer()

	for _, med := range []string{"A", "B", "A"} {
		doJSON(t, h, "POST", "/patients", map[string]any{
			"name":                 "N",
			"phoneNumber":          "0123456789",
			"prescribedMedication": med,
		})
	}

	rr := doJSON(t, h, "GET", "/analytics/most-prescribed-medications", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	counts := decodeBody[[]patients.MedicationCount](t, rr)
	if len(counts) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(counts))
	}
	if counts[0].Medication != "A" || counts[0].Count != 2 {
		t.Errorf("Expected {A 2} first, got %+v", counts[0])
	}
	if counts[1].Medication != "B" || counts[1].Count != 1 {
		t.Errorf("Expected {B 1} second, got %+v", counts[1])
	}
}

func TestVisitsPerMonthAnalytics(t *testing.T) {
	h, _ := newTestServer()

	for _, appt := range []string{"2024-04-15", "2024-01-20"} {
		doJSON(t, h, "POST", "/patients", map[string]any{
			"name":              "N",
			"phoneNumber":       "0123456789",
			"dateOfAppointment": appt,
		})
	}

	rr := doJSON(t, h, "GET", "/patients/visits-per-month", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	visits := decodeBody[[]patients.MonthCount](t, rr)
	if len(visits) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(visits))
	}
	if visits[0].Month != "Apr" || visits[1].Month != "Jan" {
		t.Errorf("Expected lexical month order [Apr Jan], got %+v", visits)
	}
}

func TestAverageAgeAnalytics(t *testing.T) {
	h, _ := newTestServer()

	now := time.Now().UTC()
	dobForAge := func(age int) string {
		return now.AddDate(-age, 0, -1).Format("2006-01-02")
	}

	doJSON(t, h, "POST", "/patients", map[string]any{
		"name": "A", "phoneNumber": "0123456789",
		"dateOfBirth": dobForAge(30), "departmentOfAdmission": "Cardiology",
	})
	doJSON(t, h, "POST", "/patients", map[string]any{
		"name": "B", "phoneNumber": "0123456789",
		"dateOfBirth": dobForAge(40), "departmentOfAdmission": "Cardiology",
	})
	doJSON(t, h, "POST", "/patients", map[string]any{
		"name": "C", "phoneNumber": "0123456789",
		"departmentOfAdmission": "Cardiology", // no DOB, excluded entirely
	})

	rr := doJSON(t, h, "GET", "/analytics/average-age-per-department", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	ages := decodeBody[[]patients.DepartmentAge](t, rr)
	if len(ages) != 1 {
		t.Fatalf("Expected 1 department, got %d", len(ages))
	}
	if ages[0].Department != "Cardiology" || ages[0].AverageAge != 35 {
		t.Errorf("Expected {Cardiology 35}, got %+v", ages[0])
	}
}

func TestAverageAgeIgnoresBlankDateOfBirth(t *testing.T) {
	// The dashboard submits unset dates as "". Those records must be treated
	// as having no date of birth, not as born in year 1.
	h, _ := newTestServer()

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"name": "A", "phoneNumber": "0123456789",
		"dateOfBirth": "", "departmentOfAdmission": "Cardiology",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, "GET", "/analytics/average-age-per-department", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	ages := decodeBody[[]patients.DepartmentAge](t, rr)
	if len(ages) != 0 {
		t.Errorf("Expected no departments, got %+v", ages)
	}
}

func TestCreateRefusedDuringMaintenance(t *testing.T) {
	h, store := newTestServer()
	store.SetMaintenance(true)

	rr := doJSON(t, h, "POST", "/patients", map[string]any{
		"name":        "Grace Lee",
		"phoneNumber": "0123456789",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rr.Code)
	}
	body := decodeBody[map[string]string](t, rr)
	if body["message"] != "Failed to add patient" {
		t.Errorf("Expected failure message, got %q", body["message"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestServer()

	rr := doJSON(t, h, "GET", "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	body := decodeBody[map[string]any](t, rr)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["seeding"] != false {
		t.Errorf("Expected seeding false, got %v", body["seeding"])
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer()

	req := httptest.NewRequest("OPTIONS", "/patients", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS allow-origin header")
	}
}
