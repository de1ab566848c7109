package seed

import (
	"context"
	"regexp"
	"testing"

	"stealthcompany.com/healthdesk/internal/patients"
)

var phonePattern = regexp.MustCompile(`^\d{10,11}$`)

func TestGenerateProducesCompleteRecords(t *testing.T) {
	s := NewSeeder(patients.NewMemStore())

	generated := s.Generate(40)
	if len(generated) != 40 {
		t.Fatalf("Expected 40 patients, got %d", len(generated))
	}

	for i, p := range generated {
		if p.Name == "" {
			t.Errorf("Patient %d has no name", i)
		}
		if !phonePattern.MatchString(p.PhoneNumber) {
			t.Errorf("Patient %d phone %q fails the dashboard's 10-or-11-digit rule", i, p.PhoneNumber)
		}
		if p.DateOfAppointment == nil {
			t.Errorf("Patient %d has no appointment date", i)
		}
		if p.PatientID != "" {
			t.Errorf("Patient %d already carries a patientId before seeding", i)
		}
	}
}

func TestSeederRunStoresSequentialRecords(t *testing.T) {
	store := patients.NewMemStore()
	s := NewSeeder(store)

	if err := s.Run(context.Background(), 25); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	all, err := store.FindAll(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 25 {
		t.Fatalf("Expected 25 stored patients, got %d", len(all))
	}

	seen := make(map[string]bool)
	for _, p := range all {
		if p.PatientID == "" {
			t.Errorf("Stored patient %s has no patientId", p.ID)
		}
		if seen[p.PatientID] {
			t.Errorf("Duplicate patientId %s", p.PatientID)
		}
		seen[p.PatientID] = true
	}
	if !seen["P001"] || !seen["P025"] {
		t.Error("Expected a dense P001..P025 sequence")
	}
}
