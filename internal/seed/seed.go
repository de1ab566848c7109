package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"stealthcompany.com/healthdesk/internal/metrics"
	"stealthcompany.com/healthdesk/internal/patients"
)

// Sample data pools for generating realistic patient records
var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer",
		"Michael", "Linda", "William", "Elizabeth", "David", "Barbara",
		"Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah",
	}

	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
		"Miller", "Davis", "Rodriguez", "Martinez", "Wilson", "Anderson",
	}

	medications = []string{
		"Metformin 500mg", "Lisinopril 10mg", "Atorvastatin 20mg",
		"Omeprazole 20mg", "Albuterol inhaler", "Levothyroxine 75mcg",
		"Amlodipine 5mg", "Gabapentin 300mg", "Sertraline 50mg",
		"", // some records carry no prescription
	}

	departments = []string{
		"Cardiology", "Neurology", "Oncology", "Pediatrics",
		"Orthopedics", "General Medicine", "Emergency",
	}
)

// Seeder bulk-loads generated sample patients through the store.
type Seeder struct {
	store patients.Store
	rng   *rand.Rand
}

// NewSeeder creates a seeder with its own randomness source.
func NewSeeder(store patients.Store) *Seeder {
	return &Seeder{
		store: store,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate produces n sample patients without ids; the Run loop assigns
// them through the store's sequence like any other create.
func (s *Seeder) Generate(n int) []patients.Patient {
	out := make([]patients.Patient, 0, n)
	now := time.Now().UTC()

	for i := 0; i < n; i++ {
		dob := now.AddDate(-(18 + s.rng.Intn(70)), 0, -s.rng.Intn(365))
		appt := now.AddDate(0, -s.rng.Intn(12), -s.rng.Intn(28))

		p := patients.Patient{
			Name:                  s.pick(firstNames) + " " + s.pick(lastNames),
			PhoneNumber:           s.phoneNumber(),
			DateOfAppointment:     patients.NewDate(appt),
			PrescribedMedication:  s.pick(medications),
			DepartmentOfAdmission: s.pick(departments),
		}
		// Roughly one in ten records has no recorded birth date.
		if s.rng.Intn(10) != 0 {
			p.DateOfBirth = patients.NewDate(dob)
		}
		out = append(out, p)
	}
	return out
}

// Run generates and stores count patients, recording seeding metrics.
func (s *Seeder) Run(ctx context.Context, count int) error {
	start := time.Now()
	generated := s.Generate(count)

	log.Info().Int("count", len(generated)).Msg("Generated sample patients")

	stored := 0
	failed := 0
	for i := range generated {
		pid, err := s.store.NextPatientID(ctx)
		if err != nil {
			metrics.RecordSeedRun(start, "failed", len(generated), stored, failed)
			return fmt.Errorf("failed to allocate patientId: %w", err)
		}
		generated[i].PatientID = pid

		if _, err := s.store.Insert(ctx, &generated[i]); err != nil {
			log.Error().
				Err(err).
				Str("patientId", pid).
				Msg("Failed to store sample patient")
			failed++
			continue
		}
		stored++

		if (i+1)%100 == 0 {
			log.Info().
				Int("processed", i+1).
				Int("total", len(generated)).
				Msg("Progress update")
		}
	}

	metrics.RecordSeedRun(start, "success", len(generated), stored, failed)

	log.Info().
		Int("total", len(generated)).
		Int("stored", stored).
		Int("failed", failed).
		Msg("Completed sample data load")

	return nil
}

func (s *Seeder) pick(pool []string) string {
	return pool[s.rng.Intn(len(pool))]
}

func (s *Seeder) phoneNumber() string {
	digits := 10
	if s.rng.Intn(2) == 0 {
		digits = 11
	}
	out := make([]byte, digits)
	out[0] = byte('1' + s.rng.Intn(9))
	for i := 1; i < digits; i++ {
		out[i] = byte('0' + s.rng.Intn(10))
	}
	return string(out)
}
