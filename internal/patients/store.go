package patients

import (
	"context"
	"errors"
)

var (
	// ErrDuplicatePatientID reports a violated uniqueness constraint on
	// the human-facing patient id.
	ErrDuplicatePatientID = errors.New("patientId already exists")

	// ErrPatientNotFound reports an update or delete addressing an
	// internal id with no stored record.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrMaintenance reports a write refused because another process
	// holds the maintenance lock.
	ErrMaintenance = errors.New("store is under maintenance")
)

// MedicationCount is one group of the most-prescribed-medications
// aggregation. An empty medication value is its own group.
type MedicationCount struct {
	Medication string `json:"_id"`
	Count      int    `json:"count"`
}

// MonthCount is one group of the visits-per-month aggregation, keyed by the
// three-letter month abbreviation.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// DepartmentAge is one group of the average-age-per-department aggregation.
type DepartmentAge struct {
	Department string  `json:"_id"`
	AverageAge float64 `json:"averageAge"`
}

// Store is the persistence surface for patient records. Implementations
// provide per-document atomicity; NextPatientID is the only operation with
// cross-document coordination (an atomic counter).
type Store interface {
	// Insert stores a new record and returns it with its internal id
	// assigned. Fails with ErrDuplicatePatientID on a patientId
	// collision and with ErrMaintenance while another process holds the
	// maintenance lock.
	Insert(ctx context.Context, p *Patient) (*Patient, error)

	// FindAll returns every record in the store's natural order.
	FindAll(ctx context.Context) ([]Patient, error)

	// FindMaxPatientID returns the greatest patientId currently stored,
	// or "" when the store is empty or no record carries one.
	FindMaxPatientID(ctx context.Context) (string, error)

	// NextPatientID allocates the next sequential patient id, seeding the
	// sequence from the stored maximum on first use.
	NextPatientID(ctx context.Context) (string, error)

	// UpdateByID replaces the mutable fields of the record addressed by
	// internal id. A patientId left empty in fields is retained from the
	// existing record; a changed one must not collide.
	UpdateByID(ctx context.Context, id string, fields Patient) (*Patient, error)

	// DeleteByID removes the record addressed by internal id.
	DeleteByID(ctx context.Context, id string) error

	// MedicationCounts groups records by prescribed medication and counts
	// occurrences, ordered by count descending. Tie order is whatever the
	// store yields and is not deterministic.
	MedicationCounts(ctx context.Context) ([]MedicationCount, error)

	// VisitsByMonth groups records by the UTC calendar month of their
	// appointment date, ordered by month abbreviation string ascending.
	// Records without an appointment date are excluded.
	VisitsByMonth(ctx context.Context) ([]MonthCount, error)

	// AverageAgeByDepartment averages whole-year ages per admission
	// department over records that carry a date of birth, ordered by
	// department ascending.
	AverageAgeByDepartment(ctx context.Context) ([]DepartmentAge, error)

	// UnderMaintenance reports whether a bulk load currently holds the
	// maintenance lock. Write operations refuse with ErrMaintenance
	// while a foreign holder has it; reads stay available.
	UnderMaintenance(ctx context.Context) (bool, error)
}
