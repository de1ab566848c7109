package patients

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory Store used by the memory store driver and the
// test suite. All operations are guarded by a single mutex.
type MemStore struct {
	mu          sync.RWMutex
	records     map[string]Patient
	order       []string
	claimed     map[string]bool
	counter     int
	seeded      bool
	maintenance bool
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]Patient),
		claimed: make(map[string]bool),
	}
}

// SetMaintenance flips the maintenance flag a bulk load would set, making
// every write refuse until it is cleared.
func (s *MemStore) SetMaintenance(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance = on
}

func (s *MemStore) Insert(_ context.Context, p *Patient) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maintenance {
		return nil, ErrMaintenance
	}
	if p.PatientID != "" && s.claimed[p.PatientID] {
		return nil, ErrDuplicatePatientID
	}

	stored := *p
	stored.ID = uuid.NewString()
	s.records[stored.ID] = stored
	s.order = append(s.order, stored.ID)
	if stored.PatientID != "" {
		s.claimed[stored.PatientID] = true
	}
	return &stored, nil
}

func (s *MemStore) FindAll(_ context.Context) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemStore) FindMaxPatientID(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxPatientIDLocked(), nil
}

func (s *MemStore) maxPatientIDLocked() string {
	max := ""
	for _, p := range s.records {
		if p.PatientID > max {
			max = p.PatientID
		}
	}
	return max
}

func (s *MemStore) NextPatientID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seeded {
		s.counter = ParsePatientID(s.maxPatientIDLocked())
		s.seeded = true
	}
	s.counter++
	return FormatPatientID(s.counter), nil
}

func (s *MemStore) UpdateByID(_ context.Context, id string, fields Patient) (*Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maintenance {
		return nil, ErrMaintenance
	}
	existing, ok := s.records[id]
	if !ok {
		return nil, ErrPatientNotFound
	}

	updated := fields
	updated.ID = id
	if updated.PatientID == "" {
		updated.PatientID = existing.PatientID
	}
	if updated.PatientID != existing.PatientID {
		if s.claimed[updated.PatientID] {
			return nil, ErrDuplicatePatientID
		}
		s.claimed[updated.PatientID] = true
		delete(s.claimed, existing.PatientID)
	}

	s.records[id] = updated
	return &updated, nil
}

func (s *MemStore) DeleteByID(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maintenance {
		return ErrMaintenance
	}
	existing, ok := s.records[id]
	if !ok {
		return ErrPatientNotFound
	}

	delete(s.records, id)
	delete(s.claimed, existing.PatientID)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemStore) MedicationCounts(_ context.Context) ([]MedicationCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var labels []string
	for _, id := range s.order {
		med := s.records[id].PrescribedMedication
		if _, seen := counts[med]; !seen {
			labels = append(labels, med)
		}
		counts[med]++
	}

	out := make([]MedicationCount, 0, len(labels))
	for _, label := range labels {
		out = append(out, MedicationCount{Medication: label, Count: counts[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func (s *MemStore) VisitsByMonth(_ context.Context) ([]MonthCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, id := range s.order {
		appt := s.records[id].DateOfAppointment
		if appt == nil || appt.IsZero() {
			continue
		}
		counts[MonthAbbrev(int(appt.UTC().Month()))]++
	}

	out := make([]MonthCount, 0, len(counts))
	for month, count := range counts {
		out = append(out, MonthCount{Month: month, Count: count})
	}
	// String order, not calendar order: "Apr" sorts before "Jan".
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out, nil
}

func (s *MemStore) AverageAgeByDepartment(_ context.Context) ([]DepartmentAge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, p := range s.records {
		if p.DateOfBirth == nil || p.DateOfBirth.IsZero() {
			continue
		}
		dept := p.DepartmentOfAdmission
		sums[dept] += AgeInYears(p.DateOfBirth.Time, now)
		counts[dept]++
	}

	out := make([]DepartmentAge, 0, len(sums))
	for dept, sum := range sums {
		out = append(out, DepartmentAge{
			Department: dept,
			AverageAge: float64(sum) / float64(counts[dept]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Department < out[j].Department
	})
	return out, nil
}

func (s *MemStore) UnderMaintenance(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maintenance, nil
}
