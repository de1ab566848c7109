package couchbase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/couchbase/gocb/v2"

	"stealthcompany.com/healthdesk/internal/patients"
)

// MedicationCounts groups patients by prescribed medication in N1QL. Rows
// with the same count come back in whatever order the query engine picks.
func (s *PatientStore) MedicationCounts(ctx context.Context) ([]patients.MedicationCount, error) {
	statement := fmt.Sprintf(
		"SELECT IFMISSINGORNULL(p.prescribedMedication, '') AS label, COUNT(*) AS count "+
			"FROM `%s` p WHERE p.`type` = %q "+
			"GROUP BY IFMISSINGORNULL(p.prescribedMedication, '') "+
			"ORDER BY count DESC",
		s.conn.GetBucketName(), patientDocType,
	)

	rows, err := s.conn.GetCluster().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query medication counts: %w", err)
	}
	defer rows.Close()

	out := make([]patients.MedicationCount, 0)
	for rows.Next() {
		var row struct {
			Label string `json:"label"`
			Count int    `json:"count"`
		}
		if err := rows.Row(&row); err != nil {
			return nil, fmt.Errorf("failed to scan medication row: %w", err)
		}
		out = append(out, patients.MedicationCount{Medication: row.Label, Count: row.Count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("medication count query failed: %w", err)
	}
	return out, nil
}

// VisitsByMonth groups patients by the UTC calendar month of their
// appointment date. The final ordering is by month abbreviation string, not
// calendar position, which the dashboard's chart relies on.
func (s *PatientStore) VisitsByMonth(ctx context.Context) ([]patients.MonthCount, error) {
	statement := fmt.Sprintf(
		"SELECT DATE_PART_STR(p.dateOfAppointment, 'month') AS month, COUNT(*) AS count "+
			"FROM `%s` p WHERE p.`type` = %q "+
			"AND p.dateOfAppointment IS NOT MISSING AND p.dateOfAppointment IS NOT NULL "+
			"GROUP BY DATE_PART_STR(p.dateOfAppointment, 'month')",
		s.conn.GetBucketName(), patientDocType,
	)

	rows, err := s.conn.GetCluster().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query visits per month: %w", err)
	}
	defer rows.Close()

	out := make([]patients.MonthCount, 0)
	for rows.Next() {
		var row struct {
			Month int `json:"month"`
			Count int `json:"count"`
		}
		if err := rows.Row(&row); err != nil {
			return nil, fmt.Errorf("failed to scan visits row: %w", err)
		}
		out = append(out, patients.MonthCount{Month: patients.MonthAbbrev(row.Month), Count: row.Count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("visits per month query failed: %w", err)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out, nil
}

// AverageAgeByDepartment fetches (department, dateOfBirth) pairs for
// patients with a recorded birth date and folds the whole-year ages in Go,
// so both store implementations share one age definition.
func (s *PatientStore) AverageAgeByDepartment(ctx context.Context) ([]patients.DepartmentAge, error) {
	statement := fmt.Sprintf(
		"SELECT IFMISSINGORNULL(p.departmentOfAdmission, '') AS department, p.dateOfBirth AS dob "+
			"FROM `%s` p WHERE p.`type` = %q "+
			"AND p.dateOfBirth IS NOT MISSING AND p.dateOfBirth IS NOT NULL",
		s.conn.GetBucketName(), patientDocType,
	)

	rows, err := s.conn.GetCluster().Query(statement, &gocb.QueryOptions{
		Context:         ctx,
		ScanConsistency: gocb.QueryScanConsistencyRequestPlus,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query ages: %w", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	sums := make(map[string]int)
	counts := make(map[string]int)
	for rows.Next() {
		var row struct {
			Department string        `json:"department"`
			DOB        patients.Date `json:"dob"`
		}
		if err := rows.Row(&row); err != nil {
			return nil, fmt.Errorf("failed to scan age row: %w", err)
		}
		sums[row.Department] += patients.AgeInYears(row.DOB.Time, now)
		counts[row.Department]++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("age query failed: %w", err)
	}

	out := make([]patients.DepartmentAge, 0, len(sums))
	for dept, sum := range sums {
		out = append(out, patients.DepartmentAge{
			Department: dept,
			AverageAge: float64(sum) / float64(counts[dept]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Department < out[j].Department
	})
	return out, nil
}
