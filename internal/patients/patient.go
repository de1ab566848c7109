package patients

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Patient is the single record type the service manages. The internal ID is
// assigned by the store on insert and never changes; PatientID is the
// human-facing sequential identifier assigned by the service.
type Patient struct {
	ID                    string `json:"_id,omitempty"`
	PatientID             string `json:"patientId,omitempty"`
	Name                  string `json:"name"`
	DateOfBirth           *Date  `json:"dateOfBirth,omitempty"`
	PhoneNumber           string `json:"phoneNumber"`
	DateOfAppointment     *Date  `json:"dateOfAppointment,omitempty"`
	PrescribedMedication  string `json:"prescribedMedication"`
	DepartmentOfAdmission string `json:"departmentOfAdmission"`
}

// Date wraps time.Time so that the dashboard can submit plain YYYY-MM-DD
// values for editable fields while stored documents keep full RFC 3339
// timestamps in UTC.
type Date struct {
	time.Time
}

// NewDate returns a Date pinned to UTC.
func NewDate(t time.Time) *Date {
	return &Date{t.UTC()}
}

// MarshalJSON emits null for the zero value so a blank date submitted by
// the dashboard is stored as an absent one, not as year 1.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.UTC().Format(time.RFC3339))), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// FormatPatientID renders a sequence number as P001, P002, ... The width
// grows naturally past 999 (P1000) since this is a plain integer conversion.
func FormatPatientID(n int) string {
	return fmt.Sprintf("P%03d", n)
}

// ParsePatientID extracts the numeric suffix of a patient id. Absent or
// unparseable suffixes count as zero, matching the lenient parse the
// sequence generator relies on.
func ParsePatientID(id string) int {
	if len(id) < 2 {
		return 0
	}
	n, err := strconv.Atoi(id[1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var monthAbbrevs = [13]string{
	"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

// MonthAbbrev maps a calendar month number (1-12) to its three-letter
// English abbreviation.
func MonthAbbrev(m int) string {
	if m < 1 || m > 12 {
		return ""
	}
	return monthAbbrevs[m]
}

// AgeInYears computes age in whole years at the given instant, decrementing
// when the birthday has not yet occurred in the current year.
func AgeInYears(dob, now time.Time) int {
	dob, now = dob.UTC(), now.UTC()
	years := now.Year() - dob.Year()
	if dob.AddDate(years, 0, 0).After(now) {
		years--
	}
	return years
}
