package patients

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatPatientID(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{1, "P001"},
		{42, "P042"},
		{999, "P999"},
		{1000, "P1000"}, // width grows naturally past 999
	}

	for _, tt := range tests {
		if got := FormatPatientID(tt.n); got != tt.expected {
			t.Errorf("FormatPatientID(%d) = %s, want %s", tt.n, got, tt.expected)
		}
	}
}

func TestParsePatientID(t *testing.T) {
	tests := []struct {
		id       string
		expected int
	}{
		{"P001", 1},
		{"P042", 42},
		{"P999", 999},
		{"P1000", 1000},
		{"", 0},
		{"P", 0},
		{"Pabc", 0},
	}

	for _, tt := range tests {
		if got := ParsePatientID(tt.id); got != tt.expected {
			t.Errorf("ParsePatientID(%q) = %d, want %d", tt.id, got, tt.expected)
		}
	}
}

func TestDateUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{
			name:     "Plain date from the dashboard",
			input:    `"2001-05-20"`,
			expected: "2001-05-20T00:00:00Z",
		},
		{
			name:     "Full RFC3339 timestamp",
			input:    `"2001-05-20T14:30:00Z"`,
			expected: "2001-05-20T14:30:00Z",
		},
		{
			name:     "Null leaves the zero value",
			input:    `null`,
			expected: "0001-01-01T00:00:00Z",
		},
		{
			name:        "Garbage is rejected",
			input:       `"yesterday"`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := d.UTC().Format(time.RFC3339); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestDateMarshalJSON(t *testing.T) {
	d := NewDate(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC))
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(b) != `"2024-04-15T00:00:00Z"` {
		t.Errorf("Expected RFC3339 UTC, got %s", b)
	}
}

func TestDateMarshalJSONZeroValue(t *testing.T) {
	var d Date
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("Expected null for the zero value, got %s", b)
	}
}

func TestMonthAbbrev(t *testing.T) {
	tests := []struct {
		month    int
		expected string
	}{
		{1, "Jan"},
		{4, "Apr"},
		{12, "Dec"},
		{0, ""},
		{13, ""},
	}

	for _, tt := range tests {
		if got := MonthAbbrev(tt.month); got != tt.expected {
			t.Errorf("MonthAbbrev(%d) = %q, want %q", tt.month, got, tt.expected)
		}
	}
}

func TestAgeInYears(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dob      time.Time
		expected int
	}{
		{
			name:     "Birthday already passed this year",
			dob:      time.Date(1996, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: 30,
		},
		{
			name:     "Birthday still ahead this year",
			dob:      time.Date(1996, 9, 1, 0, 0, 0, 0, time.UTC),
			expected: 29,
		},
		{
			name:     "Birthday today",
			dob:      time.Date(1996, 6, 15, 0, 0, 0, 0, time.UTC),
			expected: 30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeInYears(tt.dob, now); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
