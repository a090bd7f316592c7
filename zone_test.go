package surveydashboard

import (
	"testing"
)

func TestCleanZoneID(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{
			name:     "nan maps to null zone",
			input:    "nan",
			expected: "00000000",
		},
		{
			name:     "empty maps to null zone",
			input:    "",
			expected: "00000000",
		},
		{
			name:     "none maps to null zone",
			input:    "None",
			expected: "00000000",
		},
		{
			name:     "spreadsheet float tail",
			input:    "612090.0",
			expected: "00612090",
		},
		{
			name:     "six digit tract",
			input:    "612090",
			expected: "00612090",
		},
		{
			name:     "surrounding whitespace",
			input:    "  612090  ",
			expected: "00612090",
		},
		{
			name:     "already canonical tract",
			input:    "12345678",
			expected: "12345678",
		},
		{
			name:     "city code",
			input:    "C1234",
			expected: "C0001234",
		},
		{
			name:     "lowercase city code",
			input:    "c1234",
			expected: "C0001234",
		},
		{
			name:     "full city code",
			input:    "C1234567",
			expected: "C1234567",
		},
		{
			name:      "city code too long",
			input:     "C12345678",
			wantError: true,
		},
		{
			name:     "short poi code",
			input:    "02",
			expected: "00000002",
		},
		{
			name:     "poi code with float tail",
			input:    "07.0",
			expected: "00000007",
		},
		{
			name:     "canonical poi id stays canonical",
			input:    "00000002",
			expected: "00000002",
		},
		{
			name:      "nine digits rejected",
			input:     "123456789",
			wantError: true,
		},
		{
			name:      "no digits rejected",
			input:     "abc",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CleanZoneID(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error, got %q", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

// Cleaning an already-cleaned identifier must not change it again.
func TestCleanZoneIDIdempotent(t *testing.T) {
	inputs := []string{"nan", "612090.0", "C1234", "02", "12345678", "00000013"}
	for _, input := range inputs {
		once, err := CleanZoneID(input)
		if err != nil {
			t.Fatalf("CleanZoneID(%q): %v", input, err)
		}
		twice, err := CleanZoneID(once)
		if err != nil {
			t.Fatalf("CleanZoneID(%q): %v", once, err)
		}
		if twice != once {
			t.Errorf("expected %s, got %s", once, twice)
		}
	}
}

func TestKindOfZoneID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected ZoneKind
	}{
		{
			name:     "city",
			input:    "C1234567",
			expected: ZoneCity,
		},
		{
			name:     "poi",
			input:    "00000002",
			expected: ZonePOI,
		},
		{
			name:     "null zone counts as poi range",
			input:    "00000000",
			expected: ZonePOI,
		},
		{
			name:     "statistical",
			input:    "00612090",
			expected: ZoneStatistical,
		},
		{
			name:     "too short",
			input:    "0061209",
			expected: ZoneUnknown,
		},
		{
			name:     "letters in digits",
			input:    "C12345a7",
			expected: ZoneUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := KindOfZoneID(tt.input)
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestZoneIDConstructors(t *testing.T) {
	if got := POIZoneID(2); got != "00000002" {
		t.Errorf("expected 00000002, got %s", got)
	}
	if got := POIZoneID(13); got != "00000013" {
		t.Errorf("expected 00000013, got %s", got)
	}
	if got := CityZoneID(70); got != "C0000070" {
		t.Errorf("expected C0000070, got %s", got)
	}
	if !IsValidZoneID(POIZoneID(5)) {
		t.Error("poi zone id should be valid")
	}
	if IsValidZoneID("banana") {
		t.Error("non-canonical id should be invalid")
	}
}

func TestCensusZoneIDs(t *testing.T) {
	census := CensusZoneIDs([]string{
		"C1234567", "00612090", "00000002", "00000013", "oops", "12345678",
	})
	if census.City != 1 {
		t.Errorf("expected 1 city, got %d", census.City)
	}
	if census.Statistical != 2 {
		t.Errorf("expected 2 statistical, got %d", census.Statistical)
	}
	if census.POI != 2 {
		t.Errorf("expected 2 poi, got %d", census.POI)
	}
	if len(census.Unknown) != 1 || census.Unknown[0] != "oops" {
		t.Errorf("expected [oops], got %v", census.Unknown)
	}
}
