package surveydashboard

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// ZoneKind classifies a canonical zone identifier.
type ZoneKind string

const (
	ZoneStatistical ZoneKind = "statistical" // 8 digits
	ZoneCity        ZoneKind = "city"        // C + 7 digits
	ZonePOI         ZoneKind = "poi"         // 000000 + 2 digits
	ZoneUnknown     ZoneKind = "unknown"
)

// NullZoneID marks trips whose origin falls outside the survey area.
const NullZoneID = "00000000"

// Zone is one statistical area or synthesized city area from the
// boundary source. Immutable once loaded.
type Zone struct {
	ID       string
	Name     string
	City     string
	CityCode string
	Kind     ZoneKind
	Geometry orb.Geometry
}

// CleanZoneID canonicalizes a raw survey zone identifier. Empty and
// NaN-like values map to the null zone. City identifiers keep their C
// prefix and are padded to 7 digits, short zero-led identifiers become
// POI zones (000000NN), anything else up to 8 digits is a statistical
// area. Longer identifiers are rejected.
func CleanZoneID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "none") {
		return NullZoneID, nil
	}
	// drop a decimal tail left over from spreadsheet floats ("123.0")
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return NullZoneID, nil
	}

	digits := keepDigits(s)

	if s[0] == 'C' || s[0] == 'c' {
		if len(digits) > 7 {
			return "", fmt.Errorf("invalid zone id %q: city code exceeds 7 digits", raw)
		}
		return "C" + leftPad(digits, 7), nil
	}
	if len(digits) <= 2 && s[0] == '0' {
		return "000000" + leftPad(digits, 2), nil
	}
	if len(digits) == 0 {
		return "", fmt.Errorf("invalid zone id %q: no digits", raw)
	}
	if len(digits) <= 8 {
		return leftPad(digits, 8), nil
	}
	return "", fmt.Errorf("invalid zone id %q: exceeds 8 digits", raw)
}

// KindOfZoneID reports the zone class of an already-canonical identifier.
func KindOfZoneID(id string) ZoneKind {
	switch {
	case len(id) == 8 && id[0] == 'C' && allDigits(id[1:]):
		return ZoneCity
	case len(id) == 8 && strings.HasPrefix(id, "000000") && allDigits(id):
		return ZonePOI
	case len(id) == 8 && allDigits(id):
		return ZoneStatistical
	default:
		return ZoneUnknown
	}
}

// IsValidZoneID reports whether id is in one of the canonical formats.
func IsValidZoneID(id string) bool {
	return KindOfZoneID(id) != ZoneUnknown
}

// POIZoneID converts a raw POI code (1..99) into its zone-ID form.
func POIZoneID(code int) string {
	return fmt.Sprintf("000000%02d", code)
}

// CityZoneID converts a city code into its zone-ID form.
func CityZoneID(code int) string {
	return fmt.Sprintf("C%07d", code)
}

// ZoneIDCensus counts zone kinds across a set of identifiers and
// collects the unknown ones. Used for input validation reporting.
type ZoneIDCensus struct {
	City        int
	Statistical int
	POI         int
	Unknown     []string
}

func CensusZoneIDs(ids []string) ZoneIDCensus {
	var c ZoneIDCensus
	for _, id := range ids {
		switch KindOfZoneID(id) {
		case ZoneCity:
			c.City++
		case ZoneStatistical:
			c.Statistical++
		case ZonePOI:
			c.POI++
		default:
			c.Unknown = append(c.Unknown, id)
		}
	}
	return c
}

// Helpers

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func leftPad(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
