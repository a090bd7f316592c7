package surveydashboard

import (
	"log"
	"strings"

	"github.com/paulmach/orb"
)

// POI is one fixed destination tracked by the survey.
type POI struct {
	ID       string // zone-ID form, e.g. "00000002"
	Name     string // canonical hyphenated name
	Category string
	Lat      float64
	Lon      float64
}

// Point returns the POI location as lon/lat.
func (p POI) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Survey sources spell POI names many ways; aliases map every observed
// spelling to the canonical hyphenated name.
var poiAliases = map[string]string{
	"Emek Shara industrial area": "Emek-Sara-Industrial-Area",
	"BGU":                        "Ben-Gurion-University",
	"Soroka Hospital":            "Soroka-Medical-Center",
	"Yes Planet":                 "Yes-Planet",
	"Grand Kenyon":               "Grand-Kenyon",
	"Omer industrial area":       "Omer-Industrial-Area",
	"K collage":                  "Kaye-College",
	"HaNegev Mall":               "HaNegev-Mall",
	"BIG":                        "BIG",
	"Assuta Hospital":            "Assuta-Hospital",
	"Gev Yam":                    "Gav-Yam-High-Tech-Park",
	"Ramat Hovav Industry":       "Ramat-Hovav-Industrial-Zone",
	"Sami Shimon collage":        "SCE",

	// common shorthand
	"K":           "Kaye-College",
	"Kaye":        "Kaye-College",
	"Ben Gurion":  "Ben-Gurion-University",
	"Ben_Gurion":  "Ben-Gurion-University",
	"Emek Sara":   "Emek-Sara-Industrial-Area",
	"Gav Yam":     "Gav-Yam-High-Tech-Park",
	"Gev-Yam":     "Gav-Yam-High-Tech-Park",
	"HaNegev":     "HaNegev-Mall",
	"Soroka":      "Soroka-Medical-Center",
	"Assuta":      "Assuta-Hospital",
	"Omer":        "Omer-Industrial-Area",
	"Ramat Hovav": "Ramat-Hovav-Industrial-Zone",
	"Sami Shimon": "SCE",
}

// defaultPOIs is the built-in reference table: survey code, canonical
// name, category, and approximate coordinates. A POI coordinate file
// overrides coordinates and may add categories; the taxonomy itself is
// fixed.
var defaultPOIs = []POI{
	{ID: POIZoneID(1), Name: "Emek-Sara-Industrial-Area", Category: "industry", Lat: 31.2271875, Lon: 34.8090625},
	{ID: POIZoneID(2), Name: "Ben-Gurion-University", Category: "education", Lat: 31.2614375, Lon: 34.7995625},
	{ID: POIZoneID(3), Name: "Soroka-Medical-Center", Category: "health", Lat: 31.2579375, Lon: 34.8003125},
	{ID: POIZoneID(4), Name: "Yes-Planet", Category: "leisure", Lat: 31.2244375, Lon: 34.8010625},
	{ID: POIZoneID(5), Name: "Grand-Kenyon", Category: "retail", Lat: 31.2506875, Lon: 34.7716875},
	{ID: POIZoneID(6), Name: "Omer-Industrial-Area", Category: "industry", Lat: 31.2703125, Lon: 34.8364375},
	{ID: POIZoneID(7), Name: "Kaye-College", Category: "education", Lat: 31.2698125, Lon: 34.7815625},
	{ID: POIZoneID(8), Name: "HaNegev-Mall", Category: "retail", Lat: 31.2436875, Lon: 34.7949375},
	{ID: POIZoneID(9), Name: "BIG", Category: "retail", Lat: 31.2443125, Lon: 34.8114375},
	{ID: POIZoneID(10), Name: "Assuta-Hospital", Category: "health", Lat: 31.2451875, Lon: 34.7964375},
	{ID: POIZoneID(11), Name: "Gav-Yam-High-Tech-Park", Category: "employment", Lat: 31.2641875, Lon: 34.8128125},
	{ID: POIZoneID(12), Name: "Ramat-Hovav-Industrial-Zone", Category: "industry", Lat: 31.1361875, Lon: 34.7898125},
	{ID: POIZoneID(13), Name: "SCE", Category: "education", Lat: 31.2499375, Lon: 34.7893125},
}

// POIIndex resolves POI identifiers and names to the canonical taxonomy.
type POIIndex struct {
	byID       map[string]POI
	byName     map[string]POI // canonical name -> POI
	unmapped   map[string]int // fallback-standardized names seen -> count
	aliasLower map[string]string
}

func NewPOIIndex() *POIIndex {
	idx := &POIIndex{
		byID:       map[string]POI{},
		byName:     map[string]POI{},
		unmapped:   map[string]int{},
		aliasLower: map[string]string{},
	}
	for _, p := range defaultPOIs {
		idx.byID[p.ID] = p
		idx.byName[p.Name] = p
	}
	for alias, canonical := range poiAliases {
		idx.aliasLower[strings.ToLower(alias)] = canonical
		idx.aliasLower[strings.ToLower(canonical)] = canonical
	}
	return idx
}

// All returns the POIs ordered by ID.
func (x *POIIndex) All() []POI {
	out := make([]POI, 0, len(defaultPOIs))
	for _, p := range defaultPOIs {
		out = append(out, x.byID[p.ID])
	}
	return out
}

func (x *POIIndex) ByID(id string) (POI, bool) {
	p, ok := x.byID[id]
	return p, ok
}

func (x *POIIndex) ByName(canonical string) (POI, bool) {
	p, ok := x.byName[canonical]
	return p, ok
}

// IsPOIZone reports whether a canonical zone ID belongs to a known POI.
func (x *POIIndex) IsPOIZone(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// SetCoordinates overrides a POI's reference point from the coordinate
// file. Unknown IDs are ignored; the taxonomy is fixed.
func (x *POIIndex) SetCoordinates(id string, lat, lon float64) bool {
	p, ok := x.byID[id]
	if !ok {
		return false
	}
	p.Lat = lat
	p.Lon = lon
	x.byID[id] = p
	x.byName[p.Name] = p
	return true
}

// SetCategory overrides a POI's category from the coordinate file.
func (x *POIIndex) SetCategory(id, category string) bool {
	p, ok := x.byID[id]
	if !ok || category == "" {
		return false
	}
	p.Category = category
	x.byID[id] = p
	x.byName[p.Name] = p
	return true
}

// StandardizeName maps a raw POI name to its canonical form. Variants
// are tried in order: the raw name, spaces as hyphens, underscores as
// hyphens, any parenthetical suffix stripped, and the first word alone;
// each is matched case-insensitively against aliases and canonical
// names. With no match the name is hyphenated as-is and recorded as
// unmapped.
func (x *POIIndex) StandardizeName(raw string) string {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return ""
	}
	variants := []string{
		clean,
		strings.ReplaceAll(clean, " ", "-"),
		strings.ReplaceAll(clean, "_", "-"),
		strings.TrimSpace(strings.SplitN(clean, "(", 2)[0]),
		firstField(clean),
	}
	for _, v := range variants {
		if v == "" {
			continue
		}
		if canonical, ok := x.aliasLower[strings.ToLower(v)]; ok {
			return canonical
		}
	}
	fallback := strings.ReplaceAll(strings.ReplaceAll(clean, " ", "-"), "_", "-")
	if x.unmapped[fallback] == 0 {
		log.Printf("no standard mapping for POI name %q, using %q", raw, fallback)
	}
	x.unmapped[fallback]++
	return fallback
}

// UnmappedNames returns fallback names produced by StandardizeName with
// how often each was seen.
func (x *POIIndex) UnmappedNames() map[string]int {
	out := make(map[string]int, len(x.unmapped))
	for k, v := range x.unmapped {
		out[k] = v
	}
	return out
}

// FileSlug renders a canonical POI name for temporal output filenames.
func FileSlug(canonical string) string {
	return strings.ToLower(strings.ReplaceAll(canonical, "-", "_"))
}

// POIFromFilename extracts the canonical POI name and direction from a
// per-POI output filename such as "Ben-Gurion-University_inbound_trips.csv".
func (x *POIIndex) POIFromFilename(filename string) (string, Direction, bool) {
	base := strings.TrimSuffix(filename, ".csv")
	base = strings.TrimSuffix(base, "_trips")
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return "", "", false
	}
	dir := Direction(parts[len(parts)-1])
	if dir != DirectionInbound && dir != DirectionOutbound {
		return "", "", false
	}
	raw := strings.Join(parts[:len(parts)-1], " ")
	return x.StandardizeName(raw), dir, true
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
