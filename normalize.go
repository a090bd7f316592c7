package surveydashboard

import (
	"log"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// TripRecord is one directed, fully resolved survey trip. OriginZoneID
// is the canonical zone at the non-POI end of the trip; for trips from
// outside the survey area it is the null zone.
type TripRecord struct {
	OriginZoneID string
	POIID        string
	Direction    Direction
	Mode         string
	Purpose      string
	Frequency    string
	EntryTime    ClockTime
	ExitTime     ClockTime
	Weight       float64
}

// NormalizeStats counts what happened to the raw rows. Dropped rows are
// excluded from every downstream aggregate but always accounted for.
type NormalizeStats struct {
	Rows         int `json:"rows"`
	Records      int `json:"records"`
	NonPOIRows   int `json:"non_poi_rows"`
	DroppedZone  int `json:"dropped_zone"`
	DroppedPOI   int `json:"dropped_poi"`
	OutsideTrips int `json:"outside_trips"`
	FuzzyMatches int `json:"fuzzy_matches"`
	UnknownModes int `json:"unknown_modes"`
}

// Normalizer maps raw survey identifiers onto the canonical zone and
// POI taxonomy.
type Normalizer struct {
	zones  *ZoneIndex
	pois   *POIIndex
	modes  map[string]string // raw lower -> canonical mode
	cutoff int

	cityMemo map[string]string // raw name -> zone ID ("" = no match)
	stats    NormalizeStats
}

func NewNormalizer(zones *ZoneIndex, pois *POIIndex, cfg MatchingConfig, modes map[string][]string) *Normalizer {
	rev := map[string]string{}
	for canonical, raws := range modes {
		rev[strings.ToLower(canonical)] = canonical
		for _, r := range raws {
			rev[strings.ToLower(strings.TrimSpace(r))] = canonical
		}
	}
	return &Normalizer{
		zones:    zones,
		pois:     pois,
		modes:    rev,
		cutoff:   cfg.CityScoreCutoff,
		cityMemo: map[string]string{},
	}
}

func (n *Normalizer) Stats() NormalizeStats { return n.stats }

// Normalize expands raw rows into directed trip records. A row touching
// a POI at one end yields one record; a POI at both ends yields two.
// Rows with no POI end, or whose counterpart zone cannot be resolved,
// are dropped and counted.
func (n *Normalizer) Normalize(rows []TripRow) []TripRecord {
	records := make([]TripRecord, 0, len(rows))
	for _, row := range rows {
		n.stats.Rows++
		fromPOI, fromDropped := n.resolvePOI(row.FromTract, row.FromName)
		toPOI, toDropped := n.resolvePOI(row.ToTract, row.ToName)
		if fromPOI == "" && toPOI == "" {
			if !fromDropped && !toDropped {
				n.stats.NonPOIRows++
			}
			continue
		}
		mode := n.normalizeMode(row.Mode)
		purpose := strings.TrimSpace(row.Purpose)
		freq := strings.TrimSpace(row.Frequency)

		if toPOI != "" {
			origin, ok := n.resolveZone(row.FromTract, row.FromName, row.Outside)
			if ok {
				records = append(records, TripRecord{
					OriginZoneID: origin,
					POIID:        toPOI,
					Direction:    DirectionInbound,
					Mode:         mode,
					Purpose:      purpose,
					Frequency:    freq,
					EntryTime:    row.EntryTime,
					ExitTime:     row.ExitTime,
					Weight:       row.Weight,
				})
				n.stats.Records++
			} else {
				n.stats.DroppedZone++
			}
		}
		if fromPOI != "" {
			origin, ok := n.resolveZone(row.ToTract, row.ToName, row.Outside)
			if ok {
				records = append(records, TripRecord{
					OriginZoneID: origin,
					POIID:        fromPOI,
					Direction:    DirectionOutbound,
					Mode:         mode,
					Purpose:      purpose,
					Frequency:    freq,
					EntryTime:    row.EntryTime,
					ExitTime:     row.ExitTime,
					Weight:       row.Weight,
				})
				n.stats.Records++
			} else {
				n.stats.DroppedZone++
			}
		}
	}
	s := n.stats
	log.Printf("normalized %d rows into %d records (non-poi %d, dropped zone %d, dropped poi %d, outside %d, fuzzy %d)",
		s.Rows, s.Records, s.NonPOIRows, s.DroppedZone, s.DroppedPOI, s.OutsideTrips, s.FuzzyMatches)
	return records
}

// resolvePOI returns the canonical POI zone ID when the tract (or, as a
// fallback, the place name) identifies a taxonomy POI. The second
// result reports a POI-format tract that missed the taxonomy.
func (n *Normalizer) resolvePOI(rawTract, rawName string) (string, bool) {
	id, err := CleanZoneID(rawTract)
	if err == nil && id != NullZoneID && KindOfZoneID(id) == ZonePOI {
		if _, ok := n.pois.ByID(id); ok {
			return id, false
		}
		// POI-format ID outside the taxonomy: try the name before
		// giving up on the row's POI end.
		if rawName != "" {
			if p, ok := n.pois.ByName(n.pois.StandardizeName(rawName)); ok {
				return p.ID, false
			}
		}
		log.Printf("normalize: poi tract %q not in taxonomy", rawTract)
		n.stats.DroppedPOI++
		return "", true
	}
	return "", false
}

// resolveZone maps the non-POI end of a trip onto a known zone: the
// tract itself, a taxonomy POI for POI-to-POI trips, or a city matched
// by name. Trips flagged as outside the survey area, and tracts empty
// in the source, land on the null zone. Anything else fails the record.
func (n *Normalizer) resolveZone(rawTract, rawName string, outside bool) (string, bool) {
	if outside {
		n.stats.OutsideTrips++
		return NullZoneID, true
	}
	id, cleanErr := CleanZoneID(rawTract)
	if cleanErr == nil && id != NullZoneID {
		if n.zones.Has(id) {
			return id, true
		}
		if KindOfZoneID(id) == ZonePOI && n.pois.IsPOIZone(id) {
			return id, true
		}
	}
	if cityID := n.resolveCity(rawName); cityID != "" {
		return cityID, true
	}
	if cleanErr == nil && id == NullZoneID {
		n.stats.OutsideTrips++
		return NullZoneID, true
	}
	return "", false
}

// resolveCity matches a free-text place name against the city pool,
// exact first, then fuzzy at the configured cutoff. Results are
// memoized per raw name.
func (n *Normalizer) resolveCity(raw string) string {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return ""
	}
	if id, ok := n.cityMemo[name]; ok {
		return id
	}
	pool := n.zones.CityNames()
	if id, ok := pool[name]; ok {
		n.cityMemo[name] = id
		return id
	}
	candidates := make([]string, 0, len(pool))
	for candidate := range pool {
		candidates = append(candidates, candidate)
	}
	sort.Strings(candidates)
	bestID, bestScore := "", 0
	for _, candidate := range candidates {
		if score := fuzzy.Ratio(name, candidate); score > bestScore {
			bestID, bestScore = pool[candidate], score
		}
	}
	if bestScore >= n.cutoff {
		n.stats.FuzzyMatches++
		log.Printf("normalize: fuzzy-matched city %q (score %d)", raw, bestScore)
		n.cityMemo[name] = bestID
		return bestID
	}
	log.Printf("normalize: no city match for %q (best score %d)", raw, bestScore)
	n.cityMemo[name] = ""
	return ""
}

func (n *Normalizer) normalizeMode(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := n.modes[key]; ok {
		return canonical
	}
	if key != "" {
		n.stats.UnknownModes++
	}
	return key
}
