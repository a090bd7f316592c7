package surveydashboard

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
)

// AggregateBucket is one row of the flat aggregate table.
type AggregateBucket struct {
	POIID      string
	Direction  Direction
	Mode       string
	Purpose    string
	TimeBucket string
	TripCount  float64
}

// ZoneTableRow is one origin tract in a per-zone trip table. Shares are
// percentages of the tract's total, keyed by column label.
type ZoneTableRow struct {
	Tract      string
	TotalTrips float64
	Shares     map[string]float64
}

// ZoneTable is the per-POI, per-direction breakdown by origin tract.
type ZoneTable struct {
	POIID     string
	Direction Direction
	Columns   []string // share columns, ordered
	Rows      []ZoneTableRow
}

// TotalWeight sums the table's tract totals.
func (t *ZoneTable) TotalWeight() float64 {
	sum := 0.0
	for _, r := range t.Rows {
		sum += r.TotalTrips
	}
	return sum
}

// AggregateSet holds every grouped view of the resolved records.
type AggregateSet struct {
	Buckets    []AggregateBucket
	Tables     []*ZoneTable
	Modes      []string
	Purposes   []string
	TimeLabels []string

	tableIdx map[string]*ZoneTable
}

func (s *AggregateSet) Table(poiID string, dir Direction) *ZoneTable {
	return s.tableIdx[string(dir)+"/"+poiID]
}

var directions = []Direction{DirectionInbound, DirectionOutbound}

type tractAgg struct {
	total     float64
	mode      map[string]float64
	frequency map[string]float64
	purpose   map[string]float64
	arrival   map[int]float64
}

// Aggregate groups records by (POI, direction, mode, purpose, time
// bucket), summing weights. The emitted bucket list is dense: the cross
// product of the taxonomy POIs, both directions, and the observed mode,
// purpose and time-bucket vocabularies, zero-filled where no trips
// landed.
func Aggregate(records []TripRecord, pois *POIIndex, bucketMinutes int) *AggregateSet {
	type key struct {
		poi     string
		dir     Direction
		mode    string
		purpose string
		bucket  string
	}
	sums := map[key]float64{}
	modeSet := map[string]bool{}
	purposeSet := map[string]bool{}
	minBucket, maxBucket := -1, -1

	tracts := map[string]map[string]*tractAgg{} // dir/poi -> tract -> agg
	freqSet := map[string]bool{}

	for _, r := range records {
		bucket := BucketStart(r.EntryTime, bucketMinutes)
		label := BucketLabel(bucket)
		if minBucket < 0 || bucket < minBucket {
			minBucket = bucket
		}
		if bucket > maxBucket {
			maxBucket = bucket
		}
		modeSet[r.Mode] = true
		purposeSet[r.Purpose] = true
		freqSet[r.Frequency] = true
		sums[key{r.POIID, r.Direction, r.Mode, r.Purpose, label}] += r.Weight

		tk := string(r.Direction) + "/" + r.POIID
		byTract, ok := tracts[tk]
		if !ok {
			byTract = map[string]*tractAgg{}
			tracts[tk] = byTract
		}
		agg, ok := byTract[r.OriginZoneID]
		if !ok {
			agg = &tractAgg{
				mode:      map[string]float64{},
				frequency: map[string]float64{},
				purpose:   map[string]float64{},
				arrival:   map[int]float64{},
			}
			byTract[r.OriginZoneID] = agg
		}
		agg.total += r.Weight
		agg.mode[r.Mode] += r.Weight
		agg.frequency[r.Frequency] += r.Weight
		agg.purpose[r.Purpose] += r.Weight
		agg.arrival[r.EntryTime.Hour()] += r.Weight
	}

	modes := sortedKeys(modeSet)
	purposes := sortedKeys(purposeSet)
	freqs := sortedKeys(freqSet)
	labels := denseBucketLabels(minBucket, maxBucket, bucketMinutes)

	set := &AggregateSet{
		Modes:      modes,
		Purposes:   purposes,
		TimeLabels: labels,
		tableIdx:   map[string]*ZoneTable{},
	}
	for _, poi := range pois.All() {
		for _, dir := range directions {
			for _, mode := range modes {
				for _, purpose := range purposes {
					for _, label := range labels {
						set.Buckets = append(set.Buckets, AggregateBucket{
							POIID:      poi.ID,
							Direction:  dir,
							Mode:       mode,
							Purpose:    purpose,
							TimeBucket: label,
							TripCount:  sums[key{poi.ID, dir, mode, purpose, label}],
						})
					}
				}
			}
		}
	}

	columns := zoneTableColumns(modes, freqs, purposes)
	for _, poi := range pois.All() {
		for _, dir := range directions {
			table := buildZoneTable(poi.ID, dir, columns, modes, tracts[string(dir)+"/"+poi.ID])
			set.Tables = append(set.Tables, table)
			set.tableIdx[string(dir)+"/"+poi.ID] = table
		}
	}
	log.Printf("aggregated %d records into %d buckets across %d tables", len(records), len(set.Buckets), len(set.Tables))
	return set
}

func zoneTableColumns(modes, freqs, purposes []string) []string {
	var cols []string
	for _, m := range modes {
		cols = append(cols, "mode_"+m)
	}
	for _, f := range freqs {
		cols = append(cols, "frequency_"+f)
	}
	for _, p := range purposes {
		cols = append(cols, "purpose_"+p)
	}
	for h := 0; h < 24; h++ {
		cols = append(cols, "arrival_"+HourLabel(h))
	}
	return cols
}

func buildZoneTable(poiID string, dir Direction, columns, modes []string, byTract map[string]*tractAgg) *ZoneTable {
	table := &ZoneTable{POIID: poiID, Direction: dir, Columns: columns}
	var ids []string
	for tract := range byTract {
		ids = append(ids, tract)
	}
	sort.Strings(ids)
	for _, tract := range ids {
		agg := byTract[tract]
		row := ZoneTableRow{Tract: tract, TotalTrips: agg.total, Shares: map[string]float64{}}
		pct := func(v float64) float64 {
			if agg.total == 0 {
				return 0
			}
			return v / agg.total * 100
		}
		for label, v := range agg.mode {
			row.Shares["mode_"+label] = pct(v)
		}
		for label, v := range agg.frequency {
			row.Shares["frequency_"+label] = pct(v)
		}
		for label, v := range agg.purpose {
			row.Shares["purpose_"+label] = pct(v)
		}
		for hour, v := range agg.arrival {
			row.Shares["arrival_"+HourLabel(hour)] = pct(v)
		}
		if agg.total > 0 {
			sum := 0.0
			for _, m := range modes {
				sum += row.Shares["mode_"+m]
			}
			if math.Abs(sum-100) > 0.5 {
				log.Printf("zone table %s %s tract %s: mode shares sum to %.1f", poiID, dir, tract, sum)
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Helpers

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func denseBucketLabels(min, max, width int) []string {
	if min < 0 {
		return nil
	}
	var labels []string
	for b := min; b <= max; b += width {
		labels = append(labels, BucketLabel(b))
	}
	return labels
}

func formatWeight(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
