package surveydashboard

import (
	"fmt"
	"log"
	"sort"
)

// BucketStart returns the start minute of the bucket holding t. A time
// exactly on a bucket edge belongs to the bucket starting there, the
// later one.
func BucketStart(t ClockTime, width int) int {
	if width <= 0 {
		width = 60
	}
	return int(t) / width * width
}

// BucketLabel formats a bucket start minute as HH:MM.
func BucketLabel(startMinutes int) string {
	return fmt.Sprintf("%02d:%02d", startMinutes/60, startMinutes%60)
}

type bucketCell struct {
	all  float64
	mode map[string]float64
}

// TemporalDistribution is the time-of-day profile of one POI and
// direction: a dense bucket sequence with one normalized series per
// standard mode plus the "all" series over every trip.
type TemporalDistribution struct {
	POIID         string
	Direction     Direction
	Labels        []string
	Modes         []string
	Dist          map[string][]float64
	MidnightShare float64
	Skipped       bool
}

// Distribute buckets entry times per POI and direction and normalizes
// each mode series to sum 1.0. POI/directions whose midnight bucket
// exceeds the skip share are marked Skipped and excluded from the city
// average; the city average itself is the mean of the valid inbound
// distributions, returned with POIID "city_average".
func Distribute(records []TripRecord, pois *POIIndex, cfg TemporalConfig, modeMapping map[string][]string) ([]*TemporalDistribution, *TemporalDistribution) {
	width := cfg.BucketMinutes
	if width <= 0 {
		width = 60
	}
	stdModes := make([]string, 0, len(modeMapping))
	for m := range modeMapping {
		stdModes = append(stdModes, m)
	}
	sort.Strings(stdModes)

	grids := map[string]map[int]*bucketCell{} // dir/poi -> bucket start -> cell
	for _, r := range records {
		k := string(r.Direction) + "/" + r.POIID
		grid, ok := grids[k]
		if !ok {
			grid = map[int]*bucketCell{}
			grids[k] = grid
		}
		b := BucketStart(r.EntryTime, width)
		c, ok := grid[b]
		if !ok {
			c = &bucketCell{mode: map[string]float64{}}
			grid[b] = c
		}
		c.all += r.Weight
		c.mode[r.Mode] += r.Weight
	}

	var dists []*TemporalDistribution
	for _, poi := range pois.All() {
		for _, dir := range directions {
			grid := grids[string(dir)+"/"+poi.ID]
			if len(grid) == 0 {
				continue
			}
			d := buildDistribution(poi.ID, dir, grid, width, stdModes)
			if d == nil {
				continue
			}
			switch {
			case d.MidnightShare > cfg.MidnightSkipShare:
				d.Skipped = true
				log.Printf("temporal: skipping %s %s, midnight share %.2f", poi.ID, dir, d.MidnightShare)
			case d.MidnightShare > cfg.MidnightWarnShare:
				log.Printf("temporal: %s %s midnight share %.2f", poi.ID, dir, d.MidnightShare)
			}
			dists = append(dists, d)
		}
	}
	return dists, cityAverage(dists, stdModes)
}

func buildDistribution(poiID string, dir Direction, grid map[int]*bucketCell, width int, stdModes []string) *TemporalDistribution {
	min, max := -1, -1
	total := 0.0
	for b, c := range grid {
		if min < 0 || b < min {
			min = b
		}
		if b > max {
			max = b
		}
		total += c.all
	}
	if total == 0 {
		return nil
	}
	d := &TemporalDistribution{
		POIID:     poiID,
		Direction: dir,
		Modes:     stdModes,
		Dist:      map[string][]float64{},
	}
	for b := min; b <= max; b += width {
		d.Labels = append(d.Labels, BucketLabel(b))
	}
	series := func(weightAt func(*bucketCell) float64) []float64 {
		sum := 0.0
		for _, c := range grid {
			sum += weightAt(c)
		}
		vals := make([]float64, 0, len(d.Labels))
		for b := min; b <= max; b += width {
			v := 0.0
			if c, ok := grid[b]; ok && sum > 0 {
				v = weightAt(c) / sum
			}
			vals = append(vals, v)
		}
		return vals
	}
	d.Dist["all"] = series(func(c *bucketCell) float64 { return c.all })
	for _, m := range stdModes {
		mode := m
		d.Dist[mode] = series(func(c *bucketCell) float64 { return c.mode[mode] })
	}
	if c, ok := grid[0]; ok {
		d.MidnightShare = c.all / total
	}
	return d
}

// cityAverage means the valid inbound distributions over the union of
// their bucket labels, absent buckets counting as zero. The mean of
// normalized series is itself normalized.
func cityAverage(dists []*TemporalDistribution, stdModes []string) *TemporalDistribution {
	var valid []*TemporalDistribution
	labelSet := map[string]bool{}
	for _, d := range dists {
		if d.Skipped || d.Direction != DirectionInbound {
			continue
		}
		valid = append(valid, d)
		for _, l := range d.Labels {
			labelSet[l] = true
		}
	}
	if len(valid) == 0 {
		return nil
	}
	labels := sortedKeys(labelSet)
	avg := &TemporalDistribution{
		POIID:     "city_average",
		Direction: DirectionInbound,
		Labels:    labels,
		Modes:     stdModes,
		Dist:      map[string][]float64{},
	}
	names := append([]string{"all"}, stdModes...)
	for _, name := range names {
		vals := make([]float64, len(labels))
		for _, d := range valid {
			at := map[string]float64{}
			for i, l := range d.Labels {
				at[l] = d.Dist[name][i]
			}
			for i, l := range labels {
				vals[i] += at[l]
			}
		}
		for i := range vals {
			vals[i] /= float64(len(valid))
		}
		avg.Dist[name] = vals
	}
	log.Printf("temporal: city average over %d inbound distributions", len(valid))
	return avg
}
