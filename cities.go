package surveydashboard

import (
	"log"
	"sort"
	"strings"
)

// CityRow is one city's rollup over every per-zone table: total trips
// from that city, the share going to each POI, and the share going to
// the focus-POI group.
type CityRow struct {
	City       string             `json:"city"`
	TotalTrips float64            `json:"total_trips"`
	POIShares  map[string]float64 `json:"poi_shares"` // POI name -> percent of city total
	FocusShare float64            `json:"focus_share"`
}

// RollupCities aggregates inbound per-zone totals by origin city and
// keeps the top-N cities by volume plus an "all" row. Tract-level
// origins are attributed to their zone's city; city-zone origins to
// that city; origins without a city (the null zone among them) are
// grouped under "unknown".
func RollupCities(set *AggregateSet, zones *ZoneIndex, pois *POIIndex, focus []string, topN int) []CityRow {
	focusSet := map[string]bool{}
	for _, name := range focus {
		focusSet[name] = true
	}

	perCity := map[string]map[string]float64{} // city -> POI name -> weight
	var order []string
	add := func(city, poiName string, w float64) {
		if city == "" {
			city = "unknown"
		}
		byPOI, ok := perCity[city]
		if !ok {
			byPOI = map[string]float64{}
			perCity[city] = byPOI
			order = append(order, city)
		}
		byPOI[poiName] += w
	}

	for _, poi := range pois.All() {
		table := set.Table(poi.ID, DirectionInbound)
		if table == nil {
			continue
		}
		for _, row := range table.Rows {
			if row.TotalTrips <= 0 {
				continue
			}
			city := ""
			if z, ok := zones.Get(row.Tract); ok {
				city = strings.TrimSpace(z.City)
			}
			add(city, poi.Name, row.TotalTrips)
		}
	}

	rows := make([]CityRow, 0, len(order))
	for _, city := range order {
		byPOI := perCity[city]
		row := CityRow{City: city, POIShares: map[string]float64{}}
		for _, w := range byPOI {
			row.TotalTrips += w
		}
		for _, poi := range pois.All() {
			w := byPOI[poi.Name]
			if row.TotalTrips > 0 {
				row.POIShares[poi.Name] = w / row.TotalTrips * 100
			}
			if focusSet[poi.Name] {
				row.FocusShare += row.POIShares[poi.Name]
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalTrips != rows[j].TotalTrips {
			return rows[i].TotalTrips > rows[j].TotalTrips
		}
		return rows[i].City < rows[j].City
	})
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	rows = append(rows, allCitiesRow(set, pois, focusSet))
	log.Printf("cities: %d rollup rows", len(rows))
	return rows
}

// allCitiesRow computes the same shares over every origin regardless of
// city resolution.
func allCitiesRow(set *AggregateSet, pois *POIIndex, focusSet map[string]bool) CityRow {
	row := CityRow{City: "all", POIShares: map[string]float64{}}
	perPOI := map[string]float64{}
	for _, poi := range pois.All() {
		table := set.Table(poi.ID, DirectionInbound)
		if table == nil {
			continue
		}
		w := table.TotalWeight()
		perPOI[poi.Name] = w
		row.TotalTrips += w
	}
	for _, poi := range pois.All() {
		if row.TotalTrips > 0 {
			row.POIShares[poi.Name] = perPOI[poi.Name] / row.TotalTrips * 100
		}
		if focusSet[poi.Name] {
			row.FocusShare += row.POIShares[poi.Name]
		}
	}
	return row
}
