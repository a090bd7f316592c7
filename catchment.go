package surveydashboard

import (
	"log"
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// kmPerDegree approximates planar degree distance at the survey
// latitude.
const kmPerDegree = 111.0

// CatchmentRow summarizes how far a POI draws its inbound trips from:
// trip-weighted average distance to the origin zone centroids and the
// distances within which 50/75/90 percent of trips originate.
type CatchmentRow struct {
	POIID         string  `json:"poi_id"`
	POIName       string  `json:"poi_name"`
	WeightedAvgKM float64 `json:"weighted_avg_km"`
	D50KM         float64 `json:"d50_km"`
	D75KM         float64 `json:"d75_km"`
	D90KM         float64 `json:"d90_km"`
	TotalTrips    float64 `json:"total_trips"`
	Zones         int     `json:"zones"`
}

// AnalyzeCatchment joins each POI's inbound per-zone totals with the
// zone centroid distances. Zones without geometry (the null zone among
// them) and zero-trip zones do not contribute.
func AnalyzeCatchment(set *AggregateSet, zones *ZoneIndex, pois *POIIndex) []CatchmentRow {
	var out []CatchmentRow
	for _, poi := range pois.All() {
		row := CatchmentRow{POIID: poi.ID, POIName: poi.Name}
		table := set.Table(poi.ID, DirectionInbound)
		if table != nil {
			type zoneDist struct {
				km float64
				w  float64
			}
			var contrib []zoneDist
			for _, tr := range table.Rows {
				if tr.TotalTrips <= 0 {
					continue
				}
				c, ok := zones.Centroid(tr.Tract)
				if !ok {
					continue
				}
				contrib = append(contrib, zoneDist{
					km: distanceKM(orb.Point{poi.Lon, poi.Lat}, c),
					w:  tr.TotalTrips,
				})
			}
			if len(contrib) > 0 {
				sort.Slice(contrib, func(i, j int) bool { return contrib[i].km < contrib[j].km })
				total, weighted := 0.0, 0.0
				for _, z := range contrib {
					total += z.w
					weighted += z.km * z.w
				}
				row.TotalTrips = total
				row.Zones = len(contrib)
				row.WeightedAvgKM = weighted / total
				cum := 0.0
				var got50, got75, got90 bool
				for _, z := range contrib {
					cum += z.w
					share := cum / total
					if !got50 && share >= 0.50 {
						row.D50KM, got50 = z.km, true
					}
					if !got75 && share >= 0.75 {
						row.D75KM, got75 = z.km, true
					}
					if !got90 && share >= 0.90 {
						row.D90KM, got90 = z.km, true
					}
				}
			}
		}
		out = append(out, row)
	}
	log.Printf("catchment: analyzed %d pois", len(out))
	return out
}

func distanceKM(a, b orb.Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx+dy*dy) * kmPerDegree
}
