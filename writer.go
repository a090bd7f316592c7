package surveydashboard

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

// Writer serializes pipeline products into the output directory.
// Reruns overwrite in place; identical input yields byte-identical
// files (fixed ordering, fixed float formatting).
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string { return w.dir }

// WriteZoneTables writes one <POI-Name>_<direction>_trips.csv per POI
// and direction. Empty tables still produce a header-only file so the
// file set is stable across runs.
func (w *Writer) WriteZoneTables(set *AggregateSet, pois *POIIndex) error {
	for _, table := range set.Tables {
		poi, ok := pois.ByID(table.POIID)
		if !ok {
			continue
		}
		name := fmt.Sprintf("%s_%s_trips.csv", poi.Name, table.Direction)
		header := append([]string{"tract", "total_trips"}, table.Columns...)
		rows := make([][]string, 0, len(table.Rows))
		for _, r := range table.Rows {
			row := make([]string, 0, len(header))
			row = append(row, r.Tract, formatWeight(r.TotalTrips))
			for _, col := range table.Columns {
				row = append(row, formatPercent(r.Shares[col]))
			}
			rows = append(rows, row)
		}
		if err := w.writeCSV(name, header, rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteTemporal writes <poi_name>_<direction>_temporal.csv for every
// valid distribution plus the city average. Skipped distributions are
// not written.
func (w *Writer) WriteTemporal(dists []*TemporalDistribution, cityAvg *TemporalDistribution, pois *POIIndex) error {
	for _, d := range dists {
		if d.Skipped {
			continue
		}
		slug := FileSlug(d.POIID)
		if poi, ok := pois.ByID(d.POIID); ok {
			slug = FileSlug(poi.Name)
		}
		if err := w.writeDistribution(fmt.Sprintf("%s_%s_temporal.csv", slug, d.Direction), d); err != nil {
			return err
		}
	}
	if cityAvg != nil {
		if err := w.writeDistribution(fmt.Sprintf("%s_%s_temporal.csv", cityAvg.POIID, cityAvg.Direction), cityAvg); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeDistribution(name string, d *TemporalDistribution) error {
	header := []string{"bucket"}
	for _, m := range d.Modes {
		header = append(header, m+"_dist")
	}
	header = append(header, "all_dist")
	rows := make([][]string, 0, len(d.Labels))
	for i, label := range d.Labels {
		row := []string{label}
		for _, m := range d.Modes {
			row = append(row, formatShare(d.Dist[m][i]))
		}
		row = append(row, formatShare(d.Dist["all"][i]))
		rows = append(rows, row)
	}
	return w.writeCSV(name, header, rows)
}

// WriteBuckets writes the flat aggregate table.
func (w *Writer) WriteBuckets(set *AggregateSet) error {
	header := []string{"poi_id", "direction", "mode", "purpose", "time_bucket", "trip_count"}
	rows := make([][]string, 0, len(set.Buckets))
	for _, b := range set.Buckets {
		rows = append(rows, []string{
			b.POIID, string(b.Direction), b.Mode, b.Purpose, b.TimeBucket, formatWeight(b.TripCount),
		})
	}
	return w.writeCSV("buckets.csv", header, rows)
}

func (w *Writer) WriteCatchment(rows []CatchmentRow) error {
	header := []string{"poi_id", "poi_name", "weighted_avg_km", "d50_km", "d75_km", "d90_km", "total_trips", "zones"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.POIID, r.POIName,
			formatKM(r.WeightedAvgKM), formatKM(r.D50KM), formatKM(r.D75KM), formatKM(r.D90KM),
			formatWeight(r.TotalTrips), strconv.Itoa(r.Zones),
		})
	}
	return w.writeCSV("catchment.csv", header, out)
}

func (w *Writer) WriteCities(rows []CityRow, pois *POIIndex) error {
	header := []string{"city", "total_trips", "focus_share"}
	for _, poi := range pois.All() {
		header = append(header, "share_"+poi.Name)
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		row := []string{r.City, formatWeight(r.TotalTrips), formatPercent(r.FocusShare)}
		for _, poi := range pois.All() {
			row = append(row, formatPercent(r.POIShares[poi.Name]))
		}
		out = append(out, row)
	}
	return w.writeCSV("cities.csv", header, out)
}

// WriteZonesGeoJSON writes every indexed zone as one feature with
// zone_id, name and city properties.
func (w *Writer) WriteZonesGeoJSON(zones *ZoneIndex) error {
	fc := geojson.NewFeatureCollection()
	for _, z := range zones.All() {
		if z.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(z.Geometry)
		f.Properties["zone_id"] = z.ID
		f.Properties["name"] = z.Name
		f.Properties["city"] = z.City
		fc.Append(f)
	}
	return w.writeJSON("zones.geojson", fc)
}

func (w *Writer) WritePOIsGeoJSON(pois *POIIndex) error {
	fc := geojson.NewFeatureCollection()
	for _, p := range pois.All() {
		f := geojson.NewFeature(p.Point())
		f.Properties["poi_id"] = p.ID
		f.Properties["name"] = p.Name
		f.Properties["category"] = p.Category
		fc.Append(f)
	}
	return w.writeJSON("pois.geojson", fc)
}

// Helpers

func (w *Writer) writeCSV(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	log.Printf("wrote %s (%d rows)", name, len(rows))
	return nil
}

func (w *Writer) writeJSON(name string, v interface{}) error {
	path := filepath.Join(w.dir, name)
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Printf("wrote %s", name)
	return nil
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatShare(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatKM(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
