package surveydashboard

import (
	"fmt"
	"log"
	"os"
	"time"
)

// RunReport summarizes one pipeline run for logs, health, metrics and
// the summary endpoint.
type RunReport struct {
	Load          LoadStats      `json:"load"`
	Normalize     NormalizeStats `json:"normalize"`
	Zones         int            `json:"zones"`
	CityZones     int            `json:"city_zones"`
	Buckets       int            `json:"buckets"`
	Tables        int            `json:"tables"`
	Distributions int            `json:"distributions"`
	OutputFiles   int            `json:"output_files"`
	Took          time.Duration  `json:"-"`
}

// RunPipeline executes the whole batch: load boundaries and the trip
// workbook, normalize, aggregate, distribute, analyze, write. Missing
// input files are fatal; malformed rows are skipped and counted.
func RunPipeline() (*RunReport, error) {
	start := time.Now()
	rep := &RunReport{}

	pois := NewPOIIndex()
	if path := Config.Inputs.POICoordinates; path != "" {
		if err := LoadPOICoordinates(path, pois); err != nil {
			return nil, err
		}
	}

	zones, err := LoadBoundaries(Config.Inputs.Boundaries, Config.Boundaries)
	if err != nil {
		return nil, err
	}
	rep.CityZones = BuildCityZones(zones)
	rep.Zones = zones.Len()
	for _, poi := range pois.All() {
		if _, ok := zones.ZoneContaining(poi.Point()); !ok {
			log.Printf("poi %s (%s) lies outside every loaded zone", poi.Name, poi.ID)
		}
	}

	rows, loadStats, err := LoadTripWorkbook(Config.Inputs.Trips, Config.Inputs.TripsSheet)
	if err != nil {
		return nil, err
	}
	rep.Load = loadStats

	norm := NewNormalizer(zones, pois, Config.Matching, Config.Modes)
	records := norm.Normalize(rows)
	rep.Normalize = norm.Stats()

	set := Aggregate(records, pois, Config.Temporal.BucketMinutes)
	rep.Buckets = len(set.Buckets)
	rep.Tables = len(set.Tables)

	dists, cityAvg := Distribute(records, pois, Config.Temporal, Config.Modes)
	rep.Distributions = len(dists)

	catchment := AnalyzeCatchment(set, zones, pois)
	cities := RollupCities(set, zones, pois, FocusPOIs(), Config.Analysis.TopCities)

	w, err := NewWriter(Config.Output.Dir)
	if err != nil {
		return nil, err
	}
	if err := w.WriteZoneTables(set, pois); err != nil {
		return nil, err
	}
	if err := w.WriteTemporal(dists, cityAvg, pois); err != nil {
		return nil, err
	}
	if err := w.WriteBuckets(set); err != nil {
		return nil, err
	}
	if err := w.WriteCatchment(catchment); err != nil {
		return nil, err
	}
	if err := w.WriteCities(cities, pois); err != nil {
		return nil, err
	}
	if err := w.WriteZonesGeoJSON(zones); err != nil {
		return nil, err
	}
	if err := w.WritePOIsGeoJSON(pois); err != nil {
		return nil, err
	}

	rep.OutputFiles, err = countFiles(w.Dir())
	if err != nil {
		return nil, err
	}
	rep.Took = time.Since(start)
	lastRunEpoch = time.Now().Unix()
	results.Set(rep, catchment, cities)
	log.Printf("pipeline done in %s: %d rows -> %d records, %d output files",
		rep.Took.Round(time.Millisecond), rep.Load.Rows, rep.Normalize.Records, rep.OutputFiles)
	return rep, nil
}

func countFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read output dir %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}
