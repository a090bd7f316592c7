package surveydashboard

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// LoadPOICoordinates reads the POI coordinate table and applies it to
// the index. Column order is free; headers are matched by name. Rows
// whose tract does not clean to a known POI are logged and skipped.
func LoadPOICoordinates(path string, pois *POIIndex) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open poi file %s: %w", path, err)
	}
	defer f.Close()

	rec, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("read poi file %s: %w", path, err)
	}
	if len(rec) == 0 {
		return fmt.Errorf("poi file %s is empty", path)
	}

	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	tract := idx("tract")
	name := idx("name")
	lat := idx("lat")
	lon := idx("lon")
	category := idx("category")
	if tract < 0 || lat < 0 || lon < 0 {
		return fmt.Errorf("poi file %s: need tract, lat and lon columns", path)
	}

	applied := 0
	for _, row := range rec[1:] {
		id, err := CleanZoneID(row[tract])
		if err != nil || KindOfZoneID(id) != ZonePOI {
			log.Printf("poi file: skipping row with tract %q", row[tract])
			continue
		}
		la, err1 := strconv.ParseFloat(strings.TrimSpace(row[lat]), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(row[lon]), 64)
		if err1 != nil || err2 != nil {
			log.Printf("poi file: bad coordinates for tract %s", id)
			continue
		}
		if !pois.SetCoordinates(id, la, lo) {
			raw := ""
			if name >= 0 && name < len(row) {
				raw = row[name]
			}
			log.Printf("poi file: tract %s (%s) not in taxonomy, skipped", id, raw)
			continue
		}
		if category >= 0 && category < len(row) {
			pois.SetCategory(id, strings.TrimSpace(row[category]))
		}
		applied++
	}
	log.Printf("applied coordinates for %d POIs from %s", applied, path)
	return nil
}
