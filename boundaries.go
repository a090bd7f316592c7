package surveydashboard

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ZoneIndex holds every known zone keyed by canonical ID, preserving
// load order for deterministic output.
type ZoneIndex struct {
	zones     map[string]Zone
	order     []string
	cityNames map[string]string // UPPER city name -> city zone ID
}

func NewZoneIndex() *ZoneIndex {
	return &ZoneIndex{
		zones:     map[string]Zone{},
		order:     []string{},
		cityNames: map[string]string{},
	}
}

func (x *ZoneIndex) Add(z Zone) {
	if _, ok := x.zones[z.ID]; !ok {
		x.order = append(x.order, z.ID)
	}
	x.zones[z.ID] = z
	if z.Kind == ZoneCity && z.Name != "" {
		x.cityNames[strings.ToUpper(strings.TrimSpace(z.Name))] = z.ID
	}
}

func (x *ZoneIndex) Get(id string) (Zone, bool) {
	z, ok := x.zones[id]
	return z, ok
}

func (x *ZoneIndex) Has(id string) bool {
	_, ok := x.zones[id]
	return ok
}

func (x *ZoneIndex) Len() int { return len(x.zones) }

// All returns zones in load order.
func (x *ZoneIndex) All() []Zone {
	out := make([]Zone, 0, len(x.order))
	for _, id := range x.order {
		out = append(out, x.zones[id])
	}
	return out
}

// CityNames maps uppercased city names to their city zone IDs, the
// match pool for fuzzy city resolution.
func (x *ZoneIndex) CityNames() map[string]string {
	out := make(map[string]string, len(x.cityNames))
	for k, v := range x.cityNames {
		out[k] = v
	}
	return out
}

// Centroid returns the planar centroid of a zone's geometry. Zones
// without geometry, or with degenerate zero-area geometry, have none.
func (x *ZoneIndex) Centroid(id string) (orb.Point, bool) {
	z, ok := x.zones[id]
	if !ok || z.Geometry == nil {
		return orb.Point{}, false
	}
	c, _ := planar.CentroidArea(z.Geometry)
	if math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		return orb.Point{}, false
	}
	return c, true
}

// ZoneContaining finds the statistical zone whose polygon contains the
// point. Bounding boxes are checked first.
func (x *ZoneIndex) ZoneContaining(pt orb.Point) (Zone, bool) {
	for _, id := range x.order {
		z := x.zones[id]
		if z.Kind != ZoneStatistical || z.Geometry == nil {
			continue
		}
		if !z.Geometry.Bound().Contains(pt) {
			continue
		}
		switch g := z.Geometry.(type) {
		case orb.Polygon:
			if planar.PolygonContains(g, pt) {
				return z, true
			}
		case orb.MultiPolygon:
			if planar.MultiPolygonContains(g, pt) {
				return z, true
			}
		}
	}
	return Zone{}, false
}

// LoadBoundaries reads the spatial-boundary source: a ZIP archive
// holding a shapefile or GeoJSON, a bare .shp, or a bare GeoJSON file.
// Attribute fields are located by the configured names. Coordinates
// are expected in WGS84 lon/lat.
func LoadBoundaries(path string, cfg BoundariesConfig) (*ZoneIndex, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return loadBoundaryZip(path, cfg)
	case ".shp":
		return loadShapefileZones(path, cfg)
	case ".geojson", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read boundaries %s: %w", path, err)
		}
		return parseGeoJSONZones(data, cfg)
	default:
		return nil, fmt.Errorf("boundaries %s: unsupported format", path)
	}
}

func loadBoundaryZip(path string, cfg BoundariesConfig) (*ZoneIndex, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open boundary archive %s: %w", path, err)
	}
	defer zr.Close()

	// GeoJSON members win; otherwise extract the shapefile triplet to a
	// temp dir since the shapefile reader works on paths.
	var shpMember string
	for _, f := range zr.File {
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".geojson", ".json":
			r, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s in %s: %w", f.Name, path, err)
			}
			data, err := io.ReadAll(r)
			r.Close()
			if err != nil {
				return nil, fmt.Errorf("read %s in %s: %w", f.Name, path, err)
			}
			return parseGeoJSONZones(data, cfg)
		case ".shp":
			shpMember = f.Name
		}
	}
	if shpMember == "" {
		return nil, fmt.Errorf("boundary archive %s has no shapefile or geojson", path)
	}

	tmp, err := os.MkdirTemp("", "boundaries-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	base := strings.TrimSuffix(shpMember, filepath.Ext(shpMember))
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, base+".") {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s in %s: %w", f.Name, path, err)
		}
		dst, err := os.Create(filepath.Join(tmp, filepath.Base(f.Name)))
		if err != nil {
			r.Close()
			return nil, err
		}
		if _, err := io.Copy(dst, r); err != nil {
			r.Close()
			dst.Close()
			return nil, err
		}
		r.Close()
		if err := dst.Close(); err != nil {
			return nil, err
		}
	}
	return loadShapefileZones(filepath.Join(tmp, filepath.Base(base)+".shp"), cfg)
}

func loadShapefileZones(path string, cfg BoundariesConfig) (*ZoneIndex, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	fieldIdx := func(name string) int {
		for i, f := range fields {
			fname := strings.TrimSpace(f.String())
			if strings.EqualFold(fname, name) {
				return i
			}
			// DBF headers cap field names at 11 bytes; accept the
			// truncated spelling of a longer configured name.
			if len(fname) >= 10 && len(name) > len(fname) && strings.EqualFold(fname, name[:len(fname)]) {
				return i
			}
		}
		return -1
	}
	idField := fieldIdx(cfg.IDField)
	cityField := fieldIdx(cfg.CityField)
	codeField := fieldIdx(cfg.CityCodeField)
	if idField < 0 {
		return nil, fmt.Errorf("shapefile %s has no %s field", path, cfg.IDField)
	}

	idx := NewZoneIndex()
	skipped := 0
	for r.Next() {
		n, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		rawID := r.ReadAttribute(n, idField)
		id, err := CleanZoneID(rawID)
		if err != nil {
			log.Printf("boundaries: skipping shape with zone id %q", rawID)
			skipped++
			continue
		}
		z := Zone{
			ID:       id,
			Kind:     KindOfZoneID(id),
			Geometry: geometryFromParts(poly.Points, poly.Parts),
		}
		if cityField >= 0 {
			z.City = strings.TrimSpace(r.ReadAttribute(n, cityField))
			z.Name = z.City
		}
		if codeField >= 0 {
			z.CityCode = strings.TrimSpace(r.ReadAttribute(n, codeField))
		}
		idx.Add(z)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	if skipped > 0 {
		log.Printf("boundaries: skipped %d shapes", skipped)
	}
	log.Printf("loaded %d zones from %s", idx.Len(), path)
	return idx, nil
}

func parseGeoJSONZones(data []byte, cfg BoundariesConfig) (*ZoneIndex, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse boundary geojson: %w", err)
	}
	idx := NewZoneIndex()
	prop := func(f *geojson.Feature, names ...string) string {
		for _, n := range names {
			if v, ok := f.Properties[n]; ok {
				switch t := v.(type) {
				case string:
					return t
				case float64:
					return strconv.FormatFloat(t, 'f', -1, 64)
				}
			}
		}
		return ""
	}
	for _, f := range fc.Features {
		rawID := prop(f, cfg.IDField, "zone_id")
		id, err := CleanZoneID(rawID)
		if err != nil {
			log.Printf("boundaries: skipping feature with zone id %q", rawID)
			continue
		}
		z := Zone{
			ID:       id,
			Name:     prop(f, "name", cfg.CityField),
			City:     prop(f, "city", cfg.CityField),
			CityCode: prop(f, cfg.CityCodeField, "city_code"),
			Kind:     KindOfZoneID(id),
			Geometry: f.Geometry,
		}
		idx.Add(z)
	}
	log.Printf("loaded %d zones from geojson", idx.Len())
	return idx, nil
}

// BuildCityZones synthesizes one city-level zone per city code found on
// the statistical zones: ID "C" + code padded to 7, geometry the
// MultiPolygon of the member zones. Already-present city zones are kept.
func BuildCityZones(idx *ZoneIndex) int {
	type cityAgg struct {
		name    string
		members orb.MultiPolygon
	}
	cities := map[string]*cityAgg{}
	var codes []string
	for _, z := range idx.All() {
		if z.Kind != ZoneStatistical || z.CityCode == "" {
			continue
		}
		code := keepDigits(z.CityCode)
		if code == "" {
			continue
		}
		agg, ok := cities[code]
		if !ok {
			agg = &cityAgg{name: z.City}
			cities[code] = agg
			codes = append(codes, code)
		}
		switch g := z.Geometry.(type) {
		case orb.Polygon:
			agg.members = append(agg.members, g)
		case orb.MultiPolygon:
			agg.members = append(agg.members, g...)
		}
	}
	sort.Strings(codes)
	added := 0
	for _, code := range codes {
		n, err := strconv.Atoi(code)
		if err != nil {
			continue
		}
		id := CityZoneID(n)
		if idx.Has(id) {
			continue
		}
		agg := cities[code]
		idx.Add(Zone{
			ID:       id,
			Name:     agg.name,
			City:     agg.name,
			CityCode: code,
			Kind:     ZoneCity,
			Geometry: agg.members,
		})
		added++
	}
	if added > 0 {
		log.Printf("built %d city zones", added)
	}
	return added
}

// geometryFromParts assembles shapefile rings into orb geometry.
// Shapefile outer rings wind clockwise (negative signed area); counter-
// clockwise rings are holes in the preceding outer ring.
func geometryFromParts(points []shp.Point, parts []int32) orb.Geometry {
	var mp orb.MultiPolygon
	var cur orb.Polygon
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || end > len(points) || end-start < 3 {
			continue
		}
		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}
		switch {
		case signedArea(ring) < 0:
			if len(cur) > 0 {
				mp = append(mp, cur)
			}
			cur = orb.Polygon{ring}
		case len(cur) > 0:
			cur = append(cur, ring)
		default:
			// tolerate sources with reversed winding
			cur = orb.Polygon{ring}
		}
	}
	if len(cur) > 0 {
		mp = append(mp, cur)
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

func signedArea(r orb.Ring) float64 {
	if len(r) < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < len(r); i++ {
		j := (i + 1) % len(r)
		area += r[i][0]*r[j][1] - r[j][0]*r[i][1]
	}
	return area / 2
}
