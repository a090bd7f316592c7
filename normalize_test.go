package surveydashboard

import (
	"testing"
)

func testZoneIndex() *ZoneIndex {
	zones := NewZoneIndex()
	zones.Add(Zone{ID: "00612090", Kind: ZoneStatistical, City: "BEER SHEVA", CityCode: "9000"})
	zones.Add(Zone{ID: "00612100", Kind: ZoneStatistical, City: "BEER SHEVA", CityCode: "9000"})
	zones.Add(Zone{ID: "C0009000", Name: "BEER SHEVA", City: "BEER SHEVA", Kind: ZoneCity})
	zones.Add(Zone{ID: "C0005000", Name: "TEL AVIV", City: "TEL AVIV", Kind: ZoneCity})
	return zones
}

func testNormalizer(zones *ZoneIndex) *Normalizer {
	return NewNormalizer(zones, NewPOIIndex(), MatchingConfig{CityScoreCutoff: 80}, DefaultModeMapping())
}

// Three trips touching one POI, two inbound and one outbound, must
// yield exactly those directed records.
func TestNormalizeDirectedExpansion(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "612090", ToTract: "02", Mode: "car", EntryTime: 8 * 60, Weight: 1},
		{FromTract: "612100", ToTract: "02", Mode: "bus", EntryTime: 9 * 60, Weight: 1},
		{FromTract: "02", ToTract: "612090", Mode: "car", EntryTime: 17 * 60, Weight: 1},
	})

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	inbound, outbound := 0, 0
	for _, r := range records {
		if r.POIID != "00000002" {
			t.Errorf("expected poi 00000002, got %s", r.POIID)
		}
		switch r.Direction {
		case DirectionInbound:
			inbound++
		case DirectionOutbound:
			outbound++
		}
	}
	if inbound != 2 || outbound != 1 {
		t.Errorf("expected 2 inbound and 1 outbound, got %d/%d", inbound, outbound)
	}
	if got := n.Stats().Records; got != 3 {
		t.Errorf("expected 3 resolved records, got %d", got)
	}
}

func TestNormalizePOIToPOI(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "02", ToTract: "03", Mode: "ped", EntryTime: 12 * 60, Weight: 1},
	})

	if len(records) != 2 {
		t.Fatalf("expected 2 records for a poi-to-poi trip, got %d", len(records))
	}
	var inboundPOI, outboundPOI string
	for _, r := range records {
		switch r.Direction {
		case DirectionInbound:
			inboundPOI = r.POIID
			if r.OriginZoneID != "00000002" {
				t.Errorf("inbound origin should be the other poi, got %s", r.OriginZoneID)
			}
		case DirectionOutbound:
			outboundPOI = r.POIID
			if r.OriginZoneID != "00000003" {
				t.Errorf("outbound origin should be the other poi, got %s", r.OriginZoneID)
			}
		}
	}
	if inboundPOI != "00000003" || outboundPOI != "00000002" {
		t.Errorf("expected inbound 00000003 / outbound 00000002, got %s/%s", inboundPOI, outboundPOI)
	}
}

func TestNormalizeFuzzyCity(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "not-a-tract", FromName: "Tel-Aviv", ToTract: "02", Mode: "train", EntryTime: 7 * 60, Weight: 1},
	})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].OriginZoneID != "C0005000" {
		t.Errorf("expected fuzzy city match to C0005000, got %s", records[0].OriginZoneID)
	}
	if n.Stats().FuzzyMatches != 1 {
		t.Errorf("expected 1 fuzzy match, got %d", n.Stats().FuzzyMatches)
	}
}

func TestNormalizeExactCityBeforeFuzzy(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "", FromName: "beer sheva", ToTract: "02", Mode: "car", EntryTime: 8 * 60, Weight: 1},
	})

	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].OriginZoneID != "C0009000" {
		t.Errorf("expected C0009000, got %s", records[0].OriginZoneID)
	}
	if n.Stats().FuzzyMatches != 0 {
		t.Errorf("exact match must not count as fuzzy, got %d", n.Stats().FuzzyMatches)
	}
}

func TestNormalizeUnresolvedDropped(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "zzz", FromName: "Atlantis", ToTract: "02", Mode: "car", EntryTime: 8 * 60, Weight: 1},
	})

	if len(records) != 0 {
		t.Fatalf("expected unresolved origin to drop the record, got %d", len(records))
	}
	if n.Stats().DroppedZone != 1 {
		t.Errorf("expected 1 dropped zone, got %d", n.Stats().DroppedZone)
	}
}

func TestNormalizeOutsideTrips(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "612090", ToTract: "02", Mode: "car", EntryTime: 8 * 60, Weight: 1, Outside: true},
		{FromTract: "nan", ToTract: "02", Mode: "car", EntryTime: 9 * 60, Weight: 1},
	})

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if r.OriginZoneID != NullZoneID {
			t.Errorf("expected null zone origin, got %s", r.OriginZoneID)
		}
	}
	if n.Stats().OutsideTrips != 2 {
		t.Errorf("expected 2 outside trips, got %d", n.Stats().OutsideTrips)
	}
}

func TestNormalizeNonPOIRows(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "612090", ToTract: "612100", Mode: "car", EntryTime: 8 * 60, Weight: 1},
	})

	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if n.Stats().NonPOIRows != 1 {
		t.Errorf("expected 1 non-poi row, got %d", n.Stats().NonPOIRows)
	}
}

func TestNormalizePOIOutsideTaxonomy(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "612090", ToTract: "14", Mode: "car", EntryTime: 8 * 60, Weight: 1},
	})

	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	stats := n.Stats()
	if stats.DroppedPOI != 1 {
		t.Errorf("expected 1 dropped poi, got %d", stats.DroppedPOI)
	}
	if stats.NonPOIRows != 0 {
		t.Errorf("dropped poi end must not count as non-poi, got %d", stats.NonPOIRows)
	}
}

func TestNormalizeModes(t *testing.T) {
	n := testNormalizer(testZoneIndex())
	records := n.Normalize([]TripRow{
		{FromTract: "612090", ToTract: "02", Mode: "bus", EntryTime: 8 * 60, Weight: 1},
		{FromTract: "612090", ToTract: "02", Mode: "link", EntryTime: 8 * 60, Weight: 1},
		{FromTract: "612090", ToTract: "02", Mode: "scooter", EntryTime: 8 * 60, Weight: 1},
	})

	if records[0].Mode != "public_transit" || records[1].Mode != "public_transit" {
		t.Errorf("expected bus and link to map to public_transit, got %s/%s",
			records[0].Mode, records[1].Mode)
	}
	if records[2].Mode != "scooter" {
		t.Errorf("unknown mode should pass through, got %s", records[2].Mode)
	}
	if n.Stats().UnknownModes != 1 {
		t.Errorf("expected 1 unknown mode, got %d", n.Stats().UnknownModes)
	}
}
