package surveydashboard

import (
	"math"
	"testing"
)

func sampleRecords() []TripRecord {
	return []TripRecord{
		{
			OriginZoneID: "00612090", POIID: "00000002", Direction: DirectionInbound,
			Mode: "car", Purpose: "Work", Frequency: "Frequent",
			EntryTime: ClockTime(8*60 + 30), Weight: 2,
		},
		{
			OriginZoneID: "00612090", POIID: "00000002", Direction: DirectionInbound,
			Mode: "public_transit", Purpose: "Work", Frequency: "Rare",
			EntryTime: ClockTime(9*60 + 15), Weight: 1,
		},
		{
			OriginZoneID: "00612100", POIID: "00000002", Direction: DirectionOutbound,
			Mode: "car", Purpose: "Home", Frequency: "Frequent",
			EntryTime: ClockTime(17 * 60), Weight: 1,
		},
	}
}

func TestAggregateBucketValues(t *testing.T) {
	pois := NewPOIIndex()
	set := Aggregate(sampleRecords(), pois, 60)

	lookup := map[AggregateBucket]float64{}
	for _, b := range set.Buckets {
		key := b
		key.TripCount = 0
		lookup[key] = b.TripCount
	}
	get := func(poi string, dir Direction, mode, purpose, bucket string) float64 {
		return lookup[AggregateBucket{POIID: poi, Direction: dir, Mode: mode, Purpose: purpose, TimeBucket: bucket}]
	}

	if got := get("00000002", DirectionInbound, "car", "Work", "08:00"); got != 2 {
		t.Errorf("expected 2, got %f", got)
	}
	if got := get("00000002", DirectionInbound, "public_transit", "Work", "09:00"); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
	if got := get("00000002", DirectionOutbound, "car", "Home", "17:00"); got != 1 {
		t.Errorf("expected 1, got %f", got)
	}
	if got := get("00000002", DirectionInbound, "car", "Home", "08:00"); got != 0 {
		t.Errorf("expected zero-filled bucket, got %f", got)
	}
}

// The bucket list is the dense cross product of POIs, directions and
// the observed vocabularies.
func TestAggregateDensity(t *testing.T) {
	pois := NewPOIIndex()
	set := Aggregate(sampleRecords(), pois, 60)

	if len(set.Modes) != 2 || len(set.Purposes) != 2 {
		t.Fatalf("expected 2 modes and 2 purposes, got %d/%d", len(set.Modes), len(set.Purposes))
	}
	// 08:00 through 17:00 hourly
	if len(set.TimeLabels) != 10 {
		t.Fatalf("expected 10 time labels, got %d", len(set.TimeLabels))
	}
	if set.TimeLabels[0] != "08:00" || set.TimeLabels[9] != "17:00" {
		t.Errorf("expected 08:00..17:00, got %s..%s", set.TimeLabels[0], set.TimeLabels[9])
	}
	expected := 13 * 2 * 2 * 2 * 10
	if len(set.Buckets) != expected {
		t.Errorf("expected %d buckets, got %d", expected, len(set.Buckets))
	}
}

// Bucket sums per POI and direction must equal the resolved record
// weights; nothing is lost or double counted.
func TestAggregateSumsMatchRecords(t *testing.T) {
	pois := NewPOIIndex()
	records := sampleRecords()
	set := Aggregate(records, pois, 60)

	want := map[string]float64{}
	for _, r := range records {
		want[string(r.Direction)+"/"+r.POIID] += r.Weight
	}
	got := map[string]float64{}
	for _, b := range set.Buckets {
		got[string(b.Direction)+"/"+b.POIID] += b.TripCount
	}
	for key, w := range want {
		if math.Abs(got[key]-w) > 1e-9 {
			t.Errorf("%s: expected %f, got %f", key, w, got[key])
		}
	}
	for key, w := range got {
		if w != 0 && math.Abs(want[key]-w) > 1e-9 {
			t.Errorf("%s: unexpected weight %f", key, w)
		}
	}
}

func TestZoneTableShares(t *testing.T) {
	pois := NewPOIIndex()
	set := Aggregate(sampleRecords(), pois, 60)

	table := set.Table("00000002", DirectionInbound)
	if table == nil {
		t.Fatal("expected inbound table for 00000002")
	}
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 tract row, got %d", len(table.Rows))
	}
	row := table.Rows[0]
	if row.Tract != "00612090" {
		t.Errorf("expected tract 00612090, got %s", row.Tract)
	}
	if row.TotalTrips != 3 {
		t.Errorf("expected total 3, got %f", row.TotalTrips)
	}

	approx := func(got, want float64) bool { return math.Abs(got-want) < 0.01 }
	if !approx(row.Shares["mode_car"], 66.67) {
		t.Errorf("expected car share 66.67, got %f", row.Shares["mode_car"])
	}
	if !approx(row.Shares["mode_public_transit"], 33.33) {
		t.Errorf("expected transit share 33.33, got %f", row.Shares["mode_public_transit"])
	}
	if !approx(row.Shares["purpose_Work"], 100) {
		t.Errorf("expected work share 100, got %f", row.Shares["purpose_Work"])
	}
	if !approx(row.Shares["frequency_Frequent"], 66.67) {
		t.Errorf("expected frequent share 66.67, got %f", row.Shares["frequency_Frequent"])
	}
	if !approx(row.Shares["arrival_08:00"], 66.67) {
		t.Errorf("expected 08:00 share 66.67, got %f", row.Shares["arrival_08:00"])
	}

	// mode shares must sum to ~100 per tract
	sum := 0.0
	for _, m := range set.Modes {
		sum += row.Shares["mode_"+m]
	}
	if math.Abs(sum-100) > 0.5 {
		t.Errorf("mode shares should sum to 100, got %f", sum)
	}
}

func TestZoneTableColumnsOrdered(t *testing.T) {
	pois := NewPOIIndex()
	set := Aggregate(sampleRecords(), pois, 60)

	table := set.Table("00000002", DirectionInbound)
	cols := table.Columns
	// modes, then frequencies, then purposes, then 24 arrival hours
	if cols[0] != "mode_car" || cols[1] != "mode_public_transit" {
		t.Errorf("unexpected leading columns %v", cols[:2])
	}
	if cols[len(cols)-1] != "arrival_23:00" {
		t.Errorf("expected arrival_23:00 last, got %s", cols[len(cols)-1])
	}
	if len(cols) != 2+2+2+24 {
		t.Errorf("expected 30 share columns, got %d", len(cols))
	}
}

func TestAggregateEmptyPOITables(t *testing.T) {
	pois := NewPOIIndex()
	set := Aggregate(sampleRecords(), pois, 60)

	table := set.Table("00000013", DirectionInbound)
	if table == nil {
		t.Fatal("expected a table for every poi and direction")
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(table.Rows))
	}
	if table.TotalWeight() != 0 {
		t.Errorf("expected zero weight, got %f", table.TotalWeight())
	}
	if len(set.Tables) != 26 {
		t.Errorf("expected 26 tables, got %d", len(set.Tables))
	}
}
