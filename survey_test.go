package surveydashboard

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTripWorkbook(t *testing.T, path, sheet string, header []string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	f.Close()
}

var tripHeader = []string{
	"from_tract", "to_tract", "from_name", "to_name",
	"mode", "purpose", "Frequency", "time_bin", "count", "IC",
}

func TestLoadTripWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.xlsx")
	writeTripWorkbook(t, path, "StageB1", tripHeader, [][]string{
		{"612090", "02", "Beer Sheva", "BGU", "Car", "Work", "Frequent", "08:30", "2", ""},
		{"612090", "02", "Beer Sheva", "BGU", " BUS ", "Work ", " Frequent", "0.5", "1.5", "true"},
		{"612090", "02", "", "", "car", "", "", "09:00", "not-a-number", ""},
		{"612090", "02", "", "", "car", "", "", "whenever", "1", ""},
	})

	trips, stats, err := LoadTripWorkbook(path, "StageB1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rows != 4 || stats.Loaded != 2 || stats.Malformed != 2 {
		t.Errorf("expected 4/2/2 rows/loaded/malformed, got %d/%d/%d",
			stats.Rows, stats.Loaded, stats.Malformed)
	}
	if len(trips) != 2 {
		t.Fatalf("expected 2 trips, got %d", len(trips))
	}

	first := trips[0]
	if first.Mode != "car" {
		t.Errorf("expected mode car, got %q", first.Mode)
	}
	if first.EntryTime != ClockTime(8*60+30) {
		t.Errorf("expected 08:30, got %v", first.EntryTime)
	}
	if first.Weight != 2 {
		t.Errorf("expected weight 2, got %f", first.Weight)
	}
	if first.Outside {
		t.Error("first row is not an outside trip")
	}
	if first.ExitTime != ClockTime(-1) {
		t.Errorf("expected no exit time, got %v", first.ExitTime)
	}

	second := trips[1]
	if second.Mode != "bus" {
		t.Errorf("expected whitespace-trimmed lowercase mode, got %q", second.Mode)
	}
	if second.Purpose != "Work" || second.Frequency != "Frequent" {
		t.Errorf("expected trimmed survey values, got %q / %q", second.Purpose, second.Frequency)
	}
	if second.EntryTime != ClockTime(12*60) {
		t.Errorf("expected noon from day fraction, got %v", second.EntryTime)
	}
	if !second.Outside {
		t.Error("IC flag should mark the trip as outside")
	}
}

func TestLoadTripWorkbookExitColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.xlsx")
	header := append(append([]string{}, tripHeader...), "exit_bin")
	writeTripWorkbook(t, path, "StageB1", header, [][]string{
		{"612090", "02", "", "", "car", "", "", "08:00", "1", "", "17:45"},
	})

	trips, _, err := LoadTripWorkbook(path, "StageB1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trips[0].ExitTime != ClockTime(17*60+45) {
		t.Errorf("expected 17:45 exit, got %v", trips[0].ExitTime)
	}
}

func TestLoadTripWorkbookMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.xlsx")
	writeTripWorkbook(t, path, "StageB1", []string{"from_tract", "to_tract", "mode", "time_bin"}, [][]string{
		{"612090", "02", "car", "08:00"},
	})

	_, _, err := LoadTripWorkbook(path, "StageB1")
	if err == nil {
		t.Fatal("expected error for missing count column")
	}
	if !strings.Contains(err.Error(), "count") {
		t.Errorf("expected count in error, got %v", err)
	}
}

func TestLoadTripWorkbookMissingFile(t *testing.T) {
	_, _, err := LoadTripWorkbook(filepath.Join(t.TempDir(), "absent.xlsx"), "StageB1")
	if err == nil {
		t.Fatal("expected error for missing workbook")
	}
}

func TestLoadTripWorkbookWrongSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.xlsx")
	writeTripWorkbook(t, path, "StageB1", tripHeader, nil)

	_, _, err := LoadTripWorkbook(path, "Elsewhere")
	if err == nil {
		t.Fatal("expected error for unknown sheet")
	}
}
