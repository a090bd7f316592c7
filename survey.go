package surveydashboard

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Direction of a trip relative to a POI.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// TripRow is one raw survey row as read from the workbook, before any
// normalization. Tract fields keep their source spelling.
type TripRow struct {
	FromTract string
	ToTract   string
	FromName  string
	ToName    string
	Mode      string
	Purpose   string
	Frequency string
	EntryTime ClockTime
	ExitTime  ClockTime // -1 when the workbook has no exit column
	Weight    float64
	Outside   bool // IC flag: origin lies outside the survey area
}

// LoadStats reports what the loader skipped.
type LoadStats struct {
	Rows      int `json:"rows"` // data rows seen
	Loaded    int `json:"loaded"`
	Malformed int `json:"malformed"` // skipped: unparseable weight or entry time
}

// LoadTripWorkbook reads the survey trip sheet. Columns are located by
// header name, case-insensitively. A row with an unparseable weight or
// entry time is skipped and counted, never fatal; a sheet missing a
// required column is an input-format error.
func LoadTripWorkbook(path, sheet string) ([]TripRow, LoadStats, error) {
	var stats LoadStats
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, stats, fmt.Errorf("open trip workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, stats, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, stats, fmt.Errorf("sheet %q is empty", sheet)
	}

	head := rows[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	cell := func(row []string, i int) string {
		if i >= 0 && i < len(row) {
			return row[i]
		}
		return ""
	}

	fromTract := idx("from_tract")
	toTract := idx("to_tract")
	fromName := idx("from_name")
	toName := idx("to_name")
	mode := idx("mode")
	purpose := idx("purpose")
	frequency := idx("Frequency")
	timeBin := idx("time_bin")
	count := idx("count")
	ic := idx("IC")
	exitBin := idx("exit_bin")

	for name, i := range map[string]int{
		"from_tract": fromTract, "to_tract": toTract,
		"mode": mode, "time_bin": timeBin, "count": count,
	} {
		if i < 0 {
			return nil, stats, fmt.Errorf("sheet %q has no %s column", sheet, name)
		}
	}

	trips := make([]TripRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		stats.Rows++

		w, err := strconv.ParseFloat(strings.TrimSpace(cell(row, count)), 64)
		if err != nil || w < 0 {
			stats.Malformed++
			continue
		}
		entry, err := ParseClockTime(cell(row, timeBin))
		if err != nil {
			stats.Malformed++
			continue
		}
		exit := ClockTime(-1)
		if exitBin >= 0 {
			if e, err := ParseClockTime(cell(row, exitBin)); err == nil {
				exit = e
			}
		}

		trips = append(trips, TripRow{
			FromTract: strings.TrimSpace(cell(row, fromTract)),
			ToTract:   strings.TrimSpace(cell(row, toTract)),
			FromName:  strings.TrimSpace(cell(row, fromName)),
			ToName:    strings.TrimSpace(cell(row, toName)),
			Mode:      strings.ToLower(strings.TrimSpace(cell(row, mode))),
			Purpose:   strings.TrimSpace(cell(row, purpose)),
			Frequency: strings.TrimSpace(cell(row, frequency)),
			EntryTime: entry,
			ExitTime:  exit,
			Weight:    w,
			Outside:   parseBool(cell(row, ic)),
		})
		stats.Loaded++
	}

	if stats.Malformed > 0 {
		log.Printf("trip workbook: skipped %d malformed of %d rows", stats.Malformed, stats.Rows)
	}
	log.Printf("loaded %d trips from %s[%s]", stats.Loaded, path, sheet)
	return trips, stats, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "t":
		return true
	}
	return false
}
