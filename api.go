package surveydashboard

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// QueryError reports an invalid API query parameter.
type QueryError struct{ Msg string }

func (e *QueryError) Error() string { return e.Msg }

// ResultCache holds the products of the last pipeline run for the API
// endpoints and memoizes marshaled payloads per query. Serve mode fills
// it before the server starts; handlers only read.
type ResultCache struct {
	report    *RunReport
	catchment []CatchmentRow
	cities    []CityRow
	payloads  map[string][]byte
}

var results = &ResultCache{payloads: map[string][]byte{}}

func (rc *ResultCache) Set(rep *RunReport, catchment []CatchmentRow, cities []CityRow) {
	rc.report = rep
	rc.catchment = catchment
	rc.cities = cities
	rc.payloads = map[string][]byte{}
}

func (rc *ResultCache) Ready() bool { return rc.report != nil }

func (rc *ResultCache) memoKey(args ...string) string {
	var b bytes.Buffer
	for i, a := range args {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(a)
	}
	return b.String()
}

func (rc *ResultCache) SummaryPayload() ([]byte, error) {
	key := rc.memoKey("summary")
	if b, ok := rc.payloads[key]; ok {
		return b, nil
	}
	b, err := json.Marshal(struct {
		*RunReport
		Took float64 `json:"took_seconds"`
	}{rc.report, rc.report.Took.Seconds()})
	if err != nil {
		return nil, err
	}
	rc.payloads[key] = b
	return b, nil
}

// CatchmentPayload returns the catchment rows, optionally narrowed to
// one POI by ID or canonical name.
func (rc *ResultCache) CatchmentPayload(ref string) ([]byte, error) {
	key := rc.memoKey("catchment", strings.ToLower(ref))
	if b, ok := rc.payloads[key]; ok {
		return b, nil
	}
	rows := rc.catchment
	if ref != "" {
		rows = nil
		for _, r := range rc.catchment {
			if strings.EqualFold(r.POIID, ref) || strings.EqualFold(r.POIName, ref) {
				rows = append(rows, r)
			}
		}
		if len(rows) == 0 {
			return nil, &QueryError{Msg: "No such POI: " + ref}
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	rc.payloads[key] = b
	return b, nil
}

// CitiesPayload returns the city rollup, capped to the first limit rows
// when limit is non-negative.
func (rc *ResultCache) CitiesPayload(limit int) ([]byte, error) {
	key := rc.memoKey("cities", strconv.Itoa(limit))
	if b, ok := rc.payloads[key]; ok {
		return b, nil
	}
	rows := rc.cities
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	rc.payloads[key] = b
	return b, nil
}

// Handlers

func handleSummary(w http.ResponseWriter, r *http.Request) {
	if !results.Ready() {
		writeAPIError(w, http.StatusNotFound, "no pipeline run yet")
		return
	}
	payload, err := results.SummaryPayload()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAPIJSON(w, payload)
}

func handleCatchment(w http.ResponseWriter, r *http.Request) {
	if !results.Ready() {
		writeAPIError(w, http.StatusNotFound, "no pipeline run yet")
		return
	}
	params := queryParams(r)
	payload, err := results.CatchmentPayload(params["poi"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeAPIJSON(w, payload)
}

func handleCities(w http.ResponseWriter, r *http.Request) {
	if !results.Ready() {
		writeAPIError(w, http.StatusNotFound, "no pipeline run yet")
		return
	}
	params := queryParams(r)
	limit, err := parseNonNegativeInt(params["limit"])
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	payload, err := results.CitiesPayload(limit)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAPIJSON(w, payload)
}

// Helpers

func queryParams(r *http.Request) map[string]string {
	m := map[string]string{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			m[strings.ToLower(k)] = strings.TrimSpace(vs[0])
		}
	}
	return m
}

func parseNonNegativeInt(s string) (int, error) {
	if s == "" {
		return -1, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return -1, &QueryError{Msg: "Numeric parameter must be a non-negative integer."}
	}
	return v, nil
}

func errorPayload(msg string) []byte {
	type apiErr struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	var e apiErr
	e.Error.Description = msg
	b, _ := json.Marshal(e)
	return b
}

func writeAPIError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(errorPayload(msg))
}

func writeAPIJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}
