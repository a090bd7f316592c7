package surveydashboard

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status       string `json:"status"`
	Timestamp    string `json:"timestamp"`
	OutputFiles  int    `json:"output_files"`
	LastRunEpoch int64  `json:"last_run_epoch"`
}

var lastRunEpoch int64

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	n, err := countFiles(Config.Output.Dir)
	if err != nil {
		n = 0
	}
	resp := healthResponse{
		Status:       "ok",
		Timestamp:    iso8601Now(),
		OutputFiles:  n,
		LastRunEpoch: lastRunEpoch,
	}
	_ = json.NewEncoder(w).Encode(resp)
}
