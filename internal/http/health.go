package httpserver

import (
	"net/http"

	"db_schema_syncer/internal/history"
)

type HealthHandler struct {
	History history.Recorder
}

type healthResponse struct {
	Status  string `json:"status"`
	History string `json:"history"`
}

// ServeHTTP reports liveness only. Source and target reachability shows up
// on /plan.
func (h HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	historyStatus := "enabled"
	if _, ok := h.History.(history.Nop); ok || h.History == nil {
		historyStatus = "disabled"
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", History: historyStatus})
}
