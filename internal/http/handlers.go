package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"db_schema_syncer/internal/diff"
	"db_schema_syncer/internal/history"
	"db_schema_syncer/internal/schema"
)

type planResponse struct {
	Synchronized bool         `json:"synchronized"`
	Statements   []string     `json:"statements"`
	Summary      diff.Summary `json:"summary"`
	Description  string       `json:"description"`
	DurationMS   int64        `json:"duration_ms"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	run := history.NewRun(history.KindPlan, s.opts.SourceLabel, s.opts.TargetLabel, s.now())
	plan, err := s.plan(r.Context())
	run.Statements = len(plan.Statements)
	run.CreateTables = plan.Summary.CreateTables
	run.AddColumns = plan.Summary.AddColumns
	run.ModifyColumns = plan.Summary.ModifyColumns
	run.Finish(err, s.now())
	if rerr := s.history.Record(r.Context(), run); rerr != nil {
		s.logger.Error("record plan run", "error", rerr)
	}

	if err != nil {
		s.logger.Error("plan failed", "error", err)
		switch {
		case errors.Is(err, schema.ErrConnectivity):
			writeError(w, http.StatusBadGateway, "database_unreachable", err.Error())
		case errors.Is(err, schema.ErrSchemaRead):
			writeError(w, http.StatusBadGateway, "schema_read_failed", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "plan_failed", err.Error())
		}
		return
	}

	statements := plan.Statements
	if statements == nil {
		statements = []string{}
	}
	writeJSON(w, http.StatusOK, planResponse{
		Synchronized: plan.Synchronized(),
		Statements:   statements,
		Summary:      plan.Summary,
		Description:  diff.Describe(plan.Actions),
		DurationMS:   plan.Duration.Milliseconds(),
	})
}

func (s *Server) handleScripts(w http.ResponseWriter, _ *http.Request) {
	records, err := s.scripts.List()
	if err != nil {
		s.logger.Error("list scripts", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list scripts")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		if errors.Is(err, history.ErrDisabled) {
			writeError(w, http.StatusNotFound, "history_disabled", err.Error())
			return
		}
		s.logger.Error("load history", "error", err)
		writeError(w, http.StatusInternalServerError, "history_error", "failed to load history")
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
