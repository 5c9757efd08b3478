package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/support-insights/internal/domain"
	"github.com/tjfontaine/support-insights/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// statsResponse wraps the aggregate rows for the dashboard.
type statsResponse struct {
	Data []domain.AgentStatRow `json:"data"`
}

// changesResponse is one drill-down page with its paging echo, so the
// dashboard can render pagination without tracking request state.
type changesResponse struct {
	Data     []domain.ComparisonRecord `json:"data"`
	Total    int                       `json:"total"`
	Page     int                       `json:"page"`
	PageSize int                       `json:"pageSize"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAgentStats(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.engine.ComputeAgentStats(r.Context(), filters)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	AddLogField(r.Context(), "agents", strconv.Itoa(len(rows)))
	writeJSON(w, http.StatusOK, statsResponse{Data: rows})
}

func (s *Server) handleAgentStatsExport(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.engine.ComputeAgentStats(r.Context(), filters)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteStatsWorkbook(&buf, rows); err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusInternalServerError, "failed to render workbook")
		return
	}

	filename := fmt.Sprintf("agent-stats-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (s *Server) handleAgentChanges(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")

	filters, err := parseFilters(r)
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	changeType, err := domain.ParseChangeType(q.Get("changeType"))
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := parseIntParam(q.Get("page"), "page")
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pageSize, err := parseIntParam(q.Get("pageSize"), "pageSize")
	if err != nil {
		AddError(r.Context(), err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve omitted paging here so the response echo matches what the
	// engine actually served.
	if page == 0 {
		page = report.DefaultPage
	}
	if pageSize == 0 {
		pageSize = report.DefaultPageSize
	}

	result, err := s.engine.ComputeAgentChanges(r.Context(), agentID, filters, changeType, page, pageSize)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	AddLogField(r.Context(), "agent_id", agentID)
	writeJSON(w, http.StatusOK, changesResponse{
		Data:     result.Rows,
		Total:    result.Total,
		Page:     page,
		PageSize: pageSize,
	})
}

// writeEngineError maps engine failures onto HTTP statuses: validation to
// 400, store failures to 502, timeouts to 504, anything else to 500.
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	AddError(r.Context(), err)

	var storeErr *domain.StoreError
	switch {
	case errors.Is(err, report.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &storeErr):
		writeError(w, http.StatusBadGateway, fmt.Sprintf("store request failed: %s", storeErr.Message))
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "computation timed out")
	default:
		writeError(w, http.StatusInternalServerError, "computation failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func parseFilters(r *http.Request) (domain.Filters, error) {
	q := r.URL.Query()

	var f domain.Filters
	var err error
	if f.From, err = parseTimeParam(q.Get("from"), "from"); err != nil {
		return domain.Filters{}, err
	}
	if f.To, err = parseTimeParam(q.Get("to"), "to"); err != nil {
		return domain.Filters{}, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return domain.Filters{}, fmt.Errorf("to %s precedes from %s", f.To.Format(time.RFC3339), f.From.Format(time.RFC3339))
	}

	f.Versions = splitParam(q.Get("versions"))
	f.Categories = splitParam(q.Get("categories"))
	return f, nil
}

func parseTimeParam(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s timestamp %q, want RFC 3339", name, value)
	}
	return t, nil
}

func parseIntParam(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return n, nil
}

func splitParam(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
