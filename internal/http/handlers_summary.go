package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

type bucketResponse struct {
	Key     string `json:"key"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

type summaryResponse struct {
	View         string            `json:"view"`
	Window       string            `json:"window"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	TotalIncome  string            `json:"totalIncome"`
	TotalExpense string            `json:"totalExpense"`
	Net          string            `json:"net"`
	CarryOver    string            `json:"carryOver,omitempty"`
	ByCategory   map[string]string `json:"byCategory"`
	Series       []bucketResponse  `json:"series"`
	Unparseable  *tallyResponse    `json:"unparseable,omitempty"`
	Unavailable  bool              `json:"unavailable,omitempty"`
}

type tallyResponse struct {
	Count  int    `json:"count"`
	Amount string `json:"amount"`
}

func toSummaryResponse(mode core.ViewMode, report services.Report, carry bool) summaryResponse {
	sum := report.Summary
	resp := summaryResponse{
		View:         string(mode),
		Window:       sum.Window.Label,
		Start:        sum.Window.Start.String(),
		End:          sum.Window.End.String(),
		TotalIncome:  sum.TotalIncome.String(),
		TotalExpense: sum.TotalExpense.String(),
		Net:          sum.Net().String(),
		ByCategory:   make(map[string]string, len(sum.ByCategory)),
		Series:       make([]bucketResponse, 0, len(sum.Series)),
	}
	if carry {
		resp.CarryOver = report.CarryOver.String()
	}
	for cat, amount := range sum.ByCategory {
		resp.ByCategory[cat] = amount.String()
	}
	for _, b := range sum.Series {
		resp.Series = append(resp.Series, bucketResponse{
			Key:     b.Key,
			Income:  b.Income.String(),
			Expense: b.Expense.String(),
		})
	}
	if sum.Unparseable.Count > 0 {
		resp.Unparseable = &tallyResponse{
			Count:  sum.Unparseable.Count,
			Amount: core.Money{Cents: sum.Unparseable.Cents}.String(),
		}
	}
	return resp
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	q := r.URL.Query()

	mode := core.ViewMonthly
	if raw := q.Get("view"); raw != "" {
		var err error
		if mode, err = core.ParseViewMode(raw); err != nil {
			writeBadRequest(w, "%v", err)
			return
		}
	}
	anchor := core.DateOf(time.Now())
	if raw := q.Get("anchor"); raw != "" {
		var err error
		if anchor, err = core.ParseDate(raw); err != nil {
			writeBadRequest(w, "invalid anchor date %q", raw)
			return
		}
	}
	carry := q.Get("carry") == "true" || q.Get("carry") == "1"

	window, err := core.ComputeWindow(mode, anchor)
	if err != nil {
		writeError(w, err)
		return
	}
	cacheKey := fmt.Sprintf("%s|%s|%s|%t", userID, mode, window.Label, carry)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, toSummaryResponse(mode, cached, carry))
		return
	}

	report, err := s.analysis.Summarize(r.Context(), userID, mode, anchor, carry)
	if errors.Is(err, ledger.ErrStoreUnavailable) {
		// The dashboard stays up on store outages with an empty,
		// clearly flagged summary.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary degraded, store unavailable",
			"user_id", userID, "view", string(mode), "error", err)
		degraded := services.Report{Summary: core.Aggregate(nil, window.Start, window.End, mode)}
		degraded.Summary.Window = window
		resp := toSummaryResponse(mode, degraded, carry)
		resp.Unavailable = true
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	s.summaryCache.Set(cacheKey, report)
	writeJSON(w, http.StatusOK, toSummaryResponse(mode, report, carry))
}
