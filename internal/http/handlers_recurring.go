package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type subscriptionRequest struct {
	Name      string      `json:"name"`
	Amount    json.Number `json:"amount"`
	Category  string      `json:"category"`
	Frequency string      `json:"frequency"`
	NextDue   string      `json:"nextDue"`
	Active    *bool       `json:"active"`
}

type subscriptionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	NextDue   string `json:"nextDue"`
	Active    bool   `json:"active"`
}

func toSubscriptionResponse(s core.RecurringSubscription) subscriptionResponse {
	return subscriptionResponse{
		ID:        s.ID,
		Name:      s.Name,
		Amount:    s.Amount.String(),
		Category:  s.Category,
		Frequency: string(s.Frequency),
		NextDue:   s.NextDue.String(),
		Active:    s.Active,
	}
}

func (req subscriptionRequest) toSubscription() (core.RecurringSubscription, error) {
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.RecurringSubscription{}, err
	}
	nextDue, err := core.ParseDate(req.NextDue)
	if err != nil {
		return core.RecurringSubscription{}, err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return core.RecurringSubscription{
		Name:      req.Name,
		Amount:    core.Money{Cents: cents},
		Category:  req.Category,
		Frequency: core.Frequency(req.Frequency),
		NextDue:   nextDue,
		Active:    active,
	}, nil
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListSubscriptions(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]subscriptionResponse, 0, len(list))
	for _, sub := range list {
		resp = append(resp, toSubscriptionResponse(sub))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	sub, err := req.toSubscription()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := sub.Validate(); err != nil {
		writeError(w, err)
		return
	}

	created, err := s.store.CreateSubscription(r.Context(), userID, sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionResponse(created))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	sub, err := req.toSubscription()
	if err != nil {
		writeError(w, err)
		return
	}
	sub.ID = r.PathValue("id")
	if err := sub.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.UpdateSubscription(r.Context(), userID, sub); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionResponse(sub))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSubscription(r.Context(), s.userID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProcessRecurring runs one sweep of due subscriptions for the
// acting user. The scheduled worker calls the same service; this
// endpoint exists for manual catch-up.
func (s *Server) handleProcessRecurring(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	today := core.DateOf(time.Now())
	if raw := r.URL.Query().Get("asOf"); raw != "" {
		var err error
		if today, err = core.ParseDate(raw); err != nil {
			writeBadRequest(w, "invalid asOf date %q", raw)
			return
		}
	}

	count, err := s.recurring.ProcessDueSubscriptions(r.Context(), userID, today)
	if err != nil {
		writeError(w, err)
		return
	}
	if count > 0 {
		s.invalidate(userID, "materialized")
	}
	writeJSON(w, http.StatusOK, map[string]int{"materialized": count})
}
