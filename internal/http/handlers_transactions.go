package http

import (
	"encoding/json"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type transactionRequest struct {
	Type      string      `json:"type"`
	Amount    json.Number `json:"amount"`
	Category  string      `json:"category"`
	Account   string      `json:"account"`
	AccountID string      `json:"accountId"`
	Note      string      `json:"note"`
	Date      string      `json:"date"`
}

type transactionResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Account   string `json:"account,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Note      string `json:"note,omitempty"`
	Date      string `json:"date"`
	CreatedAt string `json:"createdAt"`
	IsAuto    bool   `json:"isAuto"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:        t.ID,
		Type:      string(t.Type),
		Amount:    t.Amount.String(),
		Category:  t.Category,
		Account:   t.Account,
		AccountID: t.AccountID,
		Note:      t.Note,
		Date:      t.Date.String(),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
		IsAuto:    t.IsAuto,
	}
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		Type:      core.TransactionType(req.Type),
		Amount:    core.Money{Cents: cents},
		Category:  req.Category,
		Account:   req.Account,
		AccountID: req.AccountID,
		Note:      req.Note,
		Date:      date,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	// Defaults to the current calendar month when no range is given.
	window, err := core.ComputeWindow(core.ViewMonthly, core.DateOf(time.Now()))
	if err != nil {
		writeError(w, err)
		return
	}
	start, end := window.Start, window.End
	if raw := r.URL.Query().Get("from"); raw != "" {
		if start, err = core.ParseDate(raw); err != nil {
			writeBadRequest(w, "invalid from date %q", raw)
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if end, err = core.ParseDate(raw); err != nil {
			writeBadRequest(w, "invalid to date %q", raw)
			return
		}
	}

	list, err := s.transactions.ListInRange(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]transactionResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.transactions.Create(r.Context(), userID, tx)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(userID, "created")
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), s.userID(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)

	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}
	tx.ID = r.PathValue("id")

	if err := s.transactions.Update(r.Context(), userID, tx); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(userID, "updated")

	updated, err := s.transactions.Get(r.Context(), userID, tx.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID := s.userID(r)
	if err := s.transactions.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidate(userID, "deleted")
	w.WriteHeader(http.StatusNoContent)
}
