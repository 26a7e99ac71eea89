package http

import (
	"encoding/json"
	"net/http"

	"fintrack/internal/core"
)

type accountRequest struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Balance json.Number `json:"balance"`
}

type accountResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind,omitempty"`
	Balance string `json:"balance"`
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{ID: a.ID, Name: a.Name, Kind: a.Kind, Balance: a.Balance.String()}
}

func (req accountRequest) toAccount() (core.Account, error) {
	var cents int64
	if req.Balance != "" {
		var err error
		if cents, err = core.ParseDecimalToCents(req.Balance.String()); err != nil {
			return core.Account{}, err
		}
	}
	return core.Account{Name: req.Name, Kind: req.Kind, Balance: core.Money{Cents: cents}}, nil
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListAccounts(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]accountResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, toAccountResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	account, err := req.toAccount()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := account.Validate(); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.CreateAccount(r.Context(), s.userID(r), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(created))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	account, err := req.toAccount()
	if err != nil {
		writeError(w, err)
		return
	}
	account.ID = r.PathValue("id")
	if err := account.Validate(); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.UpdateAccount(r.Context(), s.userID(r), account); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAccount(r.Context(), s.userID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListCategories(r.Context(), s.userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := make([]categoryResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, categoryResponse{ID: c.ID, Name: c.Name, Type: string(c.Type)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "%v", err)
		return
	}
	category := core.Category{Name: req.Name, Type: core.TransactionType(req.Type)}
	if category.Name == "" {
		writeError(w, core.ErrEmptyName)
		return
	}
	if err := category.Type.Validate(); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.store.CreateCategory(r.Context(), s.userID(r), category)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse{ID: created.ID, Name: created.Name, Type: string(created.Type)})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCategory(r.Context(), s.userID(r), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordRequest accepts the field aliases older clients used: target
// and limit for the amount, saved and paid for the progress.
type recordRequest struct {
	Name     string      `json:"name"`
	Amount   json.Number `json:"amount"`
	Target   json.Number `json:"target"`
	Limit    json.Number `json:"limit"`
	Progress json.Number `json:"progress"`
	Saved    json.Number `json:"saved"`
	Paid     json.Number `json:"paid"`
	Due      string      `json:"due"`
	Notes    string      `json:"notes"`
}

type recordResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Amount   string `json:"amount"`
	Progress string `json:"progress"`
	Due      string `json:"due,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func toRecordResponse(rec core.Record) recordResponse {
	return recordResponse{
		ID:       rec.ID,
		Name:     rec.Name,
		Amount:   rec.Amount.String(),
		Progress: rec.Progress.String(),
		Due:      rec.Due.String(),
		Notes:    rec.Notes,
	}
}

func firstNumber(values ...json.Number) json.Number {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (req recordRequest) toRecord(kind core.RecordKind) (core.Record, error) {
	rec := core.Record{Kind: kind, Name: req.Name, Notes: req.Notes}

	amount := firstNumber(req.Amount, req.Target, req.Limit)
	if amount != "" {
		cents, err := core.ParseDecimalToCents(amount.String())
		if err != nil {
			return core.Record{}, err
		}
		rec.Amount = core.Money{Cents: cents}
	}
	progress := firstNumber(req.Progress, req.Saved, req.Paid)
	if progress != "" {
		cents, err := core.ParseDecimalToCents(progress.String())
		if err != nil {
			return core.Record{}, err
		}
		rec.Progress = core.Money{Cents: cents}
	}
	if req.Due != "" {
		due, err := core.ParseDate(req.Due)
		if err != nil {
			return core.Record{}, err
		}
		rec.Due = due
	}
	return rec, nil
}

func recordKind(resource string) core.RecordKind {
	switch resource {
	case "budgets":
		return core.KindBudget
	case "goals":
		return core.KindGoal
	default:
		return core.KindDebt
	}
}

func (s *Server) handleListRecords(resource string) http.HandlerFunc {
	kind := recordKind(resource)
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.store.ListRecords(r.Context(), s.userID(r), kind)
		if err != nil {
			writeError(w, err)
			return
		}
		resp := make([]recordResponse, 0, len(list))
		for _, rec := range list {
			resp = append(resp, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleCreateRecord(resource string) http.HandlerFunc {
	kind := recordKind(resource)
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeBadRequest(w, "%v", err)
			return
		}
		rec, err := req.toRecord(kind)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := rec.Validate(); err != nil {
			writeError(w, err)
			return
		}
		created, err := s.store.CreateRecord(r.Context(), s.userID(r), rec)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(created))
	}
}

func (s *Server) handleUpdateRecord(resource string) http.HandlerFunc {
	kind := recordKind(resource)
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeBadRequest(w, "%v", err)
			return
		}
		rec, err := req.toRecord(kind)
		if err != nil {
			writeError(w, err)
			return
		}
		rec.ID = r.PathValue("id")
		if err := rec.Validate(); err != nil {
			writeError(w, err)
			return
		}
		if err := s.store.UpdateRecord(r.Context(), s.userID(r), rec); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

func (s *Server) handleDeleteRecord(resource string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.DeleteRecord(r.Context(), s.userID(r), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
