package http

import (
	"net/http"

	"fintrack/internal/receipt"
	"fintrack/internal/rules"
)

const maxReceiptBytes = 10 << 20

type receiptDraftResponse struct {
	Merchant          string `json:"merchant"`
	Amount            string `json:"amount"`
	Date              string `json:"date"`
	SuggestedCategory string `json:"suggestedCategory,omitempty"`
}

// handleParseReceipt turns an uploaded receipt PDF into a transaction
// draft. Nothing is stored; the client reviews the draft and posts it
// as a regular transaction.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		writeBadRequest(w, "parse multipart form: %v", err)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "missing file field: %v", err)
		return
	}
	defer file.Close()

	draft, err := receipt.ParseReader(file)
	if err != nil {
		writeBadRequest(w, "parse receipt: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, receiptDraftResponse{
		Merchant:          draft.Merchant,
		Amount:            draft.Amount.String(),
		Date:              draft.Date.String(),
		SuggestedCategory: rules.Default().Categorize(draft.Merchant),
	})
}
