package handler

import (
	"net/http"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
)

// ImportTransactions handles a JSON batch import
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req models.ImportRequest
	if err := decodeJSON(w, r, maxImportBytes, &req); err != nil || req.Transactions == nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid CSV data")
		return
	}
	h.importBatch(w, r, p, req.Transactions)
}

// ImportCSV handles a text/csv upload
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	ins, err := utils.ParseTransactionsCSV(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		h.log.Debugf("CSV upload rejected for user %d: %v", p.ID, err)
		utils.WriteError(w, http.StatusBadRequest, "Invalid CSV data")
		return
	}
	h.importBatch(w, r, p, ins)
}

func (h *Handler) importBatch(w http.ResponseWriter, r *http.Request, p models.Principal, ins []models.TransactionInput) {
	result, err := h.svc.ImportTransactions(r.Context(), p, ins)
	if err != nil {
		h.writeServiceError(w, r, err, "Error importing transactions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}
