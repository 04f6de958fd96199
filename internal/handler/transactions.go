package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Dan9191/finance-tracker/internal/models"
	"github.com/Dan9191/finance-tracker/internal/utils"
)

// ListTransactions returns the principal's transactions, optionally filtered
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	filter, msg := parseFilter(r.URL.Query())
	if msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	txs, err := h.svc.ListTransactions(r.Context(), p, filter)
	if err != nil {
		h.writeServiceError(w, r, err, "Error fetching transactions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, txs)
}

// Summary returns income and expense totals for the filtered transactions
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	filter, msg := parseFilter(r.URL.Query())
	if msg != "" {
		utils.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	stats, err := h.svc.Summary(r.Context(), p, filter)
	if err != nil {
		h.writeServiceError(w, r, err, "Error fetching summary")
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

// CreateTransaction handles transaction creation
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	var in models.TransactionInput
	if err := decodeJSON(w, r, maxBodyBytes, &in); err != nil {
		utils.WriteError(w, http.StatusBadRequest, transactionBodyError(err))
		return
	}
	t, err := h.svc.CreateTransaction(r.Context(), p, in)
	if err != nil {
		h.writeServiceError(w, r, err, "Error creating transaction")
		return
	}
	utils.WriteJSON(w, http.StatusCreated, t)
}

// GetTransaction returns one transaction owned by the principal
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := transactionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	t, err := h.svc.GetTransaction(r.Context(), p, id)
	if err != nil {
		h.writeServiceError(w, r, err, "Error fetching transaction")
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// UpdateTransaction merges the request body onto an existing transaction
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := transactionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	var patch models.TransactionPatch
	if err := decodeJSON(w, r, maxBodyBytes, &patch); err != nil {
		utils.WriteError(w, http.StatusBadRequest, transactionBodyError(err))
		return
	}
	t, err := h.svc.UpdateTransaction(r.Context(), p, id, patch)
	if err != nil {
		h.writeServiceError(w, r, err, "Error updating transaction")
		return
	}
	utils.WriteJSON(w, http.StatusOK, t)
}

// DeleteTransaction removes a transaction owned by the principal
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}
	id, ok := transactionID(r)
	if !ok {
		utils.WriteError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}
	if err := h.svc.DeleteTransaction(r.Context(), p, id); err != nil {
		h.writeServiceError(w, r, err, "Error deleting transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter turns list query parameters into a filter. A non-empty message
// means a parameter was malformed.
func parseFilter(q url.Values) (models.TransactionFilter, string) {
	var f models.TransactionFilter

	if v := strings.TrimSpace(q.Get("startDate")); v != "" {
		t, err := models.ParseDate(v)
		if err != nil {
			return f, "Invalid date format"
		}
		f.StartDate = &t
	}
	if v := strings.TrimSpace(q.Get("endDate")); v != "" {
		t, err := models.ParseDate(v)
		if err != nil {
			return f, "Invalid date format"
		}
		f.EndDate = &t
	}

	month, year := strings.TrimSpace(q.Get("budgetMonth")), strings.TrimSpace(q.Get("budgetYear"))
	if month != "" || year != "" {
		m, err := strconv.Atoi(month)
		if err != nil || m < 1 || m > 12 {
			return f, "Invalid budget month"
		}
		y, err := strconv.Atoi(year)
		if err != nil {
			return f, "Invalid budget year"
		}
		f.BudgetMonth, f.BudgetYear = &m, &y
	}

	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	return f, ""
}
