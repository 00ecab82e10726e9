package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apperrors "wealthlink/internal/errors"
	"wealthlink/internal/repository"
)

const defaultTransactionLimit = 100

// TransactionHandler serves cached transactions.
type TransactionHandler struct {
	accountRepo *repository.AccountRepository
	txnRepo     *repository.TransactionRepository
	log         zerolog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(
	accountRepo *repository.AccountRepository,
	txnRepo *repository.TransactionRepository,
	log zerolog.Logger,
) *TransactionHandler {
	return &TransactionHandler{accountRepo: accountRepo, txnRepo: txnRepo, log: log}
}

// ListByAccount returns the cached transactions of one account, newest first.
// The optional limit query parameter caps the result size.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	account, err := h.accountRepo.GetByID(id)
	if err != nil {
		respondError(w, h.log, apperrors.Internal("loading account", err))
		return
	}
	if account == nil {
		respondError(w, h.log, apperrors.NotFound("account"))
		return
	}

	limit := defaultTransactionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, h.log, apperrors.InvalidParameter("limit", "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	transactions, err := h.txnRepo.GetByAccountID(id, limit)
	if err != nil {
		respondError(w, h.log, apperrors.Internal("loading transactions", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_id":   id,
		"transactions": transactions,
	})
}
