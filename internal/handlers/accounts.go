package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	apperrors "wealthlink/internal/errors"
	"wealthlink/internal/repository"
)

// AccountHandler serves cached accounts and holdings.
type AccountHandler struct {
	accountRepo *repository.AccountRepository
	holdingRepo *repository.HoldingRepository
	log         zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(
	accountRepo *repository.AccountRepository,
	holdingRepo *repository.HoldingRepository,
	log zerolog.Logger,
) *AccountHandler {
	return &AccountHandler{
		accountRepo: accountRepo,
		holdingRepo: holdingRepo,
		log:         log,
	}
}

// List returns all cached accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountRepo.GetAll()
	if err != nil {
		respondError(w, h.log, apperrors.Internal("loading accounts", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

// Get returns one cached account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, account)
}

// Holdings returns the cached holdings of one account.
func (h *AccountHandler) Holdings(w http.ResponseWriter, r *http.Request) {
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

	holdings, err := h.holdingRepo.GetByAccountID(id)
	if err != nil {
		respondError(w, h.log, apperrors.Internal("loading holdings", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"account_id": id, "holdings": holdings})
}
