package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/usecase"
)

type accountCreator interface {
	Execute(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
}

type accountGetter interface {
	Execute(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type statementGetter interface {
	Execute(ctx context.Context, accountID uuid.UUID) ([]domain.Event, error)
}

type AccountHandler struct {
	creator   accountCreator
	getter    accountGetter
	statement statementGetter
}

func NewAccountHandler(creator accountCreator, getter accountGetter, statement statementGetter) *AccountHandler {
	return &AccountHandler{creator: creator, getter: getter, statement: statement}
}

type createAccountRequest struct {
	Role    domain.Role     `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

type accountResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID.String(),
		Role:      string(a.Role),
		Balance:   a.Balance.StringFixed(2),
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	account, err := h.creator.Execute(r.Context(), usecase.CreateAccountInput{
		Role:    req.Role,
		Balance: req.Balance,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrInvalidAmount):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			log.Error().Err(err).Msg("creating account")
			respondError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, newAccountResponse(account))
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.getter.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error().Err(err).Msg("fetching account")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, newAccountResponse(account))
}

type statementEntry struct {
	CorrelationKey string         `json:"correlation_key"`
	Details        map[string]any `json:"details"`
	OccurredAt     string         `json:"occurred_at"`
}

// Statement handles GET /accounts/{id}/statement: the account's balance
// history reconstructed from the event log, oldest first.
func (h *AccountHandler) Statement(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	events, err := h.statement.Execute(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		log.Error().Err(err).Msg("fetching statement")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entries := make([]statementEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, statementEntry{
			CorrelationKey: event.CorrelationKey,
			Details:        event.Payload,
			OccurredAt:     event.OccurredAt.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, entries)
}

// Shared response helpers.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("encoding response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
