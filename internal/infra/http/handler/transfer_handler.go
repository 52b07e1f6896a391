package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/usecase"
)

// transferExecutor is the slice of the usecase the handler needs.
type transferExecutor interface {
	Execute(ctx context.Context, input usecase.ExecuteTransferInput) (*domain.Transfer, error)
}

type transferLister interface {
	Execute(ctx context.Context, status domain.TransferStatus, limit int) ([]domain.Transfer, error)
}

type TransferHandler struct {
	executor transferExecutor
	lister   transferLister
}

func NewTransferHandler(executor transferExecutor, lister transferLister) *TransferHandler {
	return &TransferHandler{executor: executor, lister: lister}
}

type createTransferRequest struct {
	SenderID   uuid.UUID       `json:"sender_id"`
	ReceiverID uuid.UUID       `json:"receiver_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	ID             string `json:"id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}

func newTransferResponse(t *domain.Transfer) transferResponse {
	return transferResponse{
		ID:             t.ID.String(),
		SenderID:       t.SenderID.String(),
		ReceiverID:     t.ReceiverID.String(),
		Amount:         t.Amount.StringFixed(2),
		IdempotencyKey: t.IdempotencyKey,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /transfers. The idempotency key travels in the
// Idempotency-Key header. Business failures map to 422, malformed input to
// 400, anything unexpected to 500.
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")
	if idempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "Idempotency-Key header is required")
		return
	}
	if req.SenderID == uuid.Nil || req.ReceiverID == uuid.Nil {
		respondError(w, http.StatusBadRequest, "sender_id and receiver_id are required")
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		respondError(w, http.StatusUnprocessableEntity, "amount must be greater than zero")
		return
	}
	if req.SenderID == req.ReceiverID {
		respondError(w, http.StatusUnprocessableEntity, "sender and receiver must differ")
		return
	}

	transfer, err := h.executor.Execute(r.Context(), usecase.ExecuteTransferInput{
		SenderID:       req.SenderID,
		ReceiverID:     req.ReceiverID,
		Amount:         req.Amount,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		respondTransferError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newTransferResponse(transfer))
}

// List handles GET /transfers?status=approved&limit=N.
func (h *TransferHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.TransferStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.TransferApproved
	}
	if !status.Valid() {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	transfers, err := h.lister.Execute(r.Context(), status, limit)
	if err != nil {
		log.Error().Err(err).Msg("listing transfers")
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	responses := make([]transferResponse, 0, len(transfers))
	for i := range transfers {
		responses = append(responses, newTransferResponse(&transfers[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

// respondTransferError is a total mapping over the closed error taxonomy.
func respondTransferError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSenderNotFound),
		errors.Is(err, domain.ErrReceiverNotFound),
		errors.Is(err, domain.ErrSenderIneligible),
		errors.Is(err, domain.ErrReceiverIneligible),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrDuplicateTransfer),
		errors.Is(err, domain.ErrNotAuthorized):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.Error().Err(err).Msg("transfer execution failed")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
