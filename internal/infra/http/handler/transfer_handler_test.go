package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/usecase"
)

type stubExecutor struct {
	transfer *domain.Transfer
	err      error
	input    usecase.ExecuteTransferInput
	called   bool
}

func (s *stubExecutor) Execute(_ context.Context, input usecase.ExecuteTransferInput) (*domain.Transfer, error) {
	s.called = true
	s.input = input
	return s.transfer, s.err
}

type stubLister struct {
	transfers []domain.Transfer
	err       error
}

func (s *stubLister) Execute(context.Context, domain.TransferStatus, int) ([]domain.Transfer, error) {
	return s.transfers, s.err
}

func performTransfer(t *testing.T, executor *stubExecutor, body, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewTransferHandler(executor, &stubLister{})
	req := httptest.NewRequest(http.MethodPost, "/transfers", strings.NewReader(body))
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	recorder := httptest.NewRecorder()
	h.Create(recorder, req)
	return recorder
}

func validBody(senderID, receiverID uuid.UUID) string {
	return `{"sender_id":"` + senderID.String() + `","receiver_id":"` + receiverID.String() + `","amount":"50.00"}`
}

func TestCreateTransferSuccess(t *testing.T) {
	senderID, receiverID := uuid.New(), uuid.New()
	executor := &stubExecutor{transfer: &domain.Transfer{
		ID:             uuid.New(),
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Amount:         decimal.RequireFromString("50.00"),
		IdempotencyKey: "key-1",
		Status:         domain.TransferApproved,
		CreatedAt:      time.Now(),
	}}

	recorder := performTransfer(t, executor, validBody(senderID, receiverID), "key-1")

	require.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, executor.called)
	assert.Equal(t, "key-1", executor.input.IdempotencyKey)
	assert.True(t, executor.input.Amount.Equal(decimal.RequireFromString("50.00")))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "approved", resp["status"])
	assert.Equal(t, "50.00", resp["amount"])
}

func TestCreateTransferBusinessFailuresMapTo422(t *testing.T) {
	senderID, receiverID := uuid.New(), uuid.New()
	businessErrors := []error{
		domain.ErrSenderNotFound,
		domain.ErrReceiverNotFound,
		domain.ErrSenderIneligible,
		domain.ErrReceiverIneligible,
		domain.ErrInsufficientFunds,
		domain.ErrDuplicateTransfer,
		domain.ErrNotAuthorized,
	}

	for _, businessErr := range businessErrors {
		t.Run(businessErr.Error(), func(t *testing.T) {
			executor := &stubExecutor{err: businessErr}
			recorder := performTransfer(t, executor, validBody(senderID, receiverID), "key-1")
			assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		})
	}
}

func TestCreateTransferUnexpectedErrorMapsTo500(t *testing.T) {
	senderID, receiverID := uuid.New(), uuid.New()
	executor := &stubExecutor{err: context.DeadlineExceeded}

	recorder := performTransfer(t, executor, validBody(senderID, receiverID), "key-1")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestCreateTransferInputValidation(t *testing.T) {
	senderID, receiverID := uuid.New(), uuid.New()

	t.Run("missing idempotency key", func(t *testing.T) {
		executor := &stubExecutor{}
		recorder := performTransfer(t, executor, validBody(senderID, receiverID), "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, executor.called)
	})

	t.Run("malformed payload", func(t *testing.T) {
		executor := &stubExecutor{}
		recorder := performTransfer(t, executor, "{not json", "key-1")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, executor.called)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		executor := &stubExecutor{}
		body := `{"sender_id":"` + senderID.String() + `","receiver_id":"` + receiverID.String() + `","amount":"0"}`
		recorder := performTransfer(t, executor, body, "key-1")
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.False(t, executor.called)
	})

	t.Run("self transfer", func(t *testing.T) {
		executor := &stubExecutor{}
		recorder := performTransfer(t, executor, validBody(senderID, senderID), "key-1")
		assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
		assert.False(t, executor.called)
	})
}

func TestListTransfers(t *testing.T) {
	transfers := []domain.Transfer{
		{
			ID:             uuid.New(),
			SenderID:       uuid.New(),
			ReceiverID:     uuid.New(),
			Amount:         decimal.RequireFromString("10.00"),
			IdempotencyKey: "key-1",
			Status:         domain.TransferApproved,
			CreatedAt:      time.Now(),
		},
	}
	h := NewTransferHandler(&stubExecutor{}, &stubLister{transfers: transfers})

	req := httptest.NewRequest(http.MethodGet, "/transfers?status=approved&limit=10", nil)
	recorder := httptest.NewRecorder()
	h.List(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp []map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "approved", resp[0]["status"])

	t.Run("unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transfers?status=bogus", nil)
		recorder := httptest.NewRecorder()
		h.List(recorder, req)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
