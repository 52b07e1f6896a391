package usecase

import (
	"context"
	"fmt"

	"github.com/LuizEscobarC/simplified-payment-api/internal/domain"
	"github.com/LuizEscobarC/simplified-payment-api/internal/gateway"
)

const defaultTransferListLimit = 50

type ListTransfersUseCase struct {
	transfers gateway.TransferRepository
}

func NewListTransfers(transfers gateway.TransferRepository) *ListTransfersUseCase {
	return &ListTransfersUseCase{transfers: transfers}
}

// Execute returns the most recent transfers with the given status, newest
// first. A non-positive limit falls back to the default.
func (u *ListTransfersUseCase) Execute(ctx context.Context, status domain.TransferStatus, limit int) ([]domain.Transfer, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown transfer status %q", status)
	}
	if limit <= 0 {
		limit = defaultTransferListLimit
	}
	return u.transfers.ListByStatus(ctx, status, limit)
}
