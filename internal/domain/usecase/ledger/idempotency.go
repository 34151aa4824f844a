package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
)

// IdempotencyHandler replays ledger requests whose (source, refId) was already applied
type IdempotencyHandler struct {
	uow persistence.UnitOfWork
}

// NewIdempotencyHandler creates a new IdempotencyHandler
func NewIdempotencyHandler(uow persistence.UnitOfWork) *IdempotencyHandler {
	return &IdempotencyHandler{uow: uow}
}

// CheckIdempotency returns the stored result when the request's key was already used.
// A key reused for a different user or amount is rejected.
func (h *IdempotencyHandler) CheckIdempotency(
	ctx context.Context,
	req usecase.ApplyRequest,
) (*entity.ApplyResult, bool, error) {
	if req.RefID == "" {
		return nil, false, nil
	}

	stored, err := h.uow.GetTransactionRepository(ctx).GetByRef(ctx, req.Source, req.RefID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up transaction reference: %w", err)
	}

	if !sameMovement(stored, req) {
		return nil, true, errs.NewValidationError(errs.ErrIdempotencyKeyReuse, "refId",
			fmt.Sprintf("%s/%s was applied to user %d with amount %d", req.Source, req.RefID, stored.UserID, stored.AmountMicro))
	}

	return &entity.ApplyResult{
		TransactionID: stored.ID,
		BalanceMicro:  stored.BalanceAfterMicro,
		Replayed:      true,
	}, true, nil
}
