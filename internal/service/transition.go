package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/multirental/internal/domain"
	"github.com/vbonduro/multirental/internal/store"
)

// TransitionRequest asks for one stock line to change state.
type TransitionRequest struct {
	// BranchID is the acting branch. When non-zero the line must belong to it.
	BranchID    int64
	StockLineID int64
	State       domain.State
	// Quantity is the number of units moved; 0 means 1.
	Quantity int
}

// TransitionResult is the line after the change and its audit entry.
type TransitionResult struct {
	StockLine   *domain.StockLine   `json:"stock_line"`
	Transaction *domain.Transaction `json:"transaction"`
}

// TransitionEngine applies state changes to stock lines. Each change and its
// audit Transaction commit together or not at all.
type TransitionEngine struct {
	ledger ledger
	logger *slog.Logger
	now    func() time.Time
}

func NewTransitionEngine(l ledger, logger *slog.Logger) *TransitionEngine {
	return &TransitionEngine{ledger: l, logger: logger, now: time.Now}
}

// ApplyTransition validates the request against the line's current state and
// applies it. Checks run in order: line exists (in the acting branch), state is
// recognized, state differs from the current one, and enough stock is
// available when leaving Available.
func (e *TransitionEngine) ApplyTransition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	var res *TransitionResult
	err := e.ledger.InTx(ctx, func(r *store.Repos) error {
		line, err := r.StockLines.GetByID(ctx, req.StockLineID)
		if err != nil {
			return err
		}
		if line == nil || (req.BranchID != 0 && line.BranchID != req.BranchID) {
			return domain.NotFound("stock line", req.StockLineID)
		}

		res, err = e.apply(ctx, r, line, req.State, req.Quantity)
		return err
	})
	if err != nil {
		logFailure(e.logger, "transition rejected", err,
			"stock_line_id", req.StockLineID, "branch_id", req.BranchID, "state", req.State, "quantity", req.Quantity)
		return nil, err
	}

	e.logger.Info("transition applied",
		"stock_line_id", res.StockLine.ID,
		"branch_id", res.StockLine.BranchID,
		"from", res.Transaction.PriorState,
		"to", res.Transaction.NewState,
		"quantity", res.Transaction.Quantity,
		"quantity_available", res.StockLine.QuantityAvailable,
	)
	return res, nil
}

// ApplyTransitionByCode resolves the line by its code within branchID and
// applies the same rules as ApplyTransition.
func (e *TransitionEngine) ApplyTransitionByCode(ctx context.Context, branchID int64, code string, state domain.State, quantity int) (*TransitionResult, error) {
	var res *TransitionResult
	err := e.ledger.InTx(ctx, func(r *store.Repos) error {
		line, err := r.StockLines.GetByCode(ctx, branchID, code)
		if err != nil {
			return err
		}
		if line == nil {
			return &domain.Error{Kind: domain.ErrNotFound, Entity: "stock line", Code: code}
		}

		res, err = e.apply(ctx, r, line, state, quantity)
		return err
	})
	if err != nil {
		logFailure(e.logger, "transition rejected", err,
			"code", code, "branch_id", branchID, "state", state, "quantity", quantity)
		return nil, err
	}

	e.logger.Info("transition applied",
		"stock_line_id", res.StockLine.ID,
		"code", code,
		"branch_id", branchID,
		"from", res.Transaction.PriorState,
		"to", res.Transaction.NewState,
		"quantity", res.Transaction.Quantity,
	)
	return res, nil
}

func (e *TransitionEngine) apply(ctx context.Context, r *store.Repos, line *domain.StockLine, to domain.State, quantity int) (*TransitionResult, error) {
	if !to.Valid() {
		return nil, &domain.Error{Kind: domain.ErrInvalidState, Entity: "stock line", ID: line.ID, State: string(to)}
	}
	if quantity == 0 {
		quantity = 1
	}
	if to == line.State {
		return nil, &domain.Error{Kind: domain.ErrNoOpTransition, Entity: "stock line", ID: line.ID, State: string(to)}
	}
	if quantity < 0 {
		return nil, &domain.Error{Kind: domain.ErrInvalidArgument, Entity: "stock line", ID: line.ID, Field: "quantity", Requested: quantity}
	}

	delta := domain.QuantityDelta(line.State, to, quantity)
	if line.QuantityAvailable+delta < 0 {
		return nil, &domain.Error{
			Kind:      domain.ErrInsufficientStock,
			Entity:    "stock line",
			ID:        line.ID,
			Requested: quantity,
			Available: line.QuantityAvailable,
		}
	}

	updated := *line
	updated.State = to
	updated.QuantityAvailable += delta

	ok, err := r.StockLines.UpdateState(ctx, line.ID, updated.State, updated.QuantityAvailable)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.Error{Kind: domain.ErrIntegrityViolation, Entity: "stock line", ID: line.ID,
			Err: fmt.Errorf("row vanished inside transaction")}
	}

	txn, err := r.Transactions.Append(ctx, &domain.Transaction{
		StockLineID: line.ID,
		BranchID:    line.BranchID,
		PriorState:  line.State,
		NewState:    to,
		Quantity:    quantity,
		CreatedAt:   e.now(),
	})
	if err != nil {
		return nil, err
	}

	return &TransitionResult{StockLine: &updated, Transaction: txn}, nil
}

// History returns the audit trail of a stock line, newest first.
func (e *TransitionEngine) History(ctx context.Context, stockLineID int64) ([]*domain.Transaction, error) {
	repos := e.ledger.Repos()
	line, err := repos.StockLines.GetByID(ctx, stockLineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, domain.NotFound("stock line", stockLineID)
	}
	return repos.Transactions.ListByStockLineID(ctx, stockLineID)
}
