package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/multirental/internal/domain"
)

const transactionColumns = `id, stock_line_id, branch_id, prior_state, new_state, quantity, created_at`

// TransactionStore is the append-only audit ledger. Rows are only removed
// together with their stock line.
type TransactionStore struct {
	db DBTX
}

func NewTransactionStore(db DBTX) *TransactionStore {
	return &TransactionStore{db: db}
}

func scanTransaction(row interface{ Scan(...any) error }, t *domain.Transaction) error {
	return row.Scan(&t.ID, &t.StockLineID, &t.BranchID, &t.PriorState, &t.NewState, &t.Quantity, &t.CreatedAt)
}

// Append inserts t and returns the stored row. CreatedAt must be set by the
// caller.
func (s *TransactionStore) Append(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (stock_line_id, branch_id, prior_state, new_state, quantity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.StockLineID, t.BranchID, t.PriorState, t.NewState, t.Quantity, t.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *TransactionStore) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?
	`, id), t)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return t, nil
}

// ListByStockLineID returns a line's history, newest first.
func (s *TransactionStore) ListByStockLineID(ctx context.Context, stockLineID int64) ([]*domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE stock_line_id = ? ORDER BY created_at DESC, id DESC
	`, stockLineID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer closeRows(rows)

	var txns []*domain.Transaction
	for rows.Next() {
		t := &domain.Transaction{}
		if err := scanTransaction(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txns, nil
}

// ReportByBranchID joins each of the branch's transactions with its tool, line
// and branch, newest first.
func (s *TransactionStore) ReportByBranchID(ctx context.Context, branchID int64) ([]*domain.TransactionReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tx.id, tx.stock_line_id, t.name, t.brand, sl.code, b.name,
		       tx.prior_state, tx.new_state, tx.quantity, tx.created_at
		FROM transactions tx
		JOIN stock_lines sl ON sl.id = tx.stock_line_id
		JOIN tools t ON t.id = sl.tool_id
		JOIN branches b ON b.id = tx.branch_id
		WHERE tx.branch_id = ?
		ORDER BY tx.created_at DESC, tx.id DESC
	`, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction report: %w", err)
	}
	defer closeRows(rows)

	var report []*domain.TransactionReportRow
	for rows.Next() {
		r := &domain.TransactionReportRow{}
		if err := rows.Scan(&r.TransactionID, &r.StockLineID, &r.ToolName, &r.ToolBrand, &r.Code, &r.BranchName,
			&r.PriorState, &r.NewState, &r.Quantity, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return report, nil
}

func (s *TransactionStore) DeleteByStockLineID(ctx context.Context, stockLineID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE stock_line_id = ?
	`, stockLineID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// DeleteByBranchID removes the history of every line at the branch, and any
// row that names the branch directly.
func (s *TransactionStore) DeleteByBranchID(ctx context.Context, branchID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE branch_id = ? OR stock_line_id IN (SELECT id FROM stock_lines WHERE branch_id = ?)
	`, branchID, branchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete transactions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
