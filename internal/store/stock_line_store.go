package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vbonduro/multirental/internal/domain"
)

const stockLineColumns = `id, branch_id, tool_id, code, quantity_available, state, created_at`

type StockLineStore struct {
	db DBTX
}

func NewStockLineStore(db DBTX) *StockLineStore {
	return &StockLineStore{db: db}
}

func scanStockLine(row interface{ Scan(...any) error }, sl *domain.StockLine) error {
	return row.Scan(&sl.ID, &sl.BranchID, &sl.ToolID, &sl.Code, &sl.QuantityAvailable, &sl.State, &sl.CreatedAt)
}

// Create inserts a stock line with the schema defaults: Available, quantity 1.
func (s *StockLineStore) Create(ctx context.Context, branchID, toolID int64, code string) (*domain.StockLine, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO stock_lines (branch_id, tool_id, code, quantity_available, state) VALUES (?, ?, ?, 1, ?)
	`, branchID, toolID, code, domain.StateAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to create stock line: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *StockLineStore) GetByID(ctx context.Context, id int64) (*domain.StockLine, error) {
	sl := &domain.StockLine{}
	err := scanStockLine(s.db.QueryRowContext(ctx, `
		SELECT `+stockLineColumns+` FROM stock_lines WHERE id = ?
	`, id), sl)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock line: %w", err)
	}

	return sl, nil
}

func (s *StockLineStore) GetByCode(ctx context.Context, branchID int64, code string) (*domain.StockLine, error) {
	sl := &domain.StockLine{}
	err := scanStockLine(s.db.QueryRowContext(ctx, `
		SELECT `+stockLineColumns+` FROM stock_lines WHERE branch_id = ? AND code = ?
	`, branchID, code), sl)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock line by code: %w", err)
	}

	return sl, nil
}

// ExistingCodes returns the subset of codes already registered at the branch,
// sorted ascending.
func (s *StockLineStore) ExistingCodes(ctx context.Context, branchID int64, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(codes)+1)
	args = append(args, branchID)
	for _, c := range codes {
		args = append(args, c)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(codes)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT code FROM stock_lines WHERE branch_id = ? AND code IN (`+placeholders+`) ORDER BY code ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to check codes: %w", err)
	}
	defer closeRows(rows)

	var existing []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan code: %w", err)
		}
		existing = append(existing, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating codes: %w", err)
	}

	return existing, nil
}

// UpdateState writes the state and quantity-available of one line and reports
// whether the row existed.
func (s *StockLineStore) UpdateState(ctx context.Context, id int64, state domain.State, quantityAvailable int) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE stock_lines SET state = ?, quantity_available = ? WHERE id = ?
	`, state, quantityAvailable, id)
	if err != nil {
		return false, fmt.Errorf("failed to update stock line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *StockLineStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM stock_lines WHERE id = ?
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete stock line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *StockLineStore) DeleteByBranchID(ctx context.Context, branchID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM stock_lines WHERE branch_id = ?
	`, branchID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stock lines: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// ToolIDsByBranchID returns the distinct tools stocked at a branch.
func (s *StockLineStore) ToolIDsByBranchID(ctx context.Context, branchID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT tool_id FROM stock_lines WHERE branch_id = ? ORDER BY tool_id ASC
	`, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool ids: %w", err)
	}
	defer closeRows(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tool id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tool ids: %w", err)
	}

	return ids, nil
}

func (s *StockLineStore) CountByToolID(ctx context.Context, toolID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stock_lines WHERE tool_id = ?
	`, toolID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count stock lines: %w", err)
	}
	return n, nil
}
