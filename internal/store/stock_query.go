package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/multirental/internal/domain"
)

// SumAvailable totals quantity-available over the lines of a tool at a branch
// in the given state. No matching rows yields 0.
func (s *StockLineStore) SumAvailable(ctx context.Context, toolID, branchID int64, state domain.State) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(quantity_available), 0) FROM stock_lines
		WHERE tool_id = ? AND branch_id = ? AND state = ?
	`, toolID, branchID, state).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum stock: %w", err)
	}
	return total, nil
}

// TotalsByBranch groups quantity-available of a tool in the given state by
// branch, ordered by branch name.
func (s *StockLineStore) TotalsByBranch(ctx context.Context, toolID int64, state domain.State) ([]*domain.BranchTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.location, SUM(sl.quantity_available)
		FROM stock_lines sl
		JOIN branches b ON b.id = sl.branch_id
		WHERE sl.tool_id = ? AND sl.state = ?
		GROUP BY b.id, b.name, b.location
		ORDER BY b.name ASC, b.id ASC
	`, toolID, state)
	if err != nil {
		return nil, fmt.Errorf("failed to total stock by branch: %w", err)
	}
	defer closeRows(rows)

	var totals []*domain.BranchTotal
	for rows.Next() {
		t := &domain.BranchTotal{}
		if err := rows.Scan(&t.BranchID, &t.BranchName, &t.Location, &t.Total); err != nil {
			return nil, fmt.Errorf("failed to scan branch total: %w", err)
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating branch totals: %w", err)
	}

	return totals, nil
}

// ListByBranch returns one page of a branch's stock lines joined with their
// tool, plus the total number of matching lines. An empty filter matches all;
// otherwise it is a case-insensitive substring of tool name, brand or code.
// Available lines sort first, then by tool name.
func (s *StockLineStore) ListByBranch(ctx context.Context, branchID int64, filter string, limit, offset int) ([]*domain.StockLineView, int, error) {
	where := `sl.branch_id = ?`
	args := []any{branchID}
	if filter != "" {
		where += ` AND (fold(t.name) LIKE ? ESCAPE '\' OR fold(t.brand) LIKE ? ESCAPE '\' OR fold(sl.code) LIKE ? ESCAPE '\')`
		p := likePattern(filter)
		args = append(args, p, p, p)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stock_lines sl JOIN tools t ON t.id = sl.tool_id WHERE `+where,
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count stock lines: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sl.id, sl.branch_id, sl.tool_id, sl.code, sl.quantity_available, sl.state, sl.created_at,
		       t.name, t.brand
		FROM stock_lines sl
		JOIN tools t ON t.id = sl.tool_id
		WHERE `+where+`
		ORDER BY CASE WHEN sl.state = 'Available' THEN 0 ELSE 1 END, t.name ASC, sl.id ASC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock lines: %w", err)
	}
	defer closeRows(rows)

	var lines []*domain.StockLineView
	for rows.Next() {
		v := &domain.StockLineView{}
		if err := rows.Scan(&v.ID, &v.BranchID, &v.ToolID, &v.Code, &v.QuantityAvailable, &v.State, &v.CreatedAt,
			&v.ToolName, &v.ToolBrand); err != nil {
			return nil, 0, fmt.Errorf("failed to scan stock line: %w", err)
		}
		lines = append(lines, v)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating stock lines: %w", err)
	}

	return lines, total, nil
}

// SearchAvailable finds Available lines in every branch whose tool matches all
// keywords, each keyword against name or brand.
func (s *StockLineStore) SearchAvailable(ctx context.Context, keywords []string, limit, offset int) ([]*domain.BranchStockLineView, int, error) {
	conds := []string{`sl.state = 'Available'`}
	var args []any
	for _, k := range keywords {
		conds = append(conds, `(fold(t.name) LIKE ? ESCAPE '\' OR fold(t.brand) LIKE ? ESCAPE '\')`)
		p := likePattern(k)
		args = append(args, p, p)
	}
	where := strings.Join(conds, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM stock_lines sl JOIN tools t ON t.id = sl.tool_id WHERE `+where,
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sl.id, sl.branch_id, sl.tool_id, sl.code, sl.quantity_available, sl.state, sl.created_at,
		       t.name, t.brand, b.name
		FROM stock_lines sl
		JOIN tools t ON t.id = sl.tool_id
		JOIN branches b ON b.id = sl.branch_id
		WHERE `+where+`
		ORDER BY t.name ASC, b.name ASC, sl.code ASC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search stock: %w", err)
	}
	defer closeRows(rows)

	var lines []*domain.BranchStockLineView
	for rows.Next() {
		v := &domain.BranchStockLineView{}
		if err := rows.Scan(&v.ID, &v.BranchID, &v.ToolID, &v.Code, &v.QuantityAvailable, &v.State, &v.CreatedAt,
			&v.ToolName, &v.ToolBrand, &v.BranchName); err != nil {
			return nil, 0, fmt.Errorf("failed to scan search result: %w", err)
		}
		lines = append(lines, v)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating search results: %w", err)
	}

	return lines, total, nil
}
