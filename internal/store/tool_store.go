package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/multirental/internal/domain"
)

type ToolStore struct {
	db DBTX
}

func NewToolStore(db DBTX) *ToolStore {
	return &ToolStore{db: db}
}

func (s *ToolStore) Create(ctx context.Context, name, brand string) (*domain.Tool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tools (name, brand) VALUES (?, ?)
	`, name, brand)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *ToolStore) GetByID(ctx context.Context, id int64) (*domain.Tool, error) {
	tool := &domain.Tool{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, brand, created_at FROM tools WHERE id = ?
	`, id).Scan(&tool.ID, &tool.Name, &tool.Brand, &tool.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tool: %w", err)
	}

	return tool, nil
}

// DeleteIfOrphaned deletes the tool when no stock line references it and
// reports whether a row was deleted.
func (s *ToolStore) DeleteIfOrphaned(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tools
		WHERE id = ? AND NOT EXISTS (SELECT 1 FROM stock_lines WHERE tool_id = tools.id)
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete tool: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
