package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vbonduro/multirental/internal/domain"
)

type BranchStore struct {
	db DBTX
}

func NewBranchStore(db DBTX) *BranchStore {
	return &BranchStore{db: db}
}

func (s *BranchStore) Create(ctx context.Context, name, location string) (*domain.Branch, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (name, location) VALUES (?, ?)
	`, name, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *BranchStore) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	branch := &domain.Branch{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, location, created_at FROM branches WHERE id = ?
	`, id).Scan(&branch.ID, &branch.Name, &branch.Location, &branch.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get branch: %w", err)
	}

	return branch, nil
}

func (s *BranchStore) List(ctx context.Context) ([]*domain.Branch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, location, created_at FROM branches ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer closeRows(rows)

	var branches []*domain.Branch
	for rows.Next() {
		branch := &domain.Branch{}
		if err := rows.Scan(&branch.ID, &branch.Name, &branch.Location, &branch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}
		branches = append(branches, branch)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating branches: %w", err)
	}

	return branches, nil
}

// UpdateName reports false when no branch has the given id.
func (s *BranchStore) UpdateName(ctx context.Context, id int64, name string) (bool, error) {
	return s.update(ctx, `UPDATE branches SET name = ? WHERE id = ?`, name, id)
}

func (s *BranchStore) UpdateLocation(ctx context.Context, id int64, location string) (bool, error) {
	return s.update(ctx, `UPDATE branches SET location = ? WHERE id = ?`, location, id)
}

func (s *BranchStore) update(ctx context.Context, query, value string, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return false, fmt.Errorf("failed to update branch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete removes the branch row only. Callers delete dependent rows first.
func (s *BranchStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM branches WHERE id = ?
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete branch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
