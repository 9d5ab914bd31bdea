package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/vbonduro/multirental/internal/domain"
	"github.com/vbonduro/multirental/internal/store"
)

// Registration is the outcome of RegisterTool.
type Registration struct {
	Tool       *domain.Tool        `json:"tool"`
	StockLines []*domain.StockLine `json:"stock_lines"`
}

// StockLineRemoval describes what RemoveStockLine deleted.
type StockLineRemoval struct {
	StockLineID         int64 `json:"stock_line_id"`
	ToolID              int64 `json:"tool_id"`
	ToolRemoved         bool  `json:"tool_removed"`
	TransactionsRemoved int64 `json:"transactions_removed"`
}

// BranchRemoval describes what RemoveBranch deleted.
type BranchRemoval struct {
	BranchID            int64   `json:"branch_id"`
	StockLinesRemoved   int64   `json:"stock_lines_removed"`
	TransactionsRemoved int64   `json:"transactions_removed"`
	ToolsRemoved        []int64 `json:"tools_removed"`
}

// CatalogService owns branch administration and the registration and removal
// flows, keeping Tool, StockLine and Transaction cascades consistent.
type CatalogService struct {
	ledger ledger
	logger *slog.Logger
}

func NewCatalogService(l ledger, logger *slog.Logger) *CatalogService {
	return &CatalogService{ledger: l, logger: logger}
}

func (s *CatalogService) CreateBranch(ctx context.Context, name, location string) (*domain.Branch, error) {
	name, location = strings.TrimSpace(name), strings.TrimSpace(location)
	if name == "" {
		return nil, domain.InvalidArgument("name")
	}
	if location == "" {
		return nil, domain.InvalidArgument("location")
	}

	var branch *domain.Branch
	err := s.ledger.InTx(ctx, func(r *store.Repos) error {
		var err error
		branch, err = r.Branches.Create(ctx, name, location)
		return err
	})
	if err != nil {
		logFailure(s.logger, "create branch failed", err, "name", name)
		return nil, err
	}

	s.logger.Info("branch created", "branch_id", branch.ID, "name", branch.Name)
	return branch, nil
}

func (s *CatalogService) ListBranches(ctx context.Context) ([]*domain.Branch, error) {
	return s.ledger.Repos().Branches.List(ctx)
}

func (s *CatalogService) GetBranch(ctx context.Context, id int64) (*domain.Branch, error) {
	branch, err := s.ledger.Repos().Branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NotFound("branch", id)
	}
	return branch, nil
}

func (s *CatalogService) RenameBranch(ctx context.Context, id int64, name string) (*domain.Branch, error) {
	return s.UpdateBranch(ctx, id, &name, nil)
}

func (s *CatalogService) RelocateBranch(ctx context.Context, id int64, location string) (*domain.Branch, error) {
	return s.UpdateBranch(ctx, id, nil, &location)
}

// UpdateBranch changes the name, the location or both. Nil fields are left
// as they are. Both values are validated before anything is written, and
// both updates commit together.
func (s *CatalogService) UpdateBranch(ctx context.Context, id int64, name, location *string) (*domain.Branch, error) {
	if name == nil && location == nil {
		return nil, domain.InvalidArgument("name")
	}
	var newName, newLocation string
	if name != nil {
		if newName = strings.TrimSpace(*name); newName == "" {
			return nil, domain.InvalidArgument("name")
		}
	}
	if location != nil {
		if newLocation = strings.TrimSpace(*location); newLocation == "" {
			return nil, domain.InvalidArgument("location")
		}
	}

	var branch *domain.Branch
	err := s.ledger.InTx(ctx, func(r *store.Repos) error {
		if name != nil {
			ok, err := r.Branches.UpdateName(ctx, id, newName)
			if err != nil {
				return err
			}
			if !ok {
				return domain.NotFound("branch", id)
			}
		}
		if location != nil {
			ok, err := r.Branches.UpdateLocation(ctx, id, newLocation)
			if err != nil {
				return err
			}
			if !ok {
				return domain.NotFound("branch", id)
			}
		}
		var err error
		branch, err = r.Branches.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logFailure(s.logger, "update branch failed", err, "branch_id", id)
		return nil, err
	}

	s.logger.Info("branch updated", "branch_id", id, "name", branch.Name, "location", branch.Location)
	return branch, nil
}

// RegisterTool creates one Tool and one Available stock line of quantity 1
// per code at the branch. Either every code registers or none does.
func (s *CatalogService) RegisterTool(ctx context.Context, branchID int64, name, brand string, codes []string) (*Registration, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	brand = strings.ToUpper(strings.TrimSpace(brand))
	if name == "" {
		return nil, domain.InvalidArgument("name")
	}
	if brand == "" {
		return nil, domain.InvalidArgument("brand")
	}
	cleaned, err := cleanCodes(branchID, codes)
	if err != nil {
		return nil, err
	}

	reg := &Registration{}
	err = s.ledger.InTx(ctx, func(r *store.Repos) error {
		branch, err := r.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.NotFound("branch", branchID)
		}

		existing, err := r.StockLines.ExistingCodes(ctx, branchID, cleaned)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return &domain.Error{Kind: domain.ErrDuplicateCode, Entity: "branch", ID: branchID, Codes: existing}
		}

		reg.Tool, err = r.Tools.Create(ctx, name, brand)
		if err != nil {
			return err
		}
		for _, code := range cleaned {
			line, err := r.StockLines.Create(ctx, branchID, reg.Tool.ID, code)
			if store.IsUniqueViolation(err) {
				// Lost a race with a concurrent registration of the same code.
				return &domain.Error{Kind: domain.ErrDuplicateCode, Entity: "branch", ID: branchID, Codes: []string{code}, Err: err}
			}
			if err != nil {
				return err
			}
			reg.StockLines = append(reg.StockLines, line)
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "register tool failed", err, "branch_id", branchID, "name", name, "brand", brand)
		return nil, err
	}

	s.logger.Info("tool registered",
		"branch_id", branchID, "tool_id", reg.Tool.ID, "name", name, "brand", brand, "codes", len(reg.StockLines))
	return reg, nil
}

// cleanCodes trims codes and rejects empty submissions, blank codes and codes
// repeated within the submission.
func cleanCodes(branchID int64, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, domain.InvalidArgument("codes")
	}

	cleaned := make([]string, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	var repeated []string
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, domain.InvalidArgument("codes")
		}
		if seen[c] {
			repeated = append(repeated, c)
			continue
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}

	if len(repeated) > 0 {
		sort.Strings(repeated)
		return nil, &domain.Error{Kind: domain.ErrDuplicateCode, Entity: "branch", ID: branchID, Codes: repeated}
	}
	return cleaned, nil
}

// RemoveStockLine deletes a stock line with its history, and its tool when no
// other line references it.
func (s *CatalogService) RemoveStockLine(ctx context.Context, stockLineID int64) (*StockLineRemoval, error) {
	removal := &StockLineRemoval{StockLineID: stockLineID}
	err := s.ledger.InTx(ctx, func(r *store.Repos) error {
		line, err := r.StockLines.GetByID(ctx, stockLineID)
		if err != nil {
			return err
		}
		if line == nil {
			return domain.NotFound("stock line", stockLineID)
		}
		removal.ToolID = line.ToolID

		tool, err := r.Tools.GetByID(ctx, line.ToolID)
		if err != nil {
			return err
		}
		if tool == nil {
			return &domain.Error{Kind: domain.ErrIntegrityViolation, Entity: "tool", ID: line.ToolID,
				Err: fmt.Errorf("referenced by stock line %d but missing", stockLineID)}
		}

		removal.TransactionsRemoved, err = r.Transactions.DeleteByStockLineID(ctx, stockLineID)
		if err != nil {
			return err
		}
		ok, err := r.StockLines.Delete(ctx, stockLineID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.Error{Kind: domain.ErrIntegrityViolation, Entity: "stock line", ID: stockLineID,
				Err: fmt.Errorf("row vanished inside transaction")}
		}
		removal.ToolRemoved, err = r.Tools.DeleteIfOrphaned(ctx, line.ToolID)
		return err
	})
	if err != nil {
		logFailure(s.logger, "remove stock line failed", err, "stock_line_id", stockLineID)
		return nil, err
	}

	s.logger.Info("stock line removed",
		"stock_line_id", stockLineID,
		"tool_id", removal.ToolID,
		"tool_removed", removal.ToolRemoved,
		"transactions_removed", removal.TransactionsRemoved,
	)
	return removal, nil
}

// RemoveBranch deletes a branch, every stock line and transaction in it, and
// the tools left without any stock line.
func (s *CatalogService) RemoveBranch(ctx context.Context, branchID int64) (*BranchRemoval, error) {
	removal := &BranchRemoval{BranchID: branchID}
	err := s.ledger.InTx(ctx, func(r *store.Repos) error {
		branch, err := r.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.NotFound("branch", branchID)
		}

		toolIDs, err := r.StockLines.ToolIDsByBranchID(ctx, branchID)
		if err != nil {
			return err
		}

		if removal.TransactionsRemoved, err = r.Transactions.DeleteByBranchID(ctx, branchID); err != nil {
			return err
		}
		if removal.StockLinesRemoved, err = r.StockLines.DeleteByBranchID(ctx, branchID); err != nil {
			return err
		}
		for _, id := range toolIDs {
			removed, err := r.Tools.DeleteIfOrphaned(ctx, id)
			if err != nil {
				return err
			}
			if removed {
				removal.ToolsRemoved = append(removal.ToolsRemoved, id)
			}
		}

		ok, err := r.Branches.Delete(ctx, branchID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.Error{Kind: domain.ErrIntegrityViolation, Entity: "branch", ID: branchID,
				Err: fmt.Errorf("row vanished inside transaction")}
		}
		return nil
	})
	if err != nil {
		logFailure(s.logger, "remove branch failed", err, "branch_id", branchID)
		return nil, err
	}

	s.logger.Info("branch removed",
		"branch_id", branchID,
		"stock_lines_removed", removal.StockLinesRemoved,
		"transactions_removed", removal.TransactionsRemoved,
		"tools_removed", len(removal.ToolsRemoved),
	)
	return removal, nil
}
