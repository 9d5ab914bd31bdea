package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vbonduro/multirental/internal/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	maxFilterLen    = 100
)

// StockPage is one page of a branch listing.
type StockPage struct {
	Lines      []*domain.StockLineView `json:"lines"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Total      int                     `json:"total"`
	TotalPages int                     `json:"total_pages"`
}

// SearchPage is one page of a cross-branch availability search.
type SearchPage struct {
	Lines      []*domain.BranchStockLineView `json:"lines"`
	Page       int                           `json:"page"`
	PageSize   int                           `json:"page_size"`
	Total      int                           `json:"total"`
	TotalPages int                           `json:"total_pages"`
}

// AggregationService answers read-only stock questions. It never writes and
// computes every figure at query time.
type AggregationService struct {
	ledger          ledger
	defaultPageSize int
	logger          *slog.Logger
}

func NewAggregationService(l ledger, defaultPageSize int, logger *slog.Logger) *AggregationService {
	if defaultPageSize <= 0 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	return &AggregationService{ledger: l, defaultPageSize: defaultPageSize, logger: logger}
}

// StockTotalForTool sums quantity-available of a tool at a branch in state
// (Available when empty). It returns 0 when nothing matches.
func (s *AggregationService) StockTotalForTool(ctx context.Context, toolID, branchID int64, state domain.State) (int, error) {
	state, err := stateOrAvailable(state)
	if err != nil {
		return 0, err
	}
	return s.ledger.Repos().StockLines.SumAvailable(ctx, toolID, branchID, state)
}

// StockTotalsByBranch sums quantity-available of a tool per branch, ordered by
// branch name.
func (s *AggregationService) StockTotalsByBranch(ctx context.Context, toolID int64, state domain.State) ([]*domain.BranchTotal, error) {
	state, err := stateOrAvailable(state)
	if err != nil {
		return nil, err
	}
	return s.ledger.Repos().StockLines.TotalsByBranch(ctx, toolID, state)
}

// ListBranchStock pages through a branch's stock lines, Available first and
// then by tool name. page is 1-based; pageSize 0 selects the default.
func (s *AggregationService) ListBranchStock(ctx context.Context, branchID int64, filter string, page, pageSize int) (*StockPage, error) {
	filter = strings.TrimSpace(filter)
	if len(filter) > maxFilterLen {
		return nil, domain.InvalidArgument("filter")
	}
	page, pageSize, err := s.pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}

	repos := s.ledger.Repos()
	branch, err := repos.Branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NotFound("branch", branchID)
	}

	lines, total, err := repos.StockLines.ListByBranch(ctx, branchID, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []*domain.StockLineView{}
	}

	s.logger.Debug("listed branch stock", "branch_id", branchID, "filter", filter, "page", page, "total", total)
	return &StockPage{
		Lines:      lines,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// ListBranchTransactions returns the branch's ledger joined with tool and line
// data, newest first. Report and export collaborators read through here.
func (s *AggregationService) ListBranchTransactions(ctx context.Context, branchID int64) ([]*domain.TransactionReportRow, error) {
	repos := s.ledger.Repos()
	branch, err := repos.Branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.NotFound("branch", branchID)
	}
	return repos.Transactions.ReportByBranchID(ctx, branchID)
}

// SearchAvailable finds Available lines in any branch whose tool name or brand
// matches every whitespace-separated keyword of query. An empty query returns
// an empty page.
func (s *AggregationService) SearchAvailable(ctx context.Context, query string, page, pageSize int) (*SearchPage, error) {
	query = strings.TrimSpace(query)
	if len(query) > maxFilterLen {
		return nil, domain.InvalidArgument("query")
	}
	page, pageSize, err := s.pageBounds(page, pageSize)
	if err != nil {
		return nil, err
	}

	result := &SearchPage{Lines: []*domain.BranchStockLineView{}, Page: page, PageSize: pageSize}
	keywords := strings.Fields(query)
	if len(keywords) == 0 {
		return result, nil
	}

	lines, total, err := s.ledger.Repos().StockLines.SearchAvailable(ctx, keywords, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	if lines != nil {
		result.Lines = lines
	}
	result.Total = total
	result.TotalPages = totalPages(total, pageSize)
	return result, nil
}

func (s *AggregationService) pageBounds(page, pageSize int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return 0, 0, domain.InvalidArgument("page")
	}
	if pageSize < 0 {
		return 0, 0, domain.InvalidArgument("page_size")
	}
	if pageSize == 0 {
		pageSize = s.defaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, nil
}

func totalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}

func stateOrAvailable(state domain.State) (domain.State, error) {
	if state == "" {
		return domain.StateAvailable, nil
	}
	if !state.Valid() {
		return "", &domain.Error{Kind: domain.ErrInvalidState, State: string(state)}
	}
	return state, nil
}
