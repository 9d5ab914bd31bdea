package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/multirental/internal/domain"
)

func TestStockLineStoreCreateDefaults(t *testing.T) {
	r := NewRepos(openTestDB(t))
	branch, tool, line := seedLine(t, r, "HD-1")

	assert.NotZero(t, line.ID)
	assert.Equal(t, branch.ID, line.BranchID)
	assert.Equal(t, tool.ID, line.ToolID)
	assert.Equal(t, "HD-1", line.Code)
	assert.Equal(t, 1, line.QuantityAvailable)
	assert.Equal(t, domain.StateAvailable, line.State)
}

func TestStockLineStoreCodeUniquePerBranch(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	_, tool, _ := seedLine(t, r, "HD-1")

	other, err := r.Branches.Create(ctx, "South", "Av. Sur 2")
	require.NoError(t, err)

	// Same code at a different branch is fine.
	_, err = r.StockLines.Create(ctx, other.ID, tool.ID, "HD-1")
	require.NoError(t, err)

	got, err := r.StockLines.GetByCode(ctx, other.ID, "HD-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, other.ID, got.BranchID)
}

func TestStockLineStoreExistingCodes(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	branch, tool, _ := seedLine(t, r, "HD-2")
	_, err := r.StockLines.Create(ctx, branch.ID, tool.ID, "HD-1")
	require.NoError(t, err)

	existing, err := r.StockLines.ExistingCodes(ctx, branch.ID, []string{"HD-9", "HD-2", "HD-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"HD-1", "HD-2"}, existing)

	none, err := r.StockLines.ExistingCodes(ctx, branch.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStockLineStoreUpdateState(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	_, _, line := seedLine(t, r, "HD-1")

	ok, err := r.StockLines.UpdateState(ctx, line.ID, domain.StateReserved, 0)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := r.StockLines.GetByID(ctx, line.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReserved, got.State)
	assert.Equal(t, 0, got.QuantityAvailable)

	ok, err = r.StockLines.UpdateState(ctx, 999, domain.StateReserved, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStockLineStoreSumAvailable(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	branch, tool, _ := seedLine(t, r, "HD-1")
	second, err := r.StockLines.Create(ctx, branch.ID, tool.ID, "HD-2")
	require.NoError(t, err)
	_, err = r.StockLines.Create(ctx, branch.ID, tool.ID, "HD-3")
	require.NoError(t, err)
	_, err = r.StockLines.UpdateState(ctx, second.ID, domain.StateUnderMaintenance, 0)
	require.NoError(t, err)

	total, err := r.StockLines.SumAvailable(ctx, tool.ID, branch.ID, domain.StateAvailable)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	total, err = r.StockLines.SumAvailable(ctx, tool.ID, branch.ID, domain.StateReserved)
	require.NoError(t, err)
	assert.Zero(t, total)

	total, err = r.StockLines.SumAvailable(ctx, 999, branch.ID, domain.StateAvailable)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockLineStoreTotalsByBranch(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	central, tool, _ := seedLine(t, r, "HD-1")
	_, err := r.StockLines.Create(ctx, central.ID, tool.ID, "HD-2")
	require.NoError(t, err)

	annex, err := r.Branches.Create(ctx, "Annex", "Side St 3")
	require.NoError(t, err)
	_, err = r.StockLines.Create(ctx, annex.ID, tool.ID, "HD-1")
	require.NoError(t, err)

	totals, err := r.StockLines.TotalsByBranch(ctx, tool.ID, domain.StateAvailable)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "Annex", totals[0].BranchName)
	assert.Equal(t, 1, totals[0].Total)
	assert.Equal(t, "Central", totals[1].BranchName)
	assert.Equal(t, 2, totals[1].Total)
}

func TestStockLineStoreListByBranch(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	branch, drill, first := seedLine(t, r, "HD-1")
	saw, err := r.Tools.Create(ctx, "CIRCULAR SAW", "MAKITA")
	require.NoError(t, err)
	sawLine, err := r.StockLines.Create(ctx, branch.ID, saw.ID, "CS-1")
	require.NoError(t, err)
	_, err = r.StockLines.Create(ctx, branch.ID, saw.ID, "CS_2")
	require.NoError(t, err)
	_, err = r.StockLines.UpdateState(ctx, first.ID, domain.StateReserved, 0)
	require.NoError(t, err)

	lines, total, err := r.StockLines.ListByBranch(ctx, branch.ID, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, lines, 3)
	// Available rows first, then by tool name.
	assert.Equal(t, sawLine.ID, lines[0].ID)
	assert.Equal(t, "CIRCULAR SAW", lines[0].ToolName)
	assert.Equal(t, "MAKITA", lines[0].ToolBrand)
	assert.Equal(t, drill.ID, lines[2].ToolID)
	assert.Equal(t, domain.StateReserved, lines[2].State)

	lines, total, err = r.StockLines.ListByBranch(ctx, branch.ID, "makita", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, lines, 1)
	assert.Equal(t, "CS_2", lines[0].Code)

	// Underscore is matched literally, not as a wildcard.
	lines, total, err = r.StockLines.ListByBranch(ctx, branch.ID, "cs_", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, lines, 1)
	assert.Equal(t, "CS_2", lines[0].Code)
}

func TestStockLineStoreFilterFoldsUnicode(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	branch, _, _ := seedLine(t, r, "HD-1")
	tool, err := r.Tools.Create(ctx, "ÑANDÚ", "CONSTRUCCIÓN")
	require.NoError(t, err)
	line, err := r.StockLines.Create(ctx, branch.ID, tool.ID, "Ñ-1")
	require.NoError(t, err)

	lines, total, err := r.StockLines.ListByBranch(ctx, branch.ID, "ñandú", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, lines, 1)
	assert.Equal(t, line.ID, lines[0].ID)

	found, total, err := r.StockLines.SearchAvailable(ctx, []string{"construcción"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "ÑANDÚ", found[0].ToolName)
}

func TestStockLineStoreSearchAvailable(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	central, drill, first := seedLine(t, r, "HD-1")
	annex, err := r.Branches.Create(ctx, "Annex", "Side St 3")
	require.NoError(t, err)
	_, err = r.StockLines.Create(ctx, annex.ID, drill.ID, "HD-7")
	require.NoError(t, err)
	_, err = r.StockLines.Create(ctx, central.ID, drill.ID, "HD-2")
	require.NoError(t, err)
	_, err = r.StockLines.UpdateState(ctx, first.ID, domain.StateReserved, 0)
	require.NoError(t, err)

	results, total, err := r.StockLines.SearchAvailable(ctx, []string{"drill", "bosch"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
	assert.Equal(t, "Annex", results[0].BranchName)
	assert.Equal(t, "Central", results[1].BranchName)

	_, total, err = r.StockLines.SearchAvailable(ctx, []string{"drill", "makita"}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestStockLineStoreDeleteAndCount(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	branch, tool, line := seedLine(t, r, "HD-1")
	_, err := r.StockLines.Create(ctx, branch.ID, tool.ID, "HD-2")
	require.NoError(t, err)

	n, err := r.StockLines.CountByToolID(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := r.StockLines.Delete(ctx, line.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ids, err := r.StockLines.ToolIDsByBranchID(ctx, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{tool.ID}, ids)

	deleted, err := r.StockLines.DeleteByBranchID(ctx, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	removed, err := r.Tools.DeleteIfOrphaned(ctx, tool.ID)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestToolStoreDeleteIfOrphaned_KeepsReferencedTool(t *testing.T) {
	r := NewRepos(openTestDB(t))
	ctx := context.Background()
	_, tool, _ := seedLine(t, r, "HD-1")

	removed, err := r.Tools.DeleteIfOrphaned(ctx, tool.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	got, err := r.Tools.GetByID(ctx, tool.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}
