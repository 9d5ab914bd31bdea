package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/multirental/internal/db"
	"github.com/vbonduro/multirental/internal/domain"
	"github.com/vbonduro/multirental/internal/store"
)

type testEnv struct {
	db      *sql.DB
	store   *store.Store
	engine  *TransitionEngine
	agg     *AggregationService
	catalog *CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	s := store.New(d)
	env := &testEnv{
		db:      d,
		store:   s,
		engine:  NewTransitionEngine(s, slog.Default()),
		agg:     NewAggregationService(s, DefaultPageSize, slog.Default()),
		catalog: NewCatalogService(s, slog.Default()),
	}

	// Deterministic, strictly increasing timestamps.
	clock := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	env.engine.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return env
}

func (e *testEnv) branch(t *testing.T, name string) *domain.Branch {
	t.Helper()
	b, err := e.catalog.CreateBranch(context.Background(), name, name+" street 1")
	require.NoError(t, err)
	return b
}

func (e *testEnv) register(t *testing.T, branchID int64, name, brand string, codes ...string) *Registration {
	t.Helper()
	reg, err := e.catalog.RegisterTool(context.Background(), branchID, name, brand, codes)
	require.NoError(t, err)
	return reg
}

// setQuantity turns a registered unit into a count bucket of qty units.
func (e *testEnv) setQuantity(t *testing.T, lineID int64, qty int) {
	t.Helper()
	_, err := e.db.Exec("UPDATE stock_lines SET quantity_available = ? WHERE id = ?", qty, lineID)
	require.NoError(t, err)
}

func (e *testEnv) line(t *testing.T, id int64) *domain.StockLine {
	t.Helper()
	line, err := e.store.Repos().StockLines.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, line)
	return line
}

func (e *testEnv) history(t *testing.T, id int64) []*domain.Transaction {
	t.Helper()
	h, err := e.engine.History(context.Background(), id)
	require.NoError(t, err)
	return h
}
