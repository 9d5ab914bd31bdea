package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/multirental/internal/db"
	"github.com/vbonduro/multirental/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// seedLine creates a branch, a tool and one stock line with the given code.
func seedLine(t *testing.T, r *Repos, code string) (*domain.Branch, *domain.Tool, *domain.StockLine) {
	t.Helper()
	ctx := context.Background()

	branch, err := r.Branches.Create(ctx, "Central", "Main St 1")
	require.NoError(t, err)
	tool, err := r.Tools.Create(ctx, "HAMMER DRILL", "BOSCH")
	require.NoError(t, err)
	line, err := r.StockLines.Create(ctx, branch.ID, tool.ID, code)
	require.NoError(t, err)
	return branch, tool, line
}

func TestInTxCommits(t *testing.T) {
	s := New(openTestDB(t))
	ctx := context.Background()

	var created *domain.Branch
	err := s.InTx(ctx, func(r *Repos) error {
		var err error
		created, err = r.Branches.Create(ctx, "North", "Av. Norte 10")
		return err
	})
	require.NoError(t, err)

	got, err := s.Repos().Branches.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "North", got.Name)
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New(openTestDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(r *Repos) error {
		if _, err := r.Branches.Create(ctx, "North", "Av. Norte 10"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	branches, err := s.Repos().Branches.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	s := New(openTestDB(t))
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = s.InTx(ctx, func(r *Repos) error {
			_, _ = r.Branches.Create(ctx, "North", "Av. Norte 10")
			panic("unexpected")
		})
	})

	branches, err := s.Repos().Branches.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestClassifyKeepsDomainErrors(t *testing.T) {
	err := domain.NotFound("stock line", 4)
	assert.Same(t, err, Classify(err))
	assert.Nil(t, Classify(nil))

	plain := errors.New("plain")
	assert.Same(t, plain, Classify(plain))
}

func TestClassifyUniqueViolation(t *testing.T) {
	d := openTestDB(t)
	r := NewRepos(d)
	ctx := context.Background()

	branch, tool, _ := seedLine(t, r, "HD-1")
	_, err := r.StockLines.Create(ctx, branch.ID, tool.ID, "HD-1")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.Nil(t, domain.KindOf(Classify(err)))
}

func TestClassifyCheckViolationIsIntegrity(t *testing.T) {
	d := openTestDB(t)
	r := NewRepos(d)
	ctx := context.Background()

	_, _, line := seedLine(t, r, "HD-1")
	_, err := r.StockLines.UpdateState(ctx, line.ID, domain.StateReserved, -1)
	require.Error(t, err)
	assert.ErrorIs(t, Classify(err), domain.ErrIntegrityViolation)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\`, escapeLike(`50% off_now \`))
	assert.Equal(t, `%abc%`, likePattern("ABC"))
}
