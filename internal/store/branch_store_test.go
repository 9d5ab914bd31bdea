package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBranchStoreCreate(t *testing.T) {
	branches := NewBranchStore(openTestDB(t))
	ctx := context.Background()

	branch, err := branches.Create(ctx, "Central", "Main St 1")
	require.NoError(t, err)
	assert.NotZero(t, branch.ID)
	assert.Equal(t, "Central", branch.Name)
	assert.Equal(t, "Main St 1", branch.Location)
	assert.False(t, branch.CreatedAt.IsZero())
}

func TestBranchStoreGetByID_Missing(t *testing.T) {
	branches := NewBranchStore(openTestDB(t))

	branch, err := branches.GetByID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, branch)
}

func TestBranchStoreList(t *testing.T) {
	branches := NewBranchStore(openTestDB(t))
	ctx := context.Background()

	_, err := branches.Create(ctx, "South", "Av. Sur 2")
	require.NoError(t, err)
	_, err = branches.Create(ctx, "Central", "Main St 1")
	require.NoError(t, err)

	list, err := branches.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Central", list[0].Name)
	assert.Equal(t, "South", list[1].Name)
}

func TestBranchStoreUpdate(t *testing.T) {
	branches := NewBranchStore(openTestDB(t))
	ctx := context.Background()

	branch, err := branches.Create(ctx, "Central", "Main St 1")
	require.NoError(t, err)

	ok, err := branches.UpdateName(ctx, branch.ID, "Downtown")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = branches.UpdateLocation(ctx, branch.ID, "Main St 99")
	require.NoError(t, err)
	assert.True(t, ok)

	updated, err := branches.GetByID(ctx, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Downtown", updated.Name)
	assert.Equal(t, "Main St 99", updated.Location)

	ok, err = branches.UpdateName(ctx, 999, "Ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBranchStoreDelete(t *testing.T) {
	branches := NewBranchStore(openTestDB(t))
	ctx := context.Background()

	branch, err := branches.Create(ctx, "Temp", "Nowhere")
	require.NoError(t, err)

	ok, err := branches.Delete(ctx, branch.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = branches.Delete(ctx, branch.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
