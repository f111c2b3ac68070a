package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/yatube/internal/model"
)

func TestFollowCreateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "reader")
	a := seedUser(t, db, "writer")

	require.NoError(t, repo.Create(ctx, u.ID, a.ID))
	require.NoError(t, repo.Create(ctx, u.ID, a.ID))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestFollowDeleteMissingEdgeIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "reader")
	a := seedUser(t, db, "writer")

	require.NoError(t, repo.Delete(ctx, u.ID, a.ID))

	var cnt int64
	require.NoError(t, db.Model(&model.Follow{}).Count(&cnt).Error)
	assert.Zero(t, cnt)
}

func TestFollowExistsAndAuthorIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()

	u := seedUser(t, db, "reader")
	a := seedUser(t, db, "writer")
	b := seedUser(t, db, "other")

	require.NoError(t, repo.Create(ctx, u.ID, a.ID))

	exists, err := repo.Exists(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, u.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	ids, err := repo.AuthorIDs(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	ids, err = repo.AuthorIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
