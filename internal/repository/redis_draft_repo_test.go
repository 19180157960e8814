package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/formcraft/internal/models"
)

func TestRedisDraftRepo(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	repo := NewRedisDraftRepo(client, time.Hour)
	id := models.DraftID("f1", "u1")

	_, ok, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	saved := models.NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, repo.Set(ctx, models.Draft{
		ID: id, FormID: "f1", UserID: "u1",
		Data:     map[string]any{"name": "Ada"},
		Metadata: models.DraftMetadata{SavedAt: saved},
	}))
	assert.True(t, mr.Exists("formcraft:draft:f1_u1"))
	assert.Equal(t, time.Hour, mr.TTL("formcraft:draft:f1_u1"))

	d, ok, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada", d.Data["name"])
	assert.True(t, d.Metadata.SavedAt.Equal(saved))

	mr.FastForward(2 * time.Hour)
	_, ok, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisDraftRepo_Delete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	repo := NewRedisDraftRepo(client, time.Hour)
	require.NoError(t, repo.Set(ctx, models.Draft{ID: "f1_anonymous", FormID: "f1"}))
	require.NoError(t, repo.Delete(ctx, "f1_anonymous"))
	require.NoError(t, repo.Delete(ctx, "f1_anonymous"))
	assert.False(t, mr.Exists("formcraft:draft:f1_anonymous"))
}
