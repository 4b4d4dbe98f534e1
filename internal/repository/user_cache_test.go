package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-board-api/internal/models"
	"github.com/yukikurage/task-board-api/internal/testutil"
	"gorm.io/gorm"
)

func setupCachedUsers(t *testing.T) (*CachedUserRepository, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	db := testutil.OpenDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
	})

	logger, _ := test.NewNullLogger()
	return NewCachedUserRepository(NewUserRepository(db), client, time.Minute, logger), db, mr
}

func TestCachedUserRepository_ServesHitsFromRedis(t *testing.T) {
	repo, db, mr := setupCachedUsers(t)
	ctx := context.Background()

	testutil.CreateUser(t, db, "u2", "bob@x.com", false)

	user, err := repo.FindByKey(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", user.Email)
	assert.True(t, mr.Exists(userKeyPrefix+"u2"))

	// change the row behind the cache's back; the cached copy is served
	require.NoError(t, db.Model(&models.User{}).Where("member_key = ?", "u2").Update("email", "changed@x.com").Error)

	user, err = repo.FindByKey(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", user.Email)

	user, err = repo.FindConfirmedByEmail(ctx, "changed@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.Key)
	assert.True(t, mr.Exists(userEmailPrefix+"changed@x.com"))
}

func TestCachedUserRepository_MissesAreNotCached(t *testing.T) {
	repo, _, mr := setupCachedUsers(t)

	_, err := repo.FindByKey(context.Background(), "ghost")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.False(t, mr.Exists(userKeyPrefix+"ghost"))
}

func TestCachedUserRepository_WritesEvict(t *testing.T) {
	repo, _, mr := setupCachedUsers(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.User{Key: "u2", Email: "bob@x.com"}))
	_, err := repo.FindByKey(ctx, "u2")
	require.NoError(t, err)
	_, err = repo.FindConfirmedByEmail(ctx, "bob@x.com")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, &models.User{Key: "u2", Email: "robert@x.com"}))
	assert.False(t, mr.Exists(userKeyPrefix+"u2"))
	assert.False(t, mr.Exists(userEmailPrefix+"bob@x.com"))

	user, err := repo.FindByKey(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "robert@x.com", user.Email)
}

func TestCachedUserRepository_FallsBackWhenRedisIsDown(t *testing.T) {
	repo, db, mr := setupCachedUsers(t)
	testutil.CreateUser(t, db, "u1", "alice@x.com", false)

	mr.Close()

	user, err := repo.FindByKey(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", user.Email)
}
