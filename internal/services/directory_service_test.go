package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/task-board-api/internal/auth"
	"github.com/yukikurage/task-board-api/internal/identity"
	"github.com/yukikurage/task-board-api/internal/repository"
	"github.com/yukikurage/task-board-api/internal/testutil"
)

func newDirectoryService(t *testing.T) *DirectoryService {
	t.Helper()
	log, _ := test.NewNullLogger()
	return NewDirectoryService(repository.NewUserRepository(testutil.OpenDB(t)), log)
}

func TestDirectoryService_RecordSignIn(t *testing.T) {
	svc := newDirectoryService(t)
	ctx := context.Background()

	user, err := svc.RecordSignIn(ctx, auth.Principal{Subject: "u2", Email: "bob@x.com", Name: "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "u2", user.Key)
	assert.False(t, user.Provisional)

	// an empty name keeps the stored one, a new email replaces the old
	user, err = svc.RecordSignIn(ctx, auth.Principal{Subject: "u2", Email: "robert@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Bob", user.DisplayName)

	found, err := svc.FindConfirmedByEmail(ctx, "robert@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", found.Key)

	_, err = svc.FindConfirmedByEmail(ctx, "bob@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.RecordSignIn(ctx, auth.Principal{Subject: "temp_bob_at_x_dot_com"})
	require.ErrorIs(t, err, identity.ErrInvalidKey)
}

func TestDirectoryService_EnsureProvisional(t *testing.T) {
	svc := newDirectoryService(t)
	ctx := context.Background()
	key := identity.MustParse("temp_bob_at_x_dot_com")

	created, err := svc.EnsureProvisional(ctx, key)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureProvisional(ctx, key)
	require.NoError(t, err)
	assert.False(t, created)

	user, err := svc.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", user.Email)
	assert.True(t, user.Provisional)

	// provisional records are never returned as confirmed users
	_, err = svc.FindConfirmedByEmail(ctx, "bob@x.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.EnsureProvisional(ctx, identity.MustParse("u1"))
	require.ErrorIs(t, err, identity.ErrInvalidKey)
}
