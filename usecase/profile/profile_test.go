package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
)

func TestProfileReadAndUpdate(t *testing.T) {
	users := memory.NewUserRepository()
	ctx := context.Background()
	user := &domain.User{Email: "alice@example.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, user))

	uc := New(users, nil)

	got, err := uc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	updated, err := uc.UpdateNames(ctx, user.ID, "Alice", "Liddell")
	require.NoError(t, err)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, "Liddell", updated.LastName)
	assert.Equal(t, "alice@example.com", updated.Email)
	assert.Equal(t, "hash", updated.PasswordHash)

	_, err = uc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = uc.UpdateNames(ctx, 999, "x", "y")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
