package library

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterStoresHash(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	id, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)
	assert.Positive(t, id)

	u, err := mgr.db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("p1")))
}

func TestRegisterSaltsEachHash(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "alice", "same", "same")
	require.NoError(t, err)
	_, err = mgr.Register(ctx, "bob", "same", "same")
	require.NoError(t, err)

	a, err := mgr.db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	b, err := mgr.db.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)
	before, err := mgr.db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)

	_, err = mgr.Register(ctx, "alice", "p2", "p2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	after, err := mgr.db.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	_, err = mgr.Login(ctx, "alice", "p1")
	assert.NoError(t, err)
}

func TestRegisterUsernameCheckedBeforeMismatch(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)

	_, err = mgr.Register(ctx, "alice", "x", "y")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "carol", "secret", "secreT")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = mgr.db.GetUserByUsername(ctx, "carol")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	id, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)

	u, err := mgr.Login(ctx, "alice", "p1")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)

	u1, wrongPassword := mgr.Login(ctx, "alice", "nope")
	u2, unknownUser := mgr.Login(ctx, "mallory", "p1")

	assert.Nil(t, u1)
	assert.Nil(t, u2)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestLoginUsernameIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.Register(ctx, "alice", "p1", "p1")
	require.NoError(t, err)

	_, err = mgr.Login(ctx, "Alice", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
