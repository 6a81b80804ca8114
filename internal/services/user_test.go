package services

import (
	"context"
	"testing"

	"group-actions-backend/internal/apperr"

	"github.com/stretchr/testify/require"
)

func newUserService(store *memStore) *UserService {
	return NewUserService(store.userStore(), "test-secret", 30)
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	svc := newUserService(store)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Email:     "ada@example.com",
		Username:  "ada",
		Password:  "correct horse",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	require.NotZero(t, user.UserID)
	require.NotEqual(t, "correct horse", user.PasswordHash, "password must be stored hashed")

	got, err := svc.Login(ctx, "ada@example.com", "correct horse")
	require.NoError(t, err)
	require.Equal(t, user.UserID, got.UserID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	require.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	require.Equal(t, "invalid email or password", apperr.MessageOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "correct horse")
	require.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	require.Equal(t, "invalid email or password", apperr.MessageOf(err), "unknown email is indistinguishable from a bad password")
}

func TestRegisterValidation(t *testing.T) {
	store := newMemStore()
	svc := newUserService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "noemail", Password: "long enough"})
	require.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.c", Username: "short", Password: "seven77"})
	require.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemStore()
	svc := newUserService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Username: "first", Password: "password1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "dup@example.com", Username: "second", Password: "password1"})
	require.Equal(t, apperr.Conflict, apperr.KindOf(err))
}

func TestTokenRoundTrip(t *testing.T) {
	store := newMemStore()
	svc := newUserService(store)

	token, err := svc.IssueToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), userID)
}

func TestValidateTokenRejectsBadInput(t *testing.T) {
	store := newMemStore()
	svc := newUserService(store)

	_, err := svc.ValidateToken("not-a-token")
	require.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))

	// Signed with a different secret
	other := NewUserService(store.userStore(), "other-secret", 30)
	token, err := other.IssueToken(42)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	store := newMemStore()
	svc := NewUserService(store.userStore(), "test-secret", -1)

	token, err := svc.IssueToken(7)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.Equal(t, apperr.Unauthenticated, apperr.KindOf(err))
	require.Equal(t, "token has expired", apperr.MessageOf(err))
}
