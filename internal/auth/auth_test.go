package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mjacome/quill/internal/auth"
	"github.com/mjacome/quill/internal/database"
	"github.com/mjacome/quill/internal/models"
)

func newTestService(t *testing.T, cfg *auth.Config) (*auth.Service, *database.MemStore) {
	t.Helper()
	store := database.NewMemStore()
	if cfg == nil {
		cfg = &auth.Config{Secret: "test-secret"}
	}
	return auth.NewService(store.Users(), cfg), store
}

func seedAdmin(t *testing.T, store *database.MemStore, username, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	_, err = store.Users().Add(context.Background(), &models.UserDTO{
		Username: username,
		Password: hash,
		Email:    "admin@example.com",
		Type:     models.RoleAdmin,
	})
	require.NoError(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)
	require.Greater(t, id, int64(0))

	token, err := svc.Login(ctx, "alice", "secret1", false)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, id, claims.Id)
	require.Equal(t, "alice", claims.Username)
	require.Equal(t, models.RoleUser, claims.Type)
	require.False(t, claims.Type.IsAdmin())
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "wrong", false)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _ := newTestService(t, nil)

	// unknown username and wrong password fail identically
	_, err := svc.Login(context.Background(), "nobody", "whatever", false)
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAdminLoginRequiresAdminRole(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, "alice", "secret1", true)
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}
}

func TestAdminLoginIssuesAdminToken(t *testing.T) {
	svc, store := newTestService(t, nil)
	seedAdmin(t, store, "root", "hunter22")

	token, err := svc.Login(context.Background(), "root", "hunter22", true)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, claims.Type)
	require.True(t, claims.Type.IsAdmin())
}

func TestAdminTokenShorterExpiry(t *testing.T) {
	svc, store := newTestService(t, nil)
	seedAdmin(t, store, "root", "hunter22")
	ctx := context.Background()

	adminToken, err := svc.Login(ctx, "root", "hunter22", true)
	require.NoError(t, err)
	userToken, err := svc.Login(ctx, "root", "hunter22", false)
	require.NoError(t, err)

	adminClaims, err := svc.Verify(adminToken)
	require.NoError(t, err)
	userClaims, err := svc.Verify(userToken)
	require.NoError(t, err)
	require.True(t, adminClaims.ExpiresAt.Before(userClaims.ExpiresAt.Time))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "alice", "secret1", false)
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	svc, _ := newTestService(t, nil)
	other, _ := newTestService(t, &auth.Config{Secret: "other-secret"})
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "alice", "secret1", false)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc, _ := newTestService(t, &auth.Config{Secret: "test-secret", UserTTL: -time.Hour, AdminTTL: -time.Hour})
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "alice", "secret1", false)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret1", "a@x.com")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "secret2", "b@x.com")
	require.Error(t, err)
}
