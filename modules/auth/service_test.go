package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/oguarni/status-point/domain/apperr"
	domain "github.com/oguarni/status-point/domain/user"
	"github.com/oguarni/status-point/modules/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthService(t *testing.T) *AuthService {
	t.Helper()
	db, err := storage.Open(storage.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewAuthService(NewUserRepository(db), NewPasswordHasherWithCost(bcrypt.MinCost), NewJWTManager(testJWTConfig()))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice", " Alice@Example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCollaborator, u.Role, "self registration never grants a role")
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "password123", u.PasswordHash)

	tokens, err := svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", tokens.TokenType)

	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleCollaborator, claims.Role)

	refreshed, err := svc.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshTokens(ctx, tokens.AccessToken)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"missing name", "", "a@example.com", "password123"},
		{"bad email", "A", "not-an-email", "password123"},
		{"short password", "A", "a@example.com", "short"},
		{"long password", "A", "a@example.com", strings.Repeat("x", 73)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.password)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Alice", "ALICE@example.com", "password456")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestLoginFailures(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))

	_, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err), "unknown email looks like a bad password")
}

func TestCreateUserWithRole(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	in := NewUserInput{Name: "Maria", Email: "maria@example.com", Password: "password123", Role: domain.RoleManager}

	for _, actor := range []domain.Actor{
		{ID: "m1", Role: domain.RoleManager},
		{ID: "c1", Role: domain.RoleCollaborator},
		{},
	} {
		_, err := svc.CreateUser(ctx, actor, in)
		assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err), "actor role %q", actor.Role)
	}

	admin := domain.Actor{ID: "a1", Role: domain.RoleAdmin}
	u, err := svc.CreateUser(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, u.Role)

	_, err = svc.CreateUser(ctx, admin, NewUserInput{Name: "X", Email: "x@example.com", Password: "password123", Role: "root"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx, "Admin", "admin@example.com", "admin-password"))
	require.NoError(t, svc.SeedAdmin(ctx, "Admin", "admin@example.com", "admin-password"))

	tokens, err := svc.Login(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestGetUser(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	found, err := svc.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.Name)

	_, err = svc.GetUser(ctx, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasherWithCost(bcrypt.MinCost)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.True(t, h.Verify("password123", hash))
	assert.False(t, h.Verify("password124", hash))
	assert.False(t, h.Verify("password123", "not-a-hash"))

	assert.Equal(t, DefaultBcryptCost, NewPasswordHasher().cost)
}
