package auth

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cmlabs-hris/attendance-control/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/database/migrations"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-control/internal/repository/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessExp = "1h"
	testSecret    = "test-secret-key-for-jwt"
)

func newTestAuthService(t *testing.T) (auth.AuthService, user.UserRepository, jwt.Service) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.MigrateUp(db.DB))

	userRepo := sqlite.NewUserRepository(db)
	jwtService := jwt.NewJWTService(testSecret, testAccessExp)
	return NewAuthService(userRepo, jwtService), userRepo, jwtService
}

func createTestUser(t *testing.T, repo user.UserRepository, username string, role user.Role, active bool, depts ...int) {
	t.Helper()
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	_, err = repo.Create(context.Background(), user.AuthUser{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     active,
	}, depts)
	require.NoError(t, err)
}

// Test Login with valid credentials
func TestAuthService_Login_Success(t *testing.T) {
	ctx := context.Background()
	authService, userRepo, jwtService := newTestAuthService(t)
	createTestUser(t, userRepo, "lucia", user.RoleUser, true, 4, 3)

	response, err := authService.Login(ctx, auth.LoginRequest{Username: "lucia", Password: "password123"})

	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.Greater(t, response.AccessTokenExpiresIn, int64(0))
	assert.Equal(t, "Bearer", response.TokenType)
	assert.Equal(t, "user", response.Role)
	assert.Equal(t, []int{3, 4}, response.DepartmentIDs)

	token, err := jwtService.JWTAuth().Decode(response.AccessToken)
	require.NoError(t, err)
	claims, err := jwtService.ParseClaims(token.PrivateClaims())
	require.NoError(t, err)
	assert.Equal(t, "lucia", claims.Username)
	assert.Equal(t, []int{3, 4}, claims.DepartmentIDs)
}

// Test Login of an admin, whose grants are not needed
func TestAuthService_Login_Admin(t *testing.T) {
	authService, userRepo, _ := newTestAuthService(t)
	createTestUser(t, userRepo, "root", user.RoleAdmin, true, 3)

	response, err := authService.Login(context.Background(), auth.LoginRequest{Username: "root", Password: "password123"})

	require.NoError(t, err)
	assert.Equal(t, "admin", response.Role)
	assert.Empty(t, response.DepartmentIDs)
}

// Test Login with invalid password
func TestAuthService_Login_InvalidPassword(t *testing.T) {
	authService, userRepo, _ := newTestAuthService(t)
	createTestUser(t, userRepo, "lucia", user.RoleUser, true)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Username: "lucia", Password: "wrongpassword"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// Test Login with non-existent user
func TestAuthService_Login_UserNotFound(t *testing.T) {
	authService, _, _ := newTestAuthService(t)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Username: "ghost", Password: "password123"})

	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

// Test Login with a disabled account
func TestAuthService_Login_Inactive(t *testing.T) {
	authService, userRepo, _ := newTestAuthService(t)
	createTestUser(t, userRepo, "former", user.RoleUser, false)

	_, err := authService.Login(context.Background(), auth.LoginRequest{Username: "former", Password: "password123"})

	assert.ErrorIs(t, err, auth.ErrAccountInactive)
}

// Test Login validation
func TestAuthService_Login_Validation(t *testing.T) {
	authService, _, _ := newTestAuthService(t)

	_, err := authService.Login(context.Background(), auth.LoginRequest{})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

// Test Logout revokes the token
func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	authService, userRepo, jwtService := newTestAuthService(t)
	createTestUser(t, userRepo, "lucia", user.RoleUser, true, 3)

	response, err := authService.Login(ctx, auth.LoginRequest{Username: "lucia", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, response.AccessToken))
	assert.True(t, jwtService.IsTokenRevoked(response.AccessToken))

	assert.ErrorIs(t, authService.Logout(ctx, "not-a-token"), auth.ErrInvalidToken)
	assert.ErrorIs(t, authService.Logout(ctx, ""), auth.ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	hash, err := HashPassword("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)
}
