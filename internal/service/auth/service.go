package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/attendance-control/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/cmlabs-hris/attendance-control/internal/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	user.UserRepository
	jwt.Service
}

func NewAuthService(userRepository user.UserRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		UserRepository: userRepository,
		Service:        jwtService,
	}
}

// HashPassword returns the bcrypt hash stored in auth_users.password_hash.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, loginReq auth.LoginRequest) (auth.TokenResponse, error) {
	if err := loginReq.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	userData, err := a.UserRepository.GetByUsername(ctx, strings.TrimSpace(loginReq.Username))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(loginReq.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}
	if !userData.IsActive {
		return auth.TokenResponse{}, auth.ErrAccountInactive
	}

	deptIDs := []int{}
	if !userData.IsAdmin() {
		deptIDs, err = a.UserRepository.GetDepartmentIDs(ctx, userData.ID)
		if err != nil {
			return auth.TokenResponse{}, fmt.Errorf("failed to get department grants: %w", err)
		}
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(jwt.Claims{
		UserID:        userData.ID,
		Username:      userData.Username,
		Role:          userData.Role,
		DepartmentIDs: deptIDs,
	})
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	slog.Info("operator logged in", "username", userData.Username, "role", userData.Role)

	return auth.TokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: expiresAt,
		TokenType:            "Bearer",
		Username:             userData.Username,
		Role:                 string(userData.Role),
		DepartmentIDs:        deptIDs,
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return auth.ErrInvalidToken
	}

	token, err := a.Service.JWTAuth().Decode(accessToken)
	if err != nil {
		return auth.ErrInvalidToken
	}

	a.Service.RevokeToken(accessToken, token.Expiration().Unix())
	return nil
}
