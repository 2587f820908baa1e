package auth

import "context"

type AuthService interface {
	// Login checks operator credentials and issues an access token
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)

	// Logout revokes the presented access token
	Logout(ctx context.Context, accessToken string) error
}
