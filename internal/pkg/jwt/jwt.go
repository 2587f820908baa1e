package jwt

import (
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-control/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the decoded content of an access token.
type Claims struct {
	UserID        int64
	Username      string
	Role          user.Role
	DepartmentIDs []int
}

type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	ParseClaims(values map[string]interface{}) (Claims, error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt int64)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
	revokedTokens             map[string]int64
	mu                        sync.RWMutex
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:             make(map[string]int64),
		now:                       time.Now,
	}
}

func (j *JWTService) GenerateAccessToken(c Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	deptIDs := c.DepartmentIDs
	if deptIDs == nil {
		deptIDs = []int{}
	}

	claims := map[string]interface{}{
		"user_id":  c.UserID,
		"username": c.Username,
		"role":     string(c.Role),
		"dept_ids": deptIDs,
		"type":     "access",
		"exp":      expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ParseClaims reads an access token claim map as produced by
// jwtauth.FromContext. JSON numbers arrive as float64.
func (j *JWTService) ParseClaims(values map[string]interface{}) (Claims, error) {
	var c Claims

	if t, _ := values["type"].(string); t != "access" {
		return c, fmt.Errorf("unexpected token type %q", t)
	}

	switch v := values["user_id"].(type) {
	case float64:
		c.UserID = int64(v)
	case int64:
		c.UserID = v
	case int:
		c.UserID = int64(v)
	default:
		return c, fmt.Errorf("missing user_id claim")
	}

	c.Username, _ = values["username"].(string)

	roleStr, _ := values["role"].(string)
	c.Role = user.ParseRole(roleStr)

	if ids, ok := values["dept_ids"].([]interface{}); ok {
		for _, id := range ids {
			if f, ok := id.(float64); ok {
				c.DepartmentIDs = append(c.DepartmentIDs, int(f))
			}
		}
	}

	return c, nil
}

// RevokeToken blacklists a token until its own expiry. Expired entries are
// pruned on every call.
func (j *JWTService) RevokeToken(token string, expiresAt int64) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now().Unix()
	for t, exp := range j.revokedTokens {
		if exp < now {
			delete(j.revokedTokens, t)
		}
	}
	j.revokedTokens[token] = expiresAt
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}
