package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

// AuthService issues and revokes session tokens.
type AuthService struct {
	DB     *gorm.DB
	Tokens *auth.TokenManager
}

// Login exchanges email and password for a signed token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, error) {
	if err := asValidation(in.Validate()); err != nil {
		return "", err
	}
	u, err := repo.GetUserByEmail(ctx, s.DB, in.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Burn comparable time so unknown emails are not cheaper.
			_ = auth.CheckPassword(dummyHash(), in.Password)
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
		return "", ErrInvalidCredentials
	}
	token, _, err := s.Tokens.Generate(u.ID)
	return token, err
}

// Authenticate validates token and returns the user id and claims. Revoked
// tokens and tokens of deleted users are rejected with auth.ErrInvalidToken.
func (s *AuthService) Authenticate(ctx context.Context, token string) (uint, *auth.Claims, error) {
	claims, err := s.Tokens.Validate(token)
	if err != nil {
		return 0, nil, err
	}
	uid, err := claims.UserID()
	if err != nil {
		return 0, nil, err
	}
	revoked, err := repo.IsTokenRevoked(ctx, s.DB, claims.ID)
	if err != nil {
		return 0, nil, err
	}
	if revoked {
		return 0, nil, auth.ErrInvalidToken
	}
	if _, err := repo.GetUser(ctx, s.DB, uid); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, nil, auth.ErrInvalidToken
		}
		return 0, nil, err
	}
	return uid, claims, nil
}

// Logout revokes the token identified by claims.
func (s *AuthService) Logout(ctx context.Context, userID uint, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return auth.ErrInvalidToken
	}
	exp := time.Now().UTC()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return repo.RevokeToken(ctx, s.DB, claims.ID, userID, exp)
}

var dummyHash = sync.OnceValue(func() string {
	h, _ := auth.HashPassword("not-a-real-password")
	return h
})
