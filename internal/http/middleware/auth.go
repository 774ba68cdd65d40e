// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements token authentication. Authenticate runs on every
// request: it reads "Authorization: Token <t>" (or "Bearer <t>"), resolves
// the caller and stores the identity in the Gin context. Requests without a
// header continue anonymously; a header carrying a bad or revoked token is
// rejected with 401 even on public routes. RequireAuth then guards the routes
// that need a caller.
//
// Context keys:
//   - "userID": decimal user id as a string (read by the logger and the
//     rate limiter)
//   - "uid":    the same id as uint (read by handlers via UserID)
//   - "claims": *auth.Claims of the presented token (read by logout)
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/auth"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyUID    = "uid"
	ctxKeyClaims = "claims"
)

// Authenticator resolves a raw token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, *auth.Claims, error)
}

// BearerToken extracts the token from an Authorization header value. Both
// the "Token" and "Bearer" schemes are accepted, case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, tok, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

// Authenticate resolves the caller from the Authorization header.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.Next()
			return
		}
		tok, ok := BearerToken(h)
		if !ok {
			unauthorized(c, "invalid authorization header")
			return
		}
		uid, claims, err := a.Authenticate(c.Request.Context(), tok)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				LoggerFrom(c).Error().Err(err).Msg("authenticate")
			}
			unauthorized(c, auth.ErrInvalidToken.Error())
			return
		}
		c.Set(ctxKeyUID, uid)
		c.Set(ctxKeyUserID, strconv.FormatUint(uint64(uid), 10))
		c.Set(ctxKeyClaims, claims)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Authenticate identified a caller.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			unauthorized(c, auth.ErrMissingToken.Error())
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxKeyUID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// ClaimsFrom returns the claims of the token used for this request.
func ClaimsFrom(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ctxKeyClaims)
	if !ok {
		return nil
	}
	cl, _ := v.(*auth.Claims)
	return cl
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Token")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
