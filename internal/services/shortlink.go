// Package services – ShortLinkService
//
// Short links are fixed-length random tokens assigned to a recipe when it is
// created. Resolution goes through a bounded in-process LRU in front of the
// database; tokens never change once assigned, so the only invalidation
// needed is on recipe deletion.
package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	lru "github.com/hashicorp/golang-lru"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

const shortLinkAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// shortLinkAttempts bounds collision retries at recipe creation.
const shortLinkAttempts = 10

// NewShortToken returns a random token of domain.ShortLinkLen characters
// drawn uniformly from [A-Za-z0-9].
func NewShortToken() (string, error) {
	b := make([]byte, domain.ShortLinkLen)
	max := big.NewInt(int64(len(shortLinkAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = shortLinkAlphabet[n.Int64()]
	}
	return string(b), nil
}

// validShortToken reports whether s could have been produced by NewShortToken.
func validShortToken(s string) bool {
	if len(s) != domain.ShortLinkLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

// ShortLinkService resolves short-link tokens to recipe ids.
type ShortLinkService struct {
	DB    *gorm.DB
	cache *lru.Cache
}

// NewShortLinkService creates a resolver with an LRU of size entries
// (caching is disabled when size <= 0).
func NewShortLinkService(db *gorm.DB, size int) (*ShortLinkService, error) {
	s := &ShortLinkService{DB: db}
	if size > 0 {
		c, err := lru.New(size)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Resolve maps token to a recipe id or ErrShortLinkNotFound.
func (s *ShortLinkService) Resolve(ctx context.Context, token string) (uint, error) {
	if !validShortToken(token) {
		return 0, ErrShortLinkNotFound
	}
	if s.cache != nil {
		if v, ok := s.cache.Get(token); ok {
			return v.(uint), nil
		}
	}
	id, err := repo.RecipeIDByShortLink(ctx, s.DB, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrShortLinkNotFound
		}
		return 0, err
	}
	if s.cache != nil {
		s.cache.Add(token, id)
	}
	return id, nil
}

// Forget drops token from the cache.
func (s *ShortLinkService) Forget(token string) {
	if s != nil && s.cache != nil {
		s.cache.Remove(token)
	}
}

// Cached reports how many tokens are currently cached.
func (s *ShortLinkService) Cached() int {
	if s == nil || s.cache == nil {
		return 0
	}
	return s.cache.Len()
}
