// Package services – RelationService
//
// This file implements the per-user toggles: favorites, the shopping cart
// and subscriptions. Adds rely on the unique index of each pair, so two
// concurrent adds of the same pair cannot both succeed. Removing a pair
// that does not exist is reported as an error rather than ignored.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/media"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// RelationService implements favorites, shopping cart and subscriptions.
type RelationService struct {
	DB    *gorm.DB
	Media media.Store

	PageSize    int
	MaxPageSize int
}

// NewRelationService constructs a RelationService with default page sizes.
func NewRelationService(db *gorm.DB, store media.Store) *RelationService {
	return &RelationService{DB: db, Media: store, PageSize: 10, MaxPageSize: 100}
}

func (s *RelationService) view() projector { return projector{db: s.DB, media: s.Media} }

// toggle describes one user→recipe relation.
type toggle struct {
	add       func(ctx context.Context, db *gorm.DB, userID, recipeID uint) error
	remove    func(ctx context.Context, db *gorm.DB, userID, recipeID uint) (bool, error)
	duplicate error
	absent    error
}

var (
	favorites = toggle{repo.AddFavorite, repo.RemoveFavorite, ErrAlreadyFavorited, ErrNotFavorited}
	cart      = toggle{repo.AddToCart, repo.RemoveFromCart, ErrAlreadyInCart, ErrNotInCart}
)

func (s *RelationService) add(ctx context.Context, t toggle, userID, recipeID uint) (*RecipeShort, error) {
	r, err := repo.GetRecipeRow(ctx, s.DB, recipeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if err := t.add(ctx, s.DB, userID, recipeID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, t.duplicate
		}
		return nil, err
	}
	short := s.view().short(*r)
	return &short, nil
}

func (s *RelationService) remove(ctx context.Context, t toggle, userID, recipeID uint) error {
	if _, err := repo.GetRecipeRow(ctx, s.DB, recipeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	removed, err := t.remove(ctx, s.DB, userID, recipeID)
	if err != nil {
		return err
	}
	if !removed {
		return t.absent
	}
	return nil
}

// AddFavorite marks recipeID as a favorite of userID.
func (s *RelationService) AddFavorite(ctx context.Context, userID, recipeID uint) (*RecipeShort, error) {
	return s.add(ctx, favorites, userID, recipeID)
}

// RemoveFavorite removes recipeID from userID's favorites.
func (s *RelationService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favorites, userID, recipeID)
}

// AddToCart puts recipeID into userID's shopping cart.
func (s *RelationService) AddToCart(ctx context.Context, userID, recipeID uint) (*RecipeShort, error) {
	return s.add(ctx, cart, userID, recipeID)
}

// RemoveFromCart takes recipeID out of userID's shopping cart.
func (s *RelationService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cart, userID, recipeID)
}

// Subscribe makes userID follow authorID and returns the subscription view
// with up to recipesLimit recipes (all when negative).
func (s *RelationService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*SubscriptionView, error) {
	author, err := repo.GetUser(ctx, s.DB, authorID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if userID == authorID {
		return nil, ErrSelfSubscription
	}
	if err := repo.Subscribe(ctx, s.DB, userID, authorID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}
	views, err := s.view().subscriptions(ctx, []domain.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe stops userID following authorID.
func (s *RelationService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := repo.GetUser(ctx, s.DB, authorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	removed, err := repo.Unsubscribe(ctx, s.DB, userID, authorID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotSubscribed
	}
	return nil
}

// Subscriptions lists the authors userID follows, ordered by username.
func (s *RelationService) Subscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]SubscriptionView, int64, error) {
	_, pageSize, offset := utils.Offset(page, pageSize, s.PageSize, s.MaxPageSize)

	total, err := repo.CountSubscriptions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []SubscriptionView{}, 0, nil
	}
	authors, err := repo.ListSubscriptionsPage(ctx, s.DB, userID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.view().subscriptions(ctx, authors, recipesLimit)
	return views, total, err
}
