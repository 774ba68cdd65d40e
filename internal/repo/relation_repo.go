// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the user→recipe toggles (favorites,
// shopping cart) and user→user subscriptions.
//
// Adds rely on the unique index of each pair and return ErrDuplicate when the
// pair already exists. Removes report whether a row was deleted so the service
// layer can reject removing something that was never added.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

func insertPair(ctx context.Context, db *gorm.DB, row any) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func deletePair(ctx context.Context, db *gorm.DB, model any, userID, recipeID uint) (bool, error) {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	return res.RowsAffected > 0, res.Error
}

func pairSet(ctx context.Context, db *gorm.DB, model any, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// AddFavorite marks recipeID as a favorite of userID.
func AddFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return insertPair(ctx, db, &domain.Favorite{UserID: userID, RecipeID: recipeID})
}

// RemoveFavorite deletes the favorite and reports whether it existed.
func RemoveFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) (bool, error) {
	return deletePair(ctx, db, &domain.Favorite{}, userID, recipeID)
}

// FavoritedSet returns which of recipeIDs userID has favorited.
func FavoritedSet(ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return pairSet(ctx, db, &domain.Favorite{}, userID, recipeIDs)
}

// AddToCart puts recipeID into userID's shopping cart.
func AddToCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return insertPair(ctx, db, &domain.ShoppingCartEntry{UserID: userID, RecipeID: recipeID})
}

// RemoveFromCart deletes the cart entry and reports whether it existed.
func RemoveFromCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) (bool, error) {
	return deletePair(ctx, db, &domain.ShoppingCartEntry{}, userID, recipeID)
}

// InCartSet returns which of recipeIDs are in userID's cart.
func InCartSet(ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	return pairSet(ctx, db, &domain.ShoppingCartEntry{}, userID, recipeIDs)
}

// Subscribe makes subscriberID follow authorID.
func Subscribe(ctx context.Context, db *gorm.DB, subscriberID, authorID uint) error {
	return insertPair(ctx, db, &domain.Subscription{SubscriberID: subscriberID, AuthorID: authorID})
}

// Unsubscribe removes the subscription and reports whether it existed.
func Unsubscribe(ctx context.Context, db *gorm.DB, subscriberID, authorID uint) (bool, error) {
	res := db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&domain.Subscription{})
	return res.RowsAffected > 0, res.Error
}

// SubscribedSet returns which of authorIDs subscriberID follows.
func SubscribedSet(ctx context.Context, db *gorm.DB, subscriberID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(authorIDs))
	if subscriberID == 0 || len(authorIDs) == 0 {
		return out, nil
	}
	var ids []uint
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("subscriber_id = ? AND author_id IN ?", subscriberID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CountSubscriptions returns how many authors subscriberID follows.
func CountSubscriptions(ctx context.Context, db *gorm.DB, subscriberID uint) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("subscriber_id = ?", subscriberID).
		Count(&total).Error
	return total, err
}

// ListSubscriptionsPage returns the authors subscriberID follows, ordered by
// username.
func ListSubscriptionsPage(ctx context.Context, db *gorm.DB, subscriberID uint, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Model(&domain.User{}).
		Joins("JOIN subscriptions s ON s.author_id = users.id").
		Where("s.subscriber_id = ?", subscriberID).
		Order("users.username asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
