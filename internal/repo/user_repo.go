// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (gorm.ErrRecordNotFound).
//   - Unique violations on email/username surface as ErrDuplicate.
package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// CreateUser inserts u and fills its ID. Email is stored lower-cased.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by primary key.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailOrUsernameTaken reports which of the two unique user fields are in use.
func EmailOrUsernameTaken(ctx context.Context, db *gorm.DB, email, username string) (emailTaken, usernameTaken bool, err error) {
	var rows []domain.User
	err = db.WithContext(ctx).
		Select("email", "username").
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(email)), username).
		Find(&rows).Error
	for _, r := range rows {
		if strings.EqualFold(r.Email, email) {
			emailTaken = true
		}
		if r.Username == username {
			usernameTaken = true
		}
	}
	return emailTaken, usernameTaken, err
}

// CountUsers returns the total number of users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error
	return total, err
}

// ListUsersPage returns a page of users ordered by username.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("username asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdatePasswordHash replaces the stored bcrypt hash.
func UpdatePasswordHash(ctx context.Context, db *gorm.DB, id uint, hash string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAvatar stores the avatar media key; nil clears it.
func SetAvatar(ctx context.Context, db *gorm.DB, id uint, key *string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("avatar", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
