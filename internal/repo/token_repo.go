package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// RevokeToken records jti as logged out. Revoking twice is a no-op.
func RevokeToken(ctx context.Context, db *gorm.DB, jti string, userID uint, expiresAt time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.RevokedToken{JTI: jti, UserID: userID, ExpiresAt: expiresAt.UTC()}).Error
}

// IsTokenRevoked reports whether jti has been logged out.
func IsTokenRevoked(ctx context.Context, db *gorm.DB, jti string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.RevokedToken{}).
		Where("jti = ?", jti).
		Count(&n).Error
	return n > 0, err
}

// PurgeRevokedTokens drops revocations for tokens that have expired anyway.
func PurgeRevokedTokens(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.RevokedToken{})
	return res.RowsAffected, res.Error
}
