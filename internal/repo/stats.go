// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) on the catalog endpoints.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// TagsStats returns the number of tags and the greatest tag id. Tags are
// only ever added by the seeder, so the pair changes whenever the list does.
func TagsStats(ctx context.Context, db *gorm.DB) (count int64, maxID uint, err error) {
	return catalogStats(ctx, db, &domain.Tag{})
}

// IngredientsStats returns the number of ingredients and the greatest id.
func IngredientsStats(ctx context.Context, db *gorm.DB) (count int64, maxID uint, err error) {
	return catalogStats(ctx, db, &domain.Ingredient{})
}

func catalogStats(ctx context.Context, db *gorm.DB, model any) (count int64, maxID uint, err error) {
	q := db.WithContext(ctx).Model(model)

	if err = q.Count(&count).Error; err != nil {
		return 0, 0, err
	}
	if count == 0 {
		return 0, 0, nil
	}

	var row struct{ ID uint }
	if err = db.WithContext(ctx).Model(model).Select("id").Order("id DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, 0, err
	}
	return count, row.ID, nil
}
