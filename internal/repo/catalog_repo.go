// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides read and seed functions for the tag and
// ingredient catalogs.
package repo

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// lower lowercases s for comparisons against LOWER(column). Only use it for
// ASCII columns such as slugs.
func lower(s string) string { return cases.Lower(language.Und).String(s) }

// ListTags returns every tag ordered by slug.
func ListTags(ctx context.Context, db *gorm.DB) ([]domain.Tag, error) {
	var out []domain.Tag
	err := db.WithContext(ctx).Order("slug asc").Find(&out).Error
	return out, err
}

// GetTag fetches a tag by id.
func GetTag(ctx context.Context, db *gorm.DB, id uint) (*domain.Tag, error) {
	var t domain.Tag
	if err := db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// TagsByIDs returns the tags whose ids are in ids. Unknown ids are skipped,
// so callers compare lengths to detect them.
func TagsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Tag, error) {
	var out []domain.Tag
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Order("slug asc").Find(&out).Error
	return out, err
}

// EnsureTag creates the tag when its slug is unknown. An existing slug is
// left untouched, so TagsStats changes whenever the tag list does. It
// reports whether a row was created.
func EnsureTag(ctx context.Context, db *gorm.DB, name, slug string) (bool, error) {
	var t domain.Tag
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&t).Error
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}
	t = domain.Tag{Name: name, Slug: slug}
	if err := db.WithContext(ctx).Create(&t).Error; err != nil {
		if IsDuplicate(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListIngredients returns ingredients whose name starts with prefix, ordered
// by name. Matching uses the stored Unicode case fold, so "мук" finds
// "Мука" on every driver. An empty prefix lists everything.
func ListIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	q := db.WithContext(ctx).Order("name asc")
	if p := strings.TrimSpace(prefix); p != "" {
		q = q.Where(`search_name LIKE ? ESCAPE '\'`, likePrefix(domain.FoldName(p)))
	}
	err := q.Find(&out).Error
	return out, err
}

// GetIngredient fetches an ingredient by id.
func GetIngredient(ctx context.Context, db *gorm.DB, id uint) (*domain.Ingredient, error) {
	var i domain.Ingredient
	if err := db.WithContext(ctx).First(&i, id).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

// IngredientsByIDs returns the ingredients whose ids are in ids.
func IngredientsByIDs(ctx context.Context, db *gorm.DB, ids []uint) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	if len(ids) == 0 {
		return out, nil
	}
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// GetOrCreateIngredient returns the (name, unit) ingredient, inserting it when
// missing. created reports whether this call inserted the row.
func GetOrCreateIngredient(ctx context.Context, db *gorm.DB, name, unit string) (ing *domain.Ingredient, created bool, err error) {
	var row domain.Ingredient
	err = db.WithContext(ctx).Where("name = ? AND measurement_unit = ?", name, unit).First(&row).Error
	if err == nil {
		return &row, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}
	row = domain.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		if IsDuplicate(err) {
			// lost a race with a concurrent insert
			err := db.WithContext(ctx).Where("name = ? AND measurement_unit = ?", name, unit).First(&row).Error
			return &row, false, err
		}
		return nil, false, err
	}
	return &row, true, nil
}

// AllIngredients returns the full catalog, used to build the search index.
func AllIngredients(ctx context.Context, db *gorm.DB) ([]domain.Ingredient, error) {
	var out []domain.Ingredient
	err := db.WithContext(ctx).Order("id asc").Find(&out).Error
	return out, err
}
