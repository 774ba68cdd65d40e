// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Recipe
// aggregate: the recipe row, its tag links and its ingredient amounts.
//
// Error semantics:
//   - Missing recipes surface as ErrNotFound.
//   - A short-link collision on insert surfaces as ErrDuplicate so the
//     caller can retry with a fresh token.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/foodgram-backend/internal/domain"
)

// RecipeFilter narrows recipe listings. Zero values mean "no constraint".
//
// Favorited and InCart are evaluated against ViewerID; for an anonymous
// viewer (ViewerID == 0) a true value matches nothing and a false value
// matches everything.
type RecipeFilter struct {
	AuthorID  uint
	TagSlugs  []string
	ViewerID  uint
	Favorited *bool
	InCart    *bool
}

func applyRecipeFilter(q *gorm.DB, f RecipeFilter) *gorm.DB {
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		slugs := make([]string, 0, len(f.TagSlugs))
		for _, s := range f.TagSlugs {
			slugs = append(slugs, lower(s))
		}
		q = q.Where(`recipes.id IN (SELECT rt.recipe_id FROM recipe_tags rt
			JOIN tags t ON t.id = rt.tag_id WHERE LOWER(t.slug) IN ?)`, slugs)
	}
	q = membership(q, "favorites", f.ViewerID, f.Favorited)
	q = membership(q, "shopping_cart", f.ViewerID, f.InCart)
	return q
}

func membership(q *gorm.DB, table string, viewer uint, want *bool) *gorm.DB {
	if want == nil {
		return q
	}
	if viewer == 0 {
		if *want {
			return q.Where("1 = 0")
		}
		return q
	}
	sub := "SELECT recipe_id FROM " + table + " WHERE user_id = ?"
	if *want {
		return q.Where("recipes.id IN ("+sub+")", viewer)
	}
	return q.Where("recipes.id NOT IN ("+sub+")", viewer)
}

func withRecipeAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.slug asc") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id asc") }).
		Preload("Ingredients.Ingredient")
}

// CountRecipes returns how many recipes match f.
func CountRecipes(ctx context.Context, db *gorm.DB, f RecipeFilter) (int64, error) {
	var total int64
	err := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f).Count(&total).Error
	return total, err
}

// ListRecipesPage returns a page of recipes matching f, newest first, with
// author, tags and ingredients loaded.
func ListRecipesPage(ctx context.Context, db *gorm.DB, f RecipeFilter, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := applyRecipeFilter(db.WithContext(ctx).Model(&domain.Recipe{}), f)
	err := withRecipeAssociations(q).
		Order("recipes.created_at desc").
		Order("recipes.id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetRecipe fetches a recipe with its associations.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := withRecipeAssociations(db.WithContext(ctx)).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipeRow fetches only the recipe row (no associations).
func GetRecipeRow(ctx context.Context, db *gorm.DB, id uint) (*domain.Recipe, error) {
	var r domain.Recipe
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecipe inserts the recipe row only; links are written with
// ReplaceRecipeTags and ReplaceRecipeIngredients.
func CreateRecipe(ctx context.Context, db *gorm.DB, r *domain.Recipe) error {
	if err := db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UpdateRecipeFields updates scalar columns of a recipe.
func UpdateRecipeFields(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceRecipeTags sets the recipe's tags to exactly tags.
func ReplaceRecipeTags(ctx context.Context, db *gorm.DB, recipeID uint, tags []domain.Tag) error {
	r := &domain.Recipe{ID: recipeID}
	return db.WithContext(ctx).Model(r).Association("Tags").Replace(tags)
}

// ReplaceRecipeIngredients sets the recipe's ingredient amounts to exactly
// items. RecipeID of each item is overwritten.
func ReplaceRecipeIngredients(ctx context.Context, db *gorm.DB, recipeID uint, items []domain.RecipeIngredient) error {
	tx := db.WithContext(ctx)
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&domain.RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]domain.RecipeIngredient, len(items))
	for i, it := range items {
		rows[i] = domain.RecipeIngredient{RecipeID: recipeID, IngredientID: it.IngredientID, Amount: it.Amount}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

// DeleteRecipe removes a recipe; links cascade.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Recipe{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecipeIDByShortLink resolves a short-link token.
func RecipeIDByShortLink(ctx context.Context, db *gorm.DB, token string) (uint, error) {
	var row struct{ ID uint }
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("id").
		Where("short_link = ?", token).
		Take(&row).Error
	return row.ID, err
}

// RecipesByAuthor returns an author's recipes, newest first. limit < 0 means
// no limit.
func RecipesByAuthor(ctx context.Context, db *gorm.DB, authorID uint, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	q := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Order("id desc")
	if limit >= 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CountRecipesByAuthors returns author_id -> recipe count for the given ids.
// Authors without recipes are absent from the map.
func CountRecipesByAuthors(ctx context.Context, db *gorm.DB, authorIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		AuthorID uint
		N        int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Select("author_id, COUNT(*) AS n").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.AuthorID] = r.N
	}
	return out, nil
}
