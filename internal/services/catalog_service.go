// Package services – CatalogService
//
// This file implements the read side of the tag and ingredient catalogs.
// Ingredient lookups combine a case-insensitive name prefix match from the
// database with word matches from an in-memory search index, so "oil" lists
// "oil, olive" first and then "olive oil". The index is rebuilt from the
// database on startup and after imports and swapped atomically.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/search"
)

// CatalogService serves tags and ingredients.
type CatalogService struct {
	DB    *gorm.DB
	Index *search.Holder

	// SuggestLimit caps index suggestions appended to a prefix match.
	SuggestLimit int
}

// NewCatalogService returns a CatalogService with an empty index; call
// RebuildIndex to populate it.
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db, Index: search.NewHolder(nil), SuggestLimit: 10}
}

// Tags lists all tags ordered by slug.
func (s *CatalogService) Tags(ctx context.Context) ([]domain.Tag, error) {
	tags, err := repo.ListTags(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return tags, nil
}

// Tag returns one tag.
func (s *CatalogService) Tag(ctx context.Context, id uint) (*domain.Tag, error) {
	t, err := repo.GetTag(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTagNotFound
	}
	return t, err
}

// TagsETag returns a weak validator that changes whenever the tag list does.
func (s *CatalogService) TagsETag(ctx context.Context) (string, error) {
	count, maxID, err := repo.TagsStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"tags:%d:%d"`, count, maxID), nil
}

// IngredientsETag returns a weak validator for the ingredient catalog.
func (s *CatalogService) IngredientsETag(ctx context.Context) (string, error) {
	count, maxID, err := repo.IngredientsStats(ctx, s.DB)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`W/"ingredients:%d:%d:%d"`, count, maxID, s.Index.Load().Len()), nil
}

// Ingredients lists ingredients whose name starts with name, followed by
// index matches on any word of the name. An empty name lists everything.
func (s *CatalogService) Ingredients(ctx context.Context, name string) ([]domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	out, err := repo.ListIngredients(ctx, s.DB, name)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Ingredient{}
	}
	if name == "" || s.Index == nil {
		return out, nil
	}

	seen := make(map[uint]struct{}, len(out))
	for _, ing := range out {
		seen[ing.ID] = struct{}{}
	}
	var extra []uint
	for _, r := range s.Index.Load().TopK(name, s.SuggestLimit) {
		if _, dup := seen[r.ID]; !dup {
			extra = append(extra, r.ID)
			seen[r.ID] = struct{}{}
		}
	}
	if len(extra) == 0 {
		return out, nil
	}
	rows, err := repo.IngredientsByIDs(ctx, s.DB, extra)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]domain.Ingredient, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	// Keep ranking order; ids deleted since the last rebuild drop out.
	for _, id := range extra {
		if ing, ok := byID[id]; ok {
			out = append(out, ing)
		}
	}
	return out, nil
}

// Ingredient returns one ingredient.
func (s *CatalogService) Ingredient(ctx context.Context, id uint) (*domain.Ingredient, error) {
	ing, err := repo.GetIngredient(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrIngredientNotFound
	}
	return ing, err
}

// RebuildIndex reloads the ingredient names into a fresh index and swaps it
// in. It returns the number of indexed entries.
func (s *CatalogService) RebuildIndex(ctx context.Context) (int, error) {
	all, err := repo.AllIngredients(ctx, s.DB)
	if err != nil {
		return 0, err
	}
	entries := make([]search.Entry, len(all))
	for i, ing := range all {
		entries[i] = search.Entry{ID: ing.ID, Text: ing.Name}
	}
	idx := search.NewIndex(entries)
	s.Index.Store(idx)
	log.Ctx(ctx).Debug().Int("entries", idx.Len()).Msg("ingredient index rebuilt")
	return idx.Len(), nil
}
