// Package services – RecipeService
//
// This file implements RecipeService, which owns the recipe write pipeline
// and the recipe read projection. A write validates the payload, resolves
// tag and ingredient ids, stores the image and then writes the recipe row
// together with its tag and ingredient links in a single transaction. Links
// are always replaced as a whole.
//
// Creation optionally honors an idempotency key: the key is recorded in the
// same transaction as the recipe, and a retry with the same key returns the
// recipe created the first time.
//
// Observability: public methods are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/media"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

// ScopeCreateRecipe is the idempotency scope of recipe creation.
const ScopeCreateRecipe = "recipes:create"

var errIdempotencyRace = errors.New("idempotency key claimed concurrently")

// RecipeQuery filters and pages a recipe listing.
type RecipeQuery struct {
	AuthorID  uint
	TagSlugs  []string
	Favorited *bool
	InCart    *bool
	Page      int
	Limit     int
}

// RecipeService implements the recipe use-cases.
type RecipeService struct {
	DB    *gorm.DB
	Media media.Store
	Links *ShortLinkService

	// ImageMaxSide bounds the longer image side in pixels.
	ImageMaxSide   int
	IdempotencyTTL time.Duration
	PageSize       int
	MaxPageSize    int

	// NewToken generates short-link tokens; NewShortToken when nil.
	NewToken func() (string, error)
}

// NewRecipeService constructs a RecipeService with default limits.
func NewRecipeService(db *gorm.DB, store media.Store, links *ShortLinkService) *RecipeService {
	return &RecipeService{
		DB:             db,
		Media:          store,
		Links:          links,
		ImageMaxSide:   1600,
		IdempotencyTTL: 24 * time.Hour,
		PageSize:       10,
		MaxPageSize:    100,
	}
}

func (s *RecipeService) view() projector { return projector{db: s.DB, media: s.Media} }

func tracer() trace.Tracer { return otel.Tracer("services/RecipeService") }

// Get returns the projection of recipe id for viewer (0 for anonymous).
func (s *RecipeService) Get(ctx context.Context, viewer, id uint) (*RecipeView, error) {
	ctx, span := tracer().Start(ctx, "Get", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer span.End()

	r, err := repo.GetRecipe(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return s.view().recipe(ctx, viewer, r)
}

// List returns a filtered page of recipes, newest first.
func (s *RecipeService) List(ctx context.Context, viewer uint, q RecipeQuery) ([]RecipeView, int64, error) {
	_, limit, offset := utils.Offset(q.Page, q.Limit, s.PageSize, s.MaxPageSize)
	ctx, span := tracer().Start(ctx, "List",
		trace.WithAttributes(
			attribute.Int("page", q.Page),
			attribute.Int("limit", limit),
			attribute.Int("tags", len(q.TagSlugs)),
		),
	)
	defer span.End()

	f := repo.RecipeFilter{
		AuthorID:  q.AuthorID,
		TagSlugs:  q.TagSlugs,
		ViewerID:  viewer,
		Favorited: q.Favorited,
		InCart:    q.InCart,
	}
	total, err := repo.CountRecipes(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []RecipeView{}, 0, nil
	}
	rows, err := repo.ListRecipesPage(ctx, s.DB, f, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.view().recipes(ctx, viewer, rows)
	return views, total, err
}

// Create validates in and stores a new recipe owned by authorID. When
// idemKey is set and a recipe was already created with it, that recipe is
// returned with replayed == true.
func (s *RecipeService) Create(ctx context.Context, authorID uint, in RecipeInput, idemKey string) (view *RecipeView, replayed bool, err error) {
	ctx, span := tracer().Start(ctx, "Create", trace.WithAttributes(attribute.Int64("user.id", int64(authorID))))
	defer span.End()

	idemKey = strings.TrimSpace(idemKey)
	if idemKey != "" {
		if v, ok, err := s.replay(ctx, authorID, idemKey); ok || err != nil {
			return v, ok, err
		}
	}

	w, err := s.prepare(ctx, in, false)
	if err != nil {
		return nil, false, err
	}
	imageKey, err := s.saveImage(ctx, w.image)
	if err != nil {
		return nil, false, err
	}

	r := &domain.Recipe{
		AuthorID:    authorID,
		Name:        *in.Name,
		Image:       imageKey,
		Text:        *in.Text,
		CookingTime: *in.CookingTime,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.insertWithShortLink(ctx, tx, r); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, r.ID, w.tags); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeIngredients(ctx, tx, r.ID, w.items); err != nil {
			return err
		}
		if idemKey != "" {
			_, err := repo.CreateIdempotency(ctx, tx, authorID, ScopeCreateRecipe, idemKey, r.ID, http.StatusCreated, s.IdempotencyTTL)
			if errors.Is(err, repo.ErrDuplicate) {
				return errIdempotencyRace
			}
			return err
		}
		return nil
	})
	if err != nil {
		s.dropObject(ctx, imageKey)
		if errors.Is(err, errIdempotencyRace) {
			v, ok, rerr := s.replay(ctx, authorID, idemKey)
			if rerr == nil && !ok {
				rerr = err
			}
			return v, ok, rerr
		}
		return nil, false, err
	}

	log.Ctx(ctx).Info().
		Uint("recipe_id", r.ID).
		Uint("author_id", authorID).
		Str("short_link", r.ShortLink).
		Msg("recipe created")

	view, err = s.Get(ctx, authorID, r.ID)
	return view, false, err
}

// Update applies in to recipe id. Only the author may update; tags and
// ingredients are replaced, scalar fields left nil keep their value.
func (s *RecipeService) Update(ctx context.Context, userID, id uint, in RecipeInput) (*RecipeView, error) {
	ctx, span := tracer().Start(ctx, "Update", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer span.End()

	cur, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	w, err := s.prepare(ctx, in, true)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now().UTC()}
	if in.Name != nil {
		fields["name"] = *in.Name
	}
	if in.Text != nil {
		fields["text"] = *in.Text
	}
	if in.CookingTime != nil {
		fields["cooking_time"] = *in.CookingTime
	}
	var newImage string
	if w.image != nil {
		if newImage, err = s.saveImage(ctx, w.image); err != nil {
			return nil, err
		}
		fields["image"] = newImage
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateRecipeFields(ctx, tx, id, fields); err != nil {
			return err
		}
		if err := repo.ReplaceRecipeTags(ctx, tx, id, w.tags); err != nil {
			return err
		}
		return repo.ReplaceRecipeIngredients(ctx, tx, id, w.items)
	})
	if err != nil {
		s.dropObject(ctx, newImage)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if newImage != "" {
		s.dropObject(ctx, cur.Image)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes recipe id. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, userID, id uint) error {
	ctx, span := tracer().Start(ctx, "Delete", trace.WithAttributes(attribute.Int64("recipe.id", int64(id))))
	defer span.End()

	cur, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := repo.DeleteRecipe(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	s.Links.Forget(cur.ShortLink)
	s.dropObject(ctx, cur.Image)
	return nil
}

// ShortLink returns the short-link token of recipe id.
func (s *RecipeService) ShortLink(ctx context.Context, id uint) (string, error) {
	r, err := repo.GetRecipeRow(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrRecipeNotFound
		}
		return "", err
	}
	return r.ShortLink, nil
}

// ---------- write pipeline ----------

type recipeWrite struct {
	tags  []domain.Tag
	items []domain.RecipeIngredient
	image *media.Image // nil on update without a new image
}

// prepare normalizes and validates in, then resolves its references. All
// problems found are reported together in one ValidationError.
func (s *RecipeService) prepare(ctx context.Context, in RecipeInput, partial bool) (*recipeWrite, error) {
	for _, p := range []*string{in.Name, in.Text} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	if err := asValidation(in.validate(partial)); err != nil {
		return nil, err
	}

	ve := &ValidationError{Fields: map[string]string{}}
	w := &recipeWrite{}

	tags, err := repo.TagsByIDs(ctx, s.DB, in.Tags)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(in.Tags, tagIDs(tags)); len(missing) > 0 {
		ve.Fields["tags"] = "unknown tag id(s): " + joinIDs(missing)
	}
	w.tags = tags

	ingIDs := make([]uint, len(in.Ingredients))
	for i, it := range in.Ingredients {
		ingIDs[i] = it.ID
	}
	ings, err := repo.IngredientsByIDs(ctx, s.DB, ingIDs)
	if err != nil {
		return nil, err
	}
	found := make([]uint, len(ings))
	for i, ing := range ings {
		found[i] = ing.ID
	}
	if missing := missingIDs(ingIDs, found); len(missing) > 0 {
		ve.Fields["ingredients"] = "unknown ingredient id(s): " + joinIDs(missing)
	}
	w.items = make([]domain.RecipeIngredient, len(in.Ingredients))
	for i, it := range in.Ingredients {
		w.items[i] = domain.RecipeIngredient{IngredientID: it.ID, Amount: it.Amount}
	}

	if in.Image != nil {
		img, err := media.FromDataURI(*in.Image, s.ImageMaxSide)
		if err != nil {
			ve.merge(map[string]string{"image": err.Error()})
		}
		w.image = img
	}

	if len(ve.Fields) > 0 {
		return nil, ve
	}
	return w, nil
}

// insertWithShortLink inserts r with a fresh short-link token, retrying on
// collision. Each attempt runs in its own savepoint so a failed insert does
// not poison the surrounding transaction.
func (s *RecipeService) insertWithShortLink(ctx context.Context, tx *gorm.DB, r *domain.Recipe) error {
	gen := s.NewToken
	if gen == nil {
		gen = NewShortToken
	}
	for attempt := 0; attempt < shortLinkAttempts; attempt++ {
		tok, err := gen()
		if err != nil {
			return err
		}
		r.ID = 0
		r.ShortLink = tok
		err = tx.Transaction(func(sp *gorm.DB) error {
			return repo.CreateRecipe(ctx, sp, r)
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return err
		}
		log.Ctx(ctx).Debug().Int("attempt", attempt+1).Msg("short link collision")
	}
	return ErrShortLinkExhausted
}

// owned loads recipe id and checks that userID is its author.
func (s *RecipeService) owned(ctx context.Context, userID, id uint) (*domain.Recipe, error) {
	r, err := repo.GetRecipeRow(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if r.AuthorID != userID {
		return nil, ErrNotAuthor
	}
	return r, nil
}

func (s *RecipeService) replay(ctx context.Context, userID uint, key string) (*RecipeView, bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, ScopeCreateRecipe, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	v, err := s.Get(ctx, userID, rec.ResourceID)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RecipeService) saveImage(ctx context.Context, img *media.Image) (string, error) {
	key := media.NewKey("recipes", img.Ext)
	if err := s.Media.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("store recipe image: %w", err)
	}
	return key, nil
}

func (s *RecipeService) dropObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.Media.Delete(ctx, key); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("delete media object")
	}
}

// ---------- helpers ----------

func tagIDs(tags []domain.Tag) []uint {
	out := make([]uint, len(tags))
	for i, t := range tags {
		out[i] = t.ID
	}
	return out
}

// missingIDs returns the ids of want absent from have, sorted.
func missingIDs(want, have []uint) []uint {
	set := make(map[uint]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	var out []uint
	for _, id := range want {
		if _, ok := set[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ", ")
}
