package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/media"
	"github.com/tbourn/foodgram-backend/internal/repo"
)

// UserView is the public representation of a user.
type UserView struct {
	Email        string  `json:"email"`
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Avatar       *string `json:"avatar"`
	IsSubscribed bool    `json:"is_subscribed"`
}

// RecipeIngredientView is one ingredient line of a recipe.
type RecipeIngredientView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView is the full read projection of a recipe for a given viewer.
type RecipeView struct {
	ID               uint                   `json:"id"`
	Tags             []domain.Tag           `json:"tags"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeShort is the compact recipe view used by favorites, the cart and
// subscriptions.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is a followed author with a preview of their recipes.
type SubscriptionView struct {
	UserView
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

// projector assembles read views, resolving the per-viewer booleans for a
// whole batch with one query per relation.
type projector struct {
	db    *gorm.DB
	media media.Store
}

func (p projector) url(key string) string {
	if p.media == nil {
		return key
	}
	return p.media.URL(key)
}

func (p projector) user(u domain.User, subscribed bool) UserView {
	v := UserView{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
	if u.Avatar != nil && *u.Avatar != "" {
		s := p.url(*u.Avatar)
		v.Avatar = &s
	}
	return v
}

func (p projector) users(ctx context.Context, viewer uint, us []domain.User) ([]UserView, error) {
	ids := make([]uint, len(us))
	for i, u := range us {
		ids[i] = u.ID
	}
	subs, err := repo.SubscribedSet(ctx, p.db, viewer, ids)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, len(us))
	for i, u := range us {
		out[i] = p.user(u, subs[u.ID])
	}
	return out, nil
}

func (p projector) short(r domain.Recipe) RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: p.url(r.Image), CookingTime: r.CookingTime}
}

// recipes projects recipes loaded with their associations.
func (p projector) recipes(ctx context.Context, viewer uint, rs []domain.Recipe) ([]RecipeView, error) {
	out := make([]RecipeView, len(rs))
	if len(rs) == 0 {
		return out, nil
	}
	ids := make([]uint, len(rs))
	authorIDs := make([]uint, 0, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
		authorIDs = append(authorIDs, r.AuthorID)
	}
	fav, err := repo.FavoritedSet(ctx, p.db, viewer, ids)
	if err != nil {
		return nil, err
	}
	cart, err := repo.InCartSet(ctx, p.db, viewer, ids)
	if err != nil {
		return nil, err
	}
	subs, err := repo.SubscribedSet(ctx, p.db, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	for i, r := range rs {
		lines := make([]RecipeIngredientView, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			lines[j] = RecipeIngredientView{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		tags := r.Tags
		if tags == nil {
			tags = []domain.Tag{}
		}
		out[i] = RecipeView{
			ID:               r.ID,
			Tags:             tags,
			Author:           p.user(r.Author, subs[r.AuthorID]),
			Ingredients:      lines,
			IsFavorited:      fav[r.ID],
			IsInShoppingCart: cart[r.ID],
			Name:             r.Name,
			Image:            p.url(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

func (p projector) recipe(ctx context.Context, viewer uint, r *domain.Recipe) (*RecipeView, error) {
	views, err := p.recipes(ctx, viewer, []domain.Recipe{*r})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// subscriptions projects followed authors with up to limit recipes each
// (limit < 0 means all).
func (p projector) subscriptions(ctx context.Context, authors []domain.User, limit int) ([]SubscriptionView, error) {
	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := repo.CountRecipesByAuthors(ctx, p.db, ids)
	if err != nil {
		return nil, err
	}
	out := make([]SubscriptionView, len(authors))
	for i, a := range authors {
		rs, err := repo.RecipesByAuthor(ctx, p.db, a.ID, limit)
		if err != nil {
			return nil, err
		}
		shorts := make([]RecipeShort, len(rs))
		for j, r := range rs {
			shorts[j] = p.short(r)
		}
		out[i] = SubscriptionView{
			UserView:     p.user(a, true),
			Recipes:      shorts,
			RecipesCount: counts[a.ID],
		}
	}
	return out, nil
}
