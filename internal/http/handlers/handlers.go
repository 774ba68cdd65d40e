package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/domain"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AuthService issues and revokes session tokens.
type AuthService interface {
	Login(ctx context.Context, in services.LoginInput) (string, error)
	Logout(ctx context.Context, userID uint, claims *auth.Claims) error
}

// UserService covers accounts and profiles. viewer is 0 for anonymous
// callers.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*domain.User, error)
	List(ctx context.Context, viewer uint, page, pageSize int) ([]services.UserView, int64, error)
	Get(ctx context.Context, viewer, id uint) (*services.UserView, error)
	SetPassword(ctx context.Context, userID uint, in services.SetPasswordInput) error
	SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error)
	DeleteAvatar(ctx context.Context, userID uint) error
}

// RecipeService covers the recipe lifecycle and the read projection.
type RecipeService interface {
	Get(ctx context.Context, viewer, id uint) (*services.RecipeView, error)
	List(ctx context.Context, viewer uint, q services.RecipeQuery) ([]services.RecipeView, int64, error)
	// Create reports replayed == true when idemKey matched an earlier create.
	Create(ctx context.Context, authorID uint, in services.RecipeInput, idemKey string) (*services.RecipeView, bool, error)
	Update(ctx context.Context, userID, id uint, in services.RecipeInput) (*services.RecipeView, error)
	Delete(ctx context.Context, userID, id uint) error
	ShortLink(ctx context.Context, id uint) (string, error)
}

// RelationService toggles favorites, cart entries and subscriptions.
type RelationService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*services.RecipeShort, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*services.RecipeShort, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*services.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, page, pageSize, recipesLimit int) ([]services.SubscriptionView, int64, error)
}

// ShoppingListService renders the caller's cart.
type ShoppingListService interface {
	Export(ctx context.Context, userID uint, format string) (*services.Document, error)
}

// CatalogService serves the read-only tag and ingredient catalogs.
type CatalogService interface {
	Tags(ctx context.Context) ([]domain.Tag, error)
	Tag(ctx context.Context, id uint) (*domain.Tag, error)
	TagsETag(ctx context.Context) (string, error)
	Ingredients(ctx context.Context, name string) ([]domain.Ingredient, error)
	Ingredient(ctx context.Context, id uint) (*domain.Ingredient, error)
	IngredientsETag(ctx context.Context) (string, error)
}

// LinkResolver maps a short-link token to a recipe id.
type LinkResolver interface {
	Resolve(ctx context.Context, token string) (uint, error)
}

//
// Handler wiring
//

// Services bundles the dependencies of Handlers.
type Services struct {
	Auth      AuthService
	Users     UserService
	Recipes   RecipeService
	Relations RelationService
	Shopping  ShoppingListService
	Catalog   CatalogService
	Links     LinkResolver
}

// Options tune URL building and paging.
type Options struct {
	// PublicBaseURL is the absolute origin used in short links and page
	// links. When empty it is derived from the request.
	PublicBaseURL string
	PageSize      int
	MaxPageSize   int
}

// Handlers groups all HTTP endpoints. It depends on abstract service
// interfaces to keep transport concerns separate from business logic.
type Handlers struct {
	auth      AuthService
	users     UserService
	recipes   RecipeService
	relations RelationService
	shopping  ShoppingListService
	catalog   CatalogService
	links     LinkResolver
	opts      Options
}

// New constructs and returns a Handlers instance bound to the given services.
func New(s Services, opts Options) *Handlers {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = 100
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Handlers{
		auth:      s.Auth,
		users:     s.Users,
		recipes:   s.Recipes,
		relations: s.Relations,
		shopping:  s.Shopping,
		catalog:   s.Catalog,
		links:     s.Links,
		opts:      opts,
	}
}

//
// Helpers
//

// viewer returns the caller id, or 0 for anonymous requests.
func viewer(c *gin.Context) uint {
	id, _ := middleware.UserID(c)
	return id
}

// pathID parses the :name path parameter as a positive id. On failure it
// writes a 404, matching what an unknown id would return.
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "not found")
		return 0, false
	}
	return uint(n), true
}

// paging reads page and limit from the query, applying defaults and caps.
func (h *Handlers) paging(c *gin.Context) (page, limit int) {
	page = utils.AtoiDefault(c.Query("page"), 1)
	limit = utils.AtoiDefault(c.Query("limit"), h.opts.PageSize)
	page, limit, _ = utils.Offset(page, limit, h.opts.PageSize, h.opts.MaxPageSize)
	return page, limit
}

// baseURL returns the absolute origin used for links in responses.
func (h *Handlers) baseURL(c *gin.Context) string {
	if h.opts.PublicBaseURL != "" {
		return h.opts.PublicBaseURL
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	return scheme + "://" + c.Request.Host
}
