// Recipe HTTP handlers.
//
// This file exposes the recipe endpoints:
//   - GET    /recipes                         (list, filters, paginated)
//   - POST   /recipes                         (create, Idempotency-Key aware)
//   - GET    /recipes/{id}                    (detail)
//   - PATCH  /recipes/{id}                    (update, author only)
//   - DELETE /recipes/{id}                    (delete, author only)
//   - POST   /recipes/{id}/favorite           (add to favorites)
//   - DELETE /recipes/{id}/favorite           (remove from favorites)
//   - POST   /recipes/{id}/shopping_cart      (add to cart)
//   - DELETE /recipes/{id}/shopping_cart      (remove from cart)
//   - GET    /recipes/download_shopping_cart  (aggregated list, pdf or txt)
//   - GET    /recipes/{id}/get-link           (absolute short link)
//   - GET    /s/{token}                       (short link redirect, outside the API base)
//
// Idempotency:
// If the client supplies an Idempotency-Key header on create and the same
// caller already created a recipe with that key, the stored recipe is
// returned with 200 and `Idempotency-Replayed: true` instead of a second 201.
package handlers

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/services"
	"github.com/tbourn/foodgram-backend/internal/sysutil"
)

// ShortLinkResponse is returned by get-link.
type ShortLinkResponse struct {
	ShortLink string `json:"short-link" example:"http://localhost:8080/s/a1B2c"`
}

// flag parses a 0/1 filter; nil when the parameter is absent or empty.
// Other values are recorded in bad.
func flag(c *gin.Context, name string, bad map[string]string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := sysutil.ParseBinaryFlag(raw)
	if err != nil {
		bad[name] = err.Error()
		return nil
	}
	return &v
}

// recipeQuery builds the list filter from query parameters.
func (h *Handlers) recipeQuery(c *gin.Context) (services.RecipeQuery, bool) {
	page, limit := h.paging(c)
	bad := map[string]string{}
	q := services.RecipeQuery{
		TagSlugs:  c.QueryArray("tags"),
		Favorited: flag(c, "is_favorited", bad),
		InCart:    flag(c, "is_in_shopping_cart", bad),
		Page:      page,
		Limit:     limit,
	}
	if raw := c.Query("author"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			bad["author"] = "must be a user id"
		}
		q.AuthorID = uint(n)
	}
	if len(bad) > 0 {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "validation failed", bad)
		return q, false
	}
	return q, true
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List recipes (paginated)
// @Description Newest first. is_favorited and is_in_shopping_cart filter on the caller's relations; tags may repeat and match any.
// @Tags        Recipes
// @Produce     json
// @Param       page                 query  int     false  "Page number"     minimum(1) default(1)
// @Param       limit                query  int     false  "Items per page"  minimum(1) maximum(100) default(10)
// @Param       author               query  int     false  "Author ID"
// @Param       tags                 query  []string false "Tag slugs"  collectionFormat(multi)
// @Param       is_favorited         query  int     false  "1 or 0"
// @Param       is_in_shopping_cart  query  int     false  "1 or 0"
// @Success     200  {object}  handlers.Page[services.RecipeView]
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	q, okQ := h.recipeQuery(c)
	if !okQ {
		return
	}
	items, total, err := h.recipes.List(c.Request.Context(), viewer(c), q)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, newPage(c, h.baseURL(c), items, total, q.Page, q.Limit))
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Get a recipe
// @Tags        Recipes
// @Produce     json
// @Param       id  path  int  true  "Recipe ID"
// @Success     200  {object}  services.RecipeView
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	r, err := h.recipes.Get(c.Request.Context(), viewer(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Image is a base64 data URI. Supports idempotency via the Idempotency-Key header (same key, same recipe).
// @Tags        Recipes
// @Security    TokenAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    services.RecipeInput  true  "Recipe"
// @Success     201  {object}  services.RecipeView
// @Success     200  {object}  services.RecipeView  "Replayed"
// @Header      200  {string}  Idempotency-Replayed  "true"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     413  {object}  handlers.ErrorResponse
// @Router      /recipes [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)
	r, replayed, err := h.recipes.Create(c.Request.Context(), viewer(c), in, key)
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.ObserveRecipeCreated(replayed)
	if replayed {
		c.Header("Idempotency-Replayed", "true")
		ok(c, http.StatusOK, r)
		return
	}
	ok(c, http.StatusCreated, r)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Update a recipe
// @Description Author only. Tags and ingredients are required and replace the current sets; omitted scalar fields keep their value.
// @Tags        Recipes
// @Security    TokenAuth
// @Accept      json
// @Produce     json
// @Param       id    path  int                   true  "Recipe ID"
// @Param       body  body  services.RecipeInput  true  "Changes"
// @Success     200  {object}  services.RecipeView
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id} [patch]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	var in services.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	r, err := h.recipes.Update(c.Request.Context(), viewer(c), id, in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Tags        Recipes
// @Security    TokenAuth
// @Param       id  path  int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id} [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), viewer(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// AddFavorite godoc
// @ID          addFavorite
// @Summary     Add a recipe to favorites
// @Tags        Recipes
// @Security    TokenAuth
// @Produce     json
// @Param       id  path  int  true  "Recipe ID"
// @Success     201  {object}  services.RecipeShort
// @Failure     400  {object}  handlers.ErrorResponse  "Already in favorites"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id}/favorite [post]
func (h *Handlers) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.relations.AddFavorite)
}

// RemoveFavorite godoc
// @ID          removeFavorite
// @Summary     Remove a recipe from favorites
// @Tags        Recipes
// @Security    TokenAuth
// @Param       id  path  int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Not in favorites"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id}/favorite [delete]
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFavorite)
}

// AddToCart godoc
// @ID          addToCart
// @Summary     Add a recipe to the shopping cart
// @Tags        Recipes
// @Security    TokenAuth
// @Produce     json
// @Param       id  path  int  true  "Recipe ID"
// @Success     201  {object}  services.RecipeShort
// @Failure     400  {object}  handlers.ErrorResponse  "Already in the cart"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id}/shopping_cart [post]
func (h *Handlers) AddToCart(c *gin.Context) {
	h.addRelation(c, h.relations.AddToCart)
}

// RemoveFromCart godoc
// @ID          removeFromCart
// @Summary     Remove a recipe from the shopping cart
// @Tags        Recipes
// @Security    TokenAuth
// @Param       id  path  int  true  "Recipe ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Not in the cart"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id}/shopping_cart [delete]
func (h *Handlers) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.relations.RemoveFromCart)
}

func (h *Handlers) addRelation(c *gin.Context, add func(context.Context, uint, uint) (*services.RecipeShort, error)) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	r, err := add(c.Request.Context(), viewer(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, r)
}

func (h *Handlers) removeRelation(c *gin.Context, remove func(context.Context, uint, uint) error) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := remove(c.Request.Context(), viewer(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// DownloadShoppingCart godoc
// @ID          downloadShoppingCart
// @Summary     Download the shopping list
// @Description Sums ingredient amounts over every recipe in the cart, grouped by name and unit. PDF by default, plain text with format=txt.
// @Tags        Recipes
// @Security    TokenAuth
// @Produce     application/pdf
// @Produce     text/plain
// @Param       format  query  string  false  "pdf or txt"  Enums(pdf, txt)
// @Success     200  {file}    file
// @Failure     400  {object}  handlers.ErrorResponse  "Empty cart or unknown format"
// @Router      /recipes/download_shopping_cart [get]
func (h *Handlers) DownloadShoppingCart(c *gin.Context) {
	format := c.Query("format")
	doc, err := h.shopping.Export(c.Request.Context(), viewer(c), format)
	if err != nil {
		failErr(c, err)
		return
	}
	middleware.ObserveShoppingListExport(format)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

// GetLink godoc
// @ID          getRecipeLink
// @Summary     Get the short link of a recipe
// @Tags        Recipes
// @Produce     json
// @Param       id  path  int  true  "Recipe ID"
// @Success     200  {object}  handlers.ShortLinkResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /recipes/{id}/get-link [get]
func (h *Handlers) GetLink(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	token, err := h.recipes.ShortLink(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ShortLinkResponse{ShortLink: h.baseURL(c) + "/s/" + token})
}

// RedirectShortLink godoc
// @ID          redirectShortLink
// @Summary     Follow a short link
// @Description Redirects to the recipe page /recipes/{id}/.
// @Tags        Recipes
// @Param       token  path  string  true  "Short-link token"
// @Success     302
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /s/{token} [get]
func (h *Handlers) RedirectShortLink(c *gin.Context) {
	id, err := h.links.Resolve(c.Request.Context(), c.Param("token"))
	middleware.ObserveShortLink(err == nil)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/recipes/"+strconv.FormatUint(uint64(id), 10)+"/")
}
