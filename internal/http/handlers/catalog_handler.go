// Catalog HTTP handlers.
//
// This file exposes the read-only tag and ingredient endpoints:
//   - GET /tags               (all tags, ETag support)
//   - GET /tags/{id}
//   - GET /ingredients        (name search, ETag support)
//   - GET /ingredients/{id}
//
// Lists are not paginated. Both list endpoints send a weak ETag derived from
// the catalog state and answer 304 when If-None-Match matches.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
)

// notModified sets the ETag header and reports whether the client copy is
// current. ETag failures are logged and ignored.
func notModified(c *gin.Context, etag func(context.Context) (string, error)) bool {
	tag, err := etag(c.Request.Context())
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("etag")
		return false
	}
	c.Header("ETag", tag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == tag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Catalog
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Tag
// @Header      200  {string}  ETag  "Weak ETag for the tag catalog"
// @Success     304  {string}  string  "Not Modified"
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	if notModified(c, h.catalog.TagsETag) {
		return
	}
	tags, err := h.catalog.Tags(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Catalog
// @Produce     json
// @Param       id  path  int  true  "Tag ID"
// @Success     200  {object}  domain.Tag
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	t, err := h.catalog.Tag(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// ListIngredients godoc
// @ID          listIngredients
// @Summary     Search ingredients
// @Description Names starting with `name` come first (case-insensitive), followed by word matches from the search index.
// @Tags        Catalog
// @Produce     json
// @Param       name           query   string  false  "Name prefix"
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Ingredient
// @Header      200  {string}  ETag  "Weak ETag for the ingredient catalog"
// @Success     304  {string}  string  "Not Modified"
// @Router      /ingredients [get]
func (h *Handlers) ListIngredients(c *gin.Context) {
	if notModified(c, h.catalog.IngredientsETag) {
		return
	}
	items, err := h.catalog.Ingredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetIngredient godoc
// @ID          getIngredient
// @Summary     Get an ingredient
// @Tags        Catalog
// @Produce     json
// @Param       id  path  int  true  "Ingredient ID"
// @Success     200  {object}  domain.Ingredient
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /ingredients/{id} [get]
func (h *Handlers) GetIngredient(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	ing, err := h.catalog.Ingredient(c.Request.Context(), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ing)
}
