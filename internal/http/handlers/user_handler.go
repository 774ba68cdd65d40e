// User HTTP handlers.
//
// This file exposes the account and profile endpoints:
//   - POST   /users                    (register)
//   - GET    /users                    (list, paginated)
//   - GET    /users/{id}               (public profile)
//   - GET    /users/me                 (caller's profile)
//   - POST   /users/set_password       (change password)
//   - PUT    /users/me/avatar          (upload avatar, base64 data URI)
//   - DELETE /users/me/avatar          (remove avatar)
//   - GET    /users/subscriptions      (followed authors with recipe previews)
//   - POST   /users/{id}/subscribe     (follow an author)
//   - DELETE /users/{id}/subscribe     (unfollow)
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/services"
)

//
// DTOs
//

// RegisteredUser is returned by registration.
type RegisteredUser struct {
	Email     string `json:"email" example:"cook@example.com"`
	ID        uint   `json:"id" example:"1"`
	Username  string `json:"username" example:"cook"`
	FirstName string `json:"first_name" example:"Ada"`
	LastName  string `json:"last_name" example:"Lovelace"`
}

// AvatarRequest carries a base64 data URI.
type AvatarRequest struct {
	Avatar string `json:"avatar" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// AvatarResponse is the public URL of the stored avatar.
type AvatarResponse struct {
	Avatar string `json:"avatar" example:"http://localhost:8080/media/users/5f0c.png"`
}

// recipesLimit reads ?recipes_limit; absent means no limit (-1).
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return -1, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "validation failed",
			map[string]string{"recipes_limit": "must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

//
// Handlers
//

// RegisterUser godoc
// @ID          registerUser
// @Summary     Register a user
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      services.RegisterInput  true  "New account"
// @Success     201   {object}  handlers.RegisteredUser
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed"
// @Router      /users [post]
func (h *Handlers) RegisterUser(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, RegisteredUser{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	})
}

// ListUsers godoc
// @ID          listUsers
// @Summary     List users (paginated)
// @Tags        Users
// @Produce     json
// @Param       page   query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false  "Items per page"  minimum(1) maximum(100) default(10)
// @Success     200  {object}  handlers.Page[services.UserView]
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	page, limit := h.paging(c)
	items, total, err := h.users.List(c.Request.Context(), viewer(c), page, limit)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, newPage(c, h.baseURL(c), items, total, page, limit))
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user profile
// @Tags        Users
// @Produce     json
// @Param       id  path  int  true  "User ID"
// @Success     200  {object}  services.UserView
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	u, err := h.users.Get(c.Request.Context(), viewer(c), id)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// Me godoc
// @ID          me
// @Summary     Get the caller's profile
// @Tags        Users
// @Security    TokenAuth
// @Produce     json
// @Success     200  {object}  services.UserView
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /users/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid := viewer(c)
	u, err := h.users.Get(c.Request.Context(), uid, uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// SetPassword godoc
// @ID          setPassword
// @Summary     Change the caller's password
// @Tags        Users
// @Security    TokenAuth
// @Accept      json
// @Param       body  body  services.SetPasswordInput  true  "Current and new password"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /users/set_password [post]
func (h *Handlers) SetPassword(c *gin.Context) {
	var in services.SetPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), viewer(c), in); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// SetAvatar godoc
// @ID          setAvatar
// @Summary     Upload the caller's avatar
// @Tags        Users
// @Security    TokenAuth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.AvatarRequest  true  "Base64 data URI"
// @Success     200   {object}  handlers.AvatarResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     413   {object}  handlers.ErrorResponse
// @Router      /users/me/avatar [put]
func (h *Handlers) SetAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failBind(c, err)
		return
	}
	url, err := h.users.SetAvatar(c.Request.Context(), viewer(c), req.Avatar)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AvatarResponse{Avatar: url})
}

// DeleteAvatar godoc
// @ID          deleteAvatar
// @Summary     Remove the caller's avatar
// @Tags        Users
// @Security    TokenAuth
// @Success     204  {string}  string  "No Content"
// @Router      /users/me/avatar [delete]
func (h *Handlers) DeleteAvatar(c *gin.Context) {
	if err := h.users.DeleteAvatar(c.Request.Context(), viewer(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// Subscriptions godoc
// @ID          subscriptions
// @Summary     List followed authors
// @Description Authors the caller follows, ordered by username, each with up to recipes_limit of their newest recipes.
// @Tags        Users
// @Security    TokenAuth
// @Produce     json
// @Param       page           query  int  false  "Page number"     minimum(1) default(1)
// @Param       limit          query  int  false  "Items per page"  minimum(1) maximum(100) default(10)
// @Param       recipes_limit  query  int  false  "Recipes per author"  minimum(0)
// @Success     200  {object}  handlers.Page[services.SubscriptionView]
// @Router      /users/subscriptions [get]
func (h *Handlers) Subscriptions(c *gin.Context) {
	rl, okRL := recipesLimit(c)
	if !okRL {
		return
	}
	page, limit := h.paging(c)
	items, total, err := h.relations.Subscriptions(c.Request.Context(), viewer(c), page, limit, rl)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, newPage(c, h.baseURL(c), items, total, page, limit))
}

// Subscribe godoc
// @ID          subscribe
// @Summary     Follow an author
// @Tags        Users
// @Security    TokenAuth
// @Produce     json
// @Param       id             path   int  true   "Author ID"
// @Param       recipes_limit  query  int  false  "Recipes in the response"  minimum(0)
// @Success     201  {object}  services.SubscriptionView
// @Failure     400  {object}  handlers.ErrorResponse  "Self or duplicate subscription"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/subscribe [post]
func (h *Handlers) Subscribe(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	rl, okRL := recipesLimit(c)
	if !okRL {
		return
	}
	sub, err := h.relations.Subscribe(c.Request.Context(), viewer(c), id, rl)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, sub)
}

// Unsubscribe godoc
// @ID          unsubscribe
// @Summary     Unfollow an author
// @Tags        Users
// @Security    TokenAuth
// @Param       id  path  int  true  "Author ID"
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Not subscribed"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /users/{id}/subscribe [delete]
func (h *Handlers) Unsubscribe(c *gin.Context) {
	id, okID := pathID(c, "id")
	if !okID {
		return
	}
	if err := h.relations.Unsubscribe(c.Request.Context(), viewer(c), id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
