// Auth HTTP handlers.
//
// This file exposes the token endpoints:
//   - POST /auth/token/login   (exchange email and password for a token)
//   - POST /auth/token/logout  (revoke the token used for the request)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/services"
)

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	AuthToken string `json:"auth_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// Login godoc
// @ID          login
// @Summary     Obtain an auth token
// @Description Exchanges email and password for a token. Send it back as "Authorization: Token <token>".
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.LoginInput  true  "Credentials"
// @Success     200   {object}  handlers.TokenResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid credentials or payload"
// @Router      /auth/token/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var in services.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		failBind(c, err)
		return
	}
	token, err := h.auth.Login(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, TokenResponse{AuthToken: token})
}

// Logout godoc
// @ID          logout
// @Summary     Revoke the current token
// @Tags        Auth
// @Security    TokenAuth
// @Success     204  {string}  string  "No Content"
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /auth/token/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), viewer(c), middleware.ClaimsFrom(c)); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
