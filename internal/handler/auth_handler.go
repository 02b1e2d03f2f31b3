package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/command"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/middleware"
	"github.com/vinocellar/account-service/internal/models"
)

// AuthCommander defines the session operations used by AuthHandler.
type AuthCommander interface {
	Authenticate(context.Context, cqrs.LoginCommand) (*command.AuthResult, error)
	Logout(context.Context, cqrs.LogoutCommand) error
}

// AuthHandler handles login and logout.
type AuthHandler struct {
	commands AuthCommander
	cookies  cookieSettings
	now      func() time.Time
}

type AuthResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      *models.UserView `json:"user"`
}

func NewAuthHandler(commands AuthCommander, secureCookies bool) *AuthHandler {
	return &AuthHandler{commands: commands, cookies: cookieSettings{secure: secureCookies}, now: time.Now}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var cmd cqrs.LoginCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	res, err := h.commands.Authenticate(c.Request.Context(), cmd)
	if err != nil {
		var opErr *apperr.OperationError
		if errors.As(err, &opErr) {
			middleware.RespondWithError(c, http.StatusUnauthorized, opErr.Message)
			return
		}
		respondWithServiceError(c, err)
		return
	}

	// Remembered sessions outlive the browser; others end with it.
	maxAge := 0
	if res.Session.Remember {
		maxAge = int(res.Session.ExpiresAt.Sub(h.now()).Seconds())
	}
	h.cookies.set(c, res.Token, maxAge)

	c.JSON(http.StatusOK, AuthResponse{Token: res.Token, ExpiresAt: res.Session.ExpiresAt, User: res.User})
}

// Logout always succeeds for the caller; store failures are only logged.
func (h *AuthHandler) Logout(c *gin.Context) {
	sessionID, _ := middleware.GetSessionID(c)

	if err := h.commands.Logout(c.Request.Context(), cqrs.LogoutCommand{SessionID: sessionID}); err != nil {
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to end session")
	}

	h.cookies.clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
}

type cookieSettings struct {
	secure bool
}

func (s cookieSettings) set(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", s.secure, true)
}

func (s cookieSettings) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", s.secure, true)
}
