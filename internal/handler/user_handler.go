package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/middleware"
	"github.com/vinocellar/account-service/internal/models"
)

// UserCommander defines the write-side operations used by UserHandler.
type UserCommander interface {
	Register(context.Context, cqrs.RegisterUserCommand) (*models.UserView, error)
	UpdateProfile(context.Context, cqrs.UpdateProfileCommand) (*models.UserView, error)
	ChangePassword(context.Context, cqrs.ChangePasswordCommand) error
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) error
}

// UserQuerier defines the read-side operations used by UserHandler.
type UserQuerier interface {
	GetUser(context.Context, cqrs.GetUserQuery) (*models.UserView, error)
	GetDashboard(context.Context, cqrs.GetDashboardQuery) (*models.DashboardView, error)
}

// UserHandler routes requests to the command or query service as appropriate.
type UserHandler struct {
	commands UserCommander
	queries  UserQuerier
	cookies  cookieSettings
}

func NewUserHandler(commands UserCommander, queries UserQuerier, secureCookies bool) *UserHandler {
	return &UserHandler{commands: commands, queries: queries, cookies: cookieSettings{secure: secureCookies}}
}

func (h *UserHandler) Register(c *gin.Context) {
	var cmd cqrs.RegisterUserCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	view, err := h.commands.Register(c.Request.Context(), cmd)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Your account has been created, you can now log in",
		"user":    view,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetUser(c.Request.Context(), cqrs.GetUserQuery{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireOwner(c)
	if !ok {
		return
	}

	var cmd cqrs.UpdateProfileCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	cmd.UserID = userID

	view, err := h.commands.UpdateProfile(c.Request.Context(), cmd)
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, ok := requireOwner(c)
	if !ok {
		return
	}

	var cmd cqrs.ChangePasswordCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	cmd.UserID = userID

	if err := h.commands.ChangePassword(c.Request.Context(), cmd); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Your password has been changed"})
}

// DeleteAccount removes the account and ends the caller's session.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := requireOwner(c)
	if !ok {
		return
	}

	var cmd cqrs.DeleteAccountCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	cmd.UserID = userID

	if err := h.commands.DeleteAccount(c.Request.Context(), cmd); err != nil {
		respondWithServiceError(c, err)
		return
	}

	h.cookies.clear(c)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) GetDashboard(c *gin.Context) {
	requestingUserID, _ := middleware.GetUserID(c)

	dash, err := h.queries.GetDashboard(c.Request.Context(), cqrs.GetDashboardQuery{
		UserID:           c.Param("userId"),
		RequestingUserID: requestingUserID,
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dash)
}
