package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vinocellar/account-service/internal/cqrs"
	"github.com/vinocellar/account-service/internal/middleware"
	"github.com/vinocellar/account-service/internal/utils"
)

type PasswordResetCommander interface {
	RequestPasswordReset(context.Context, cqrs.RequestPasswordResetCommand) error
	CompletePasswordReset(context.Context, cqrs.CompletePasswordResetCommand) error
}

type PasswordResetQuerier interface {
	VerifyResetToken(context.Context, cqrs.VerifyResetTokenQuery) error
}

// PasswordResetHandler serves the temporary-password recovery flow. None of
// its routes require a session.
type PasswordResetHandler struct {
	commands PasswordResetCommander
	queries  PasswordResetQuerier
}

func NewPasswordResetHandler(commands PasswordResetCommander, queries PasswordResetQuerier) *PasswordResetHandler {
	return &PasswordResetHandler{commands: commands, queries: queries}
}

func (h *PasswordResetHandler) Request(c *gin.Context) {
	var cmd cqrs.RequestPasswordResetCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.commands.RequestPasswordReset(c.Request.Context(), cmd); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "A password reset link has been sent to your email address"})
}

func (h *PasswordResetHandler) Verify(c *gin.Context) {
	if !utils.ValidateUserID(c.Param("userId")) {
		middleware.RespondWithError(c, http.StatusBadRequest, msgResetTokenInvalid)
		return
	}

	err := h.queries.VerifyResetToken(c.Request.Context(), cqrs.VerifyResetTokenQuery{
		UserID: c.Param("userId"),
		Token:  c.Param("token"),
	})
	if err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Please choose a new password"})
}

func (h *PasswordResetHandler) Complete(c *gin.Context) {
	if !utils.ValidateUserID(c.Param("userId")) {
		middleware.RespondWithError(c, http.StatusBadRequest, msgResetTokenInvalid)
		return
	}

	var cmd cqrs.CompletePasswordResetCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	cmd.UserID = c.Param("userId")
	cmd.Token = c.Param("token")

	if err := h.commands.CompletePasswordReset(c.Request.Context(), cmd); err != nil {
		respondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset, you can now log in"})
}
