package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/middleware"
)

const (
	msgInvalidBody       = "Invalid request body"
	msgUserNotFound      = "User not found"
	msgForbidden         = "You can only access your own account"
	msgBadCredentials    = "The email or password is incorrect"
	msgResetTokenInvalid = "The temporary password does not match"
	msgInternal          = "Internal server error"
)

// respondWithServiceError maps service errors onto HTTP responses. Causes
// of generic failures are logged, never rendered.
func respondWithServiceError(c *gin.Context, err error) {
	var verr *apperr.ValidationError
	var opErr *apperr.OperationError

	switch {
	case errors.As(err, &verr):
		middleware.RespondWithValidationError(c, verr)
	case errors.As(err, &opErr):
		middleware.RespondWithError(c, http.StatusInternalServerError, opErr.Message)
	case errors.Is(err, apperr.ErrForbidden):
		middleware.RespondWithError(c, http.StatusForbidden, msgForbidden)
	case errors.Is(err, apperr.ErrUserNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, msgUserNotFound)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		middleware.RespondWithError(c, http.StatusUnauthorized, msgBadCredentials)
	case errors.Is(err, apperr.ErrResetTokenMismatch):
		middleware.RespondWithError(c, http.StatusBadRequest, msgResetTokenInvalid)
	default:
		log.Ctx(c.Request.Context()).Error().Err(err).Msg("unhandled service error")
		middleware.RespondWithError(c, http.StatusInternalServerError, msgInternal)
	}
}

// requireOwner rejects requests on another user's resources.
func requireOwner(c *gin.Context) (string, bool) {
	userID := c.Param("userId")
	requestingUserID, _ := middleware.GetUserID(c)
	if userID != requestingUserID {
		middleware.RespondWithError(c, http.StatusForbidden, msgForbidden)
		return "", false
	}
	return userID, true
}
