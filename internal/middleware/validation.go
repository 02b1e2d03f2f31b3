package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vinocellar/account-service/internal/apperr"
)

type BadRequestErrorResponse struct {
	Message string              `json:"message"`
	Details []apperr.FieldError `json:"details"`
}

func RespondWithValidationError(c *gin.Context, verr *apperr.ValidationError) {
	c.JSON(http.StatusBadRequest, BadRequestErrorResponse{
		Message: "Invalid request data",
		Details: verr.Fields,
	})
}

func RespondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"message": message,
	})
}
