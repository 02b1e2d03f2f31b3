package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/vinocellar/account-service/internal/apperr"
	"github.com/vinocellar/account-service/internal/models"
	"github.com/vinocellar/account-service/internal/session"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

const (
	keyUserID    = "userId"
	keyEmail     = "email"
	keySessionID = "sessionId"
)

type TokenParser interface {
	Parse(token string) (*session.Claims, error)
}

type SessionLookup interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
}

// TokenFromRequest returns the bearer token, or the session cookie when no
// Authorization header is sent. ok is false when the header is malformed.
func TokenFromRequest(c *gin.Context) (token string, ok bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie, true
	}
	return "", true
}

// AuthMiddleware requires a valid token whose session still exists.
func AuthMiddleware(tokens TokenParser, sessions SessionLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := TokenFromRequest(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		claims, err := tokens.Parse(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		sess, err := sessions.Get(c.Request.Context(), claims.ID)
		if errors.Is(err, apperr.ErrSessionNotFound) || (err == nil && sess.UserID != claims.UserID) {
			abort(c, http.StatusUnauthorized, "Session has ended, please log in again")
			return
		}
		if err != nil {
			log.Ctx(c.Request.Context()).Error().Err(err).Msg("session lookup failed")
			abort(c, http.StatusInternalServerError, "An error occurred during authentication")
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware records the identity of a correctly signed token
// without requiring its session to exist. Requests without a usable token
// pass through anonymously.
func OptionalAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := TokenFromRequest(c); ok && tokenString != "" {
			if claims, err := tokens.Parse(tokenString); err == nil {
				setIdentity(c, claims)
			}
		}
		c.Next()
	}
}

func setIdentity(c *gin.Context, claims *session.Claims) {
	c.Set(keyUserID, claims.UserID)
	c.Set(keyEmail, claims.Email)
	c.Set(keySessionID, claims.ID)
}

func abort(c *gin.Context, code int, message string) {
	RespondWithError(c, code, message)
	c.Abort()
}

func GetUserID(c *gin.Context) (string, bool) {
	return getString(c, keyUserID)
}

func GetSessionID(c *gin.Context) (string, bool) {
	return getString(c, keySessionID)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}
