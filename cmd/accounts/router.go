package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vinocellar/account-service/internal/handler"
	"github.com/vinocellar/account-service/internal/middleware"
)

type routes struct {
	users    *handler.UserHandler
	auth     *handler.AuthHandler
	resets   *handler.PasswordResetHandler
	tokens   middleware.TokenParser
	sessions middleware.SessionLookup
}

func newRouter(r routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())

	requireAuth := middleware.AuthMiddleware(r.tokens, r.sessions)

	users := router.Group("/v1/users")
	{
		users.POST("", r.users.Register)
		users.GET("/:userId", requireAuth, r.users.GetUser)
		users.PATCH("/:userId", requireAuth, r.users.UpdateProfile)
		users.DELETE("/:userId", requireAuth, r.users.DeleteAccount)
		users.POST("/:userId/password", requireAuth, r.users.ChangePassword)
		users.GET("/:userId/dashboard", requireAuth, r.users.GetDashboard)
	}

	router.POST("/v1/session", r.auth.Login)
	router.DELETE("/v1/session", middleware.OptionalAuthMiddleware(r.tokens), r.auth.Logout)

	resets := router.Group("/v1/password-resets")
	{
		resets.POST("", r.resets.Request)
		resets.GET("/:userId/:token", r.resets.Verify)
		resets.POST("/:userId/:token", r.resets.Complete)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
