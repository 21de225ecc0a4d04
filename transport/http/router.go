package http

import (
	"github.com/gin-gonic/gin"
	"github.com/padimaster/spots/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, handlers *Handlers) *gin.Engine {
	router := gin.Default()

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", handlers.Challenge)
		auth.POST("/complete", handlers.Complete)
		auth.POST("/logout", handlers.Logout)
	}

	// Public API routes
	router.GET("/api/web3/get-balance", handlers.GetBalance)
	router.GET("/events/featured", handlers.FeaturedEvents)

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
		api.POST("/initiate-payment", handlers.InitiatePayment)
		api.POST("/confirm-payment", handlers.ConfirmPayment)
	}

	return router
}
