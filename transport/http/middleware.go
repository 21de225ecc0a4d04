package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/padimaster/spots/core"
	"github.com/padimaster/spots/service"
)

// AuthMiddleware creates middleware that validates wallet-session tokens
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := auth[7:]

		session, err := authService.ValidateSessionToken(token)
		if err != nil {
			if errors.Is(err, core.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		// Set the user address in the context
		c.Set("userAddress", session.Address)
		c.Set("userName", session.Username)

		c.Next()
	}
}
