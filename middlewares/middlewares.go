package middlewares

import (
	"errors"
	"net/http"

	"conduit/auth"
	"conduit/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenAuthMiddleware rejects requests without a valid "Token <jwt>" header.
// The subject must still resolve to a live user row.
func TokenAuthMiddleware(tokens *auth.TokenService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := tokens.ExtractTokenID(c.Request)
		if err != nil {
			body := gin.H{"errors": gin.H{"user": []string{"credentials could not be validated"}}}
			if errors.Is(err, auth.ErrMissingHeader) {
				body = gin.H{"errors": gin.H{"header": []string{"missing authorization header"}}}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, body)
			return
		}

		var user models.User
		if err := db.Select("id").First(&user, userID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": gin.H{"user": []string{"credentials could not be validated"}},
			})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves the identity when a valid token is present
// and lets everything else through as anonymous. Invalid or stale tokens are
// ignored, not rejected.
func OptionalAuthMiddleware(tokens *auth.TokenService, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := tokens.ExtractTokenID(c.Request)
		if err == nil {
			var user models.User
			if err := db.Select("id").First(&user, userID).Error; err == nil {
				c.Set("userID", userID)
			}
		}
		c.Next()
	}
}

// CORSMiddleware lets browser frontends talk to the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Vary", "Origin")
		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, Content-Length, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"POST, GET, OPTIONS, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
