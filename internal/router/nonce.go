package router

import (
	"survey-go/internal/handlers"
	"survey-go/internal/utils"

	"github.com/gin-gonic/gin"
)

const nonceBytes = 16

// NonceMiddleware creates a new cryptographic nonce for each request
// and adds it to the Gin context for use in headers and templates.
func NonceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		nonce, err := utils.GenerateSecureToken(nonceBytes)
		if err != nil {
			panic("failed to generate CSP nonce")
		}
		c.Set(handlers.CSPNonceContextKey, nonce)
		c.Next()
	}
}
