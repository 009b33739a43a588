package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/grievance/authz"
	"github.com/campusgrid/grievance/services"
)

// AuthMiddleware validates bearer tokens and loads the principal with
// fresh role and department data. Authorization always runs against
// the database record, not the token claims, so a role change takes
// effect on the next request.
type AuthMiddleware struct {
	Tokens     *services.TokenService
	Principals *services.PrincipalService
}

func NewAuthMiddleware(tokens *services.TokenService, principals *services.PrincipalService) *AuthMiddleware {
	return &AuthMiddleware{Tokens: tokens, Principals: principals}
}

// RequireAuth validates the access token and stores the principal.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		token, err := services.ExtractTokenFromHeader(authHeader)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		claims, err := m.Tokens.ValidateAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token: " + err.Error()})
			c.Abort()
			return
		}

		principal, err := m.Principals.GetPrincipal(c.Request.Context(), claims.PrincipalID)
		if err != nil {
			log.Printf("AUTH FAILED - token valid but principal %s not loadable: %v", claims.PrincipalID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown principal"})
			c.Abort()
			return
		}
		if !principal.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account disabled"})
			c.Abort()
			return
		}

		authz.SetPrincipal(c, principal)
		c.Next()
	}
}
