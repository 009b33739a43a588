package authz

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusgrid/grievance/db"
)

// ContextKey is the type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPrincipal holds the authenticated *db.Principal
	ContextKeyPrincipal ContextKey = "principal"
)

// SetPrincipal stores the authenticated principal in the Gin context.
// Called by the authentication middleware after token verification.
func SetPrincipal(c *gin.Context, p *db.Principal) {
	c.Set(string(ContextKeyPrincipal), p)
}

// PrincipalFromContext retrieves the authenticated principal, or nil.
func PrincipalFromContext(c *gin.Context) *db.Principal {
	v, ok := c.Get(string(ContextKeyPrincipal))
	if !ok {
		return nil
	}
	p, ok := v.(*db.Principal)
	if !ok {
		return nil
	}
	return p
}

// Require returns middleware enforcing the role gate for action. The
// gate runs before the handler touches any entity, so a role mismatch
// is always 403 without leaking entity existence. Scope checks stay in
// the services.
func Require(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFromContext(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		if !Can(p, action) {
			log.Printf("AUTHZ DENIED - Principal %s (role %s/%s) cannot perform %s", p.ID, p.Role, p.RoleType, action)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "You don't have permission to perform this action",
			})
			return
		}

		c.Next()
	}
}

// RequireAny returns middleware that passes when the principal clears
// the role gate for at least one of the given actions. Used on routes
// shared by several roles whose scoping differs downstream.
func RequireAny(actions ...Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFromContext(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "User not authenticated",
			})
			return
		}

		for _, action := range actions {
			if Can(p, action) {
				c.Next()
				return
			}
		}

		log.Printf("AUTHZ DENIED - Principal %s (role %s/%s) cleared none of %v", p.ID, p.Role, p.RoleType, actions)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to perform this action",
		})
	}
}
