package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/cityhall/internal/auth"
)

// PrincipalKey is the context key for the authenticated principal.
const PrincipalKey = "principal"

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	Validate(raw string) (*auth.Principal, error)
}

// Authenticate requires a valid bearer token and stores its principal in the
// context. The request logger is re-tagged with the actor.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing bearer token")
			return
		}

		principal, err := tokens.Validate(strings.TrimSpace(raw))
		if err != nil {
			message := "Invalid bearer token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "Bearer token has expired"
			}
			if log := GetLogger(c); log != nil {
				log.Warn("Authentication failed", map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				})
			}
			abortWithError(c, http.StatusUnauthorized, "UNAUTHENTICATED", message)
			return
		}

		c.Set(PrincipalKey, principal)
		if log := GetLogger(c); log != nil {
			c.Set(LoggerKey, log.WithActor(principal.UserID))
		}

		c.Next()
	}
}

// RequireRoles rejects principals that hold none of roles. It applies the
// same gate the services apply.
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Require(GetPrincipal(c), roles...); err != nil {
			abortWithError(c, http.StatusForbidden, "UNAUTHORIZED", "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the principal from the Gin context.
// Returns nil for unauthenticated requests.
func GetPrincipal(c *gin.Context) *auth.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}
