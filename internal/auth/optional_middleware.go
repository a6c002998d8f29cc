package auth

import (
	"github.com/gin-gonic/gin"
)

// OptionalMiddleware resolves the caller when a valid token is present,
// but does not fail if the token is missing or invalid.
func (a *Authenticator) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := a.Authenticate(c); err == nil {
			setUser(c, user)
		}
		c.Next()
	}
}
