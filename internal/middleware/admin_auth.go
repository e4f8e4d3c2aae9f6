package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AdminAuth protects the /admin/* surface with an address-allowlist bearer
// token: the bearer token itself IS the caller's address, and it must
// appear in the configured allowlist. If the allowlist is empty, every
// request is rejected — there is no implicit development bypass for admin
// routes, unlike the public surface.
func AdminAuth(allowlist []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowlist))
	for _, addr := range allowlist {
		allowed[strings.ToLower(strings.TrimSpace(addr))] = true
	}

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		owner := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		owner = strings.TrimPrefix(owner, " ")

		if owner == "" || !allowed[strings.ToLower(owner)] {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized: address not in admin allowlist",
				"hint":  "provide the allowlisted address as a Bearer token",
			})
			c.Abort()
			return
		}

		c.Set("adminOwner", owner)
		c.Next()
	}
}
