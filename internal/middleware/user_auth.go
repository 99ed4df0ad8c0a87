package middleware

import (
	"github.com/gin-gonic/gin"

	"habitta/internal/logging"
)

// OptionalAuth attaches the caller's identity when a valid token is present and
// otherwise lets the request through as a guest. Invalid tokens are logged and
// ignored.
func OptionalAuth(secret string) gin.HandlerFunc {
	logger := logging.Component("AUTH")

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		actor, claims, err := authenticate(header, secret)
		if err != nil {
			logger.Info().Err(err).Msg("ignoring invalid token on optional auth")
			c.Next()
			return
		}

		c.Set(claimsKey, claims)
		c.Set(actorKey, actor)
		c.Next()
	}
}
