package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"habitta/internal/logging"
	"habitta/internal/models"
	"habitta/internal/orders"
)

const (
	claimsKey = "claims"
	actorKey  = "actor"
)

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
	errTokenInvalid = errors.New("invalid token")
)

// AuthGuard rejects requests without a valid bearer token. When roles are given the
// token's role must be one of them.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	logger := logging.Component("AUTH")

	return func(c *gin.Context) {
		actor, claims, err := authenticate(c.GetHeader("Authorization"), secret)
		if err != nil {
			logger.Warn().Err(err).Str("path", c.FullPath()).Msg("request rejected")
			message := "unauthorized"
			if errors.Is(err, errMissingToken) {
				message = "missing token"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
			return
		}

		if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, actor.Role) {
			logger.Warn().Str("role", actor.Role).Str("path", c.FullPath()).Msg("role not allowed")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(claimsKey, claims)
		c.Set(actorKey, actor)
		c.Next()
	}
}

// StaffAuth admits admins and managers.
func StaffAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, models.RoleAdmin, models.RoleManager)
}

// ActorFrom returns the identity stored by AuthGuard or OptionalAuth, or a guest.
func ActorFrom(c *gin.Context) orders.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(orders.Actor); ok {
			return actor
		}
	}
	return orders.Guest
}

func authenticate(header, secret string) (orders.Actor, jwt.MapClaims, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		return orders.Guest, nil, errMissingToken
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return orders.Guest, nil, errTokenFormat
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return orders.Guest, nil, errors.Join(errTokenInvalid, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return orders.Guest, nil, errTokenInvalid
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return orders.Guest, nil, errors.New("sub claim missing")
	}
	role, _ := claims["role"].(string)
	email, _ := claims["email"].(string)

	return orders.Actor{ID: subject, Role: role, Email: email}, claims, nil
}
