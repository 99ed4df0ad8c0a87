package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habitta/internal/models"
)

// AdminLogin is the dashboard login. Only admins and managers get a token;
// anyone else is answered as if the credentials were wrong.
func AdminLogin(customers CustomerRepository, issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/login"
		defer handlePanic(c, route)

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		staff, ok := authenticateCustomer(ctx, c, customers, route, req, models.RoleAdmin, models.RoleManager)
		if !ok {
			return
		}

		token, err := issuer.accessToken(staff, issuer.now())
		if err != nil {
			authLog().Error().Err(err).Msg("token generation failed")
			respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
			return
		}

		if err := customers.TouchLogin(ctx, staff.ID, issuer.now()); err != nil {
			authLog().Warn().Err(err).Str("customer", staff.ID.Hex()).Msg("last login not recorded")
		}

		authLog().Info().Str("customer", staff.ID.Hex()).Str("role", staff.Role).Msg("staff login succeeded")
		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  responseUser(staff),
		})
	}
}
