package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"habitta/internal/orders"
	"habitta/internal/pricing"
)

// respondOrderError maps order service failures onto HTTP responses.
func respondOrderError(c *gin.Context, route string, err error) {
	var fieldErr *pricing.ValidationError
	var adjErr *pricing.InvalidAdjustmentError

	switch {
	case errors.As(err, &fieldErr):
		apiLog().Warn().Str("route", route).Err(err).Msg("validation failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fieldErr.Message, "field": fieldErr.Field})
	case errors.As(err, &adjErr):
		apiLog().Warn().Str("route", route).Err(err).Msg("validation failed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "must not be negative", "field": adjErr.Field})
	case errors.Is(err, orders.ErrInvalidStatus):
		respondWithError(c, http.StatusBadRequest, route, "invalid status")
	case errors.Is(err, orders.ErrProductNotFound):
		respondWithError(c, http.StatusBadRequest, route, "product not found")
	case errors.Is(err, orders.ErrValidation):
		respondWithError(c, http.StatusBadRequest, route, err.Error())
	case errors.Is(err, orders.ErrNotCancellable):
		respondWithError(c, http.StatusBadRequest, route, "order can no longer be cancelled")
	case errors.Is(err, orders.ErrOrderNotFound):
		respondWithError(c, http.StatusNotFound, route, "order not found")
	case errors.Is(err, orders.ErrUnauthorized):
		respondWithError(c, http.StatusUnauthorized, route, "unauthorized")
	case errors.Is(err, orders.ErrForbidden):
		respondWithError(c, http.StatusForbidden, route, "forbidden")
	default:
		apiLog().Error().Str("route", route).Err(err).Msg("order operation failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "db error"})
	}
}
