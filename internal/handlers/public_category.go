package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetCategories(categories CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/categories"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := categories.Visible(ctx)
		if err != nil {
			apiLog().Error().Err(err).Str("route", route).Msg("list categories failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		apiLog().Debug().Str("route", route).Int("count", len(list)).Msg("returning categories")
		c.JSON(http.StatusOK, list)
	}
}
