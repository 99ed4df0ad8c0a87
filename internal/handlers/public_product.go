package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"habitta/internal/database"
	"habitta/internal/models"
)

const popularProductsLimit = 6

func parseOptionalPrice(raw string) (*models.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	v := models.NewDecimal(d)
	return &v, nil
}

/*
GET /api/products
- filters: category, search, minPrice, maxPrice, popular, inStock
- sort: newest (default), price_asc, price_desc
*/
func GetProducts(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		minPrice, err := parseOptionalPrice(c.Query("minPrice"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid minPrice")
			return
		}
		maxPrice, err := parseOptionalPrice(c.Query("maxPrice"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid maxPrice")
			return
		}

		popular, _ := strconv.ParseBool(c.Query("popular"))
		inStock, _ := strconv.ParseBool(c.Query("inStock"))

		ctx, cancel := requestContext(c)
		defer cancel()

		products, total, err := catalog.ListProducts(ctx, database.ProductQuery{
			Category: strings.TrimSpace(c.Query("category")),
			Search:   strings.TrimSpace(c.Query("search")),
			MinPrice: minPrice,
			MaxPrice: maxPrice,
			Popular:  popular,
			InStock:  inStock,
			Sort:     c.DefaultQuery("sort", database.ProductSortNewest),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			apiLog().Error().Err(err).Str("route", route).Msg("list products failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"products":   products,
			"pagination": paginationBody(page, limit, total),
		})
	}
}

// GetPopularProducts returns the storefront highlights.
func GetPopularProducts(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/popular"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		products, _, err := catalog.ListProducts(ctx, database.ProductQuery{
			Popular: true,
			Sort:    database.ProductSortPopular,
			Page:    1,
			Limit:   popularProductsLimit,
		})
		if err != nil {
			apiLog().Error().Err(err).Str("route", route).Msg("list popular products failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, products)
	}
}

// GetProduct resolves a slug or an id.
func GetProduct(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:slug"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.FindProduct(ctx, strings.TrimSpace(c.Param("slug")))
		if errors.Is(err, database.ErrProductNotFound) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			apiLog().Error().Err(err).Str("route", route).Msg("find product failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, product)
	}
}
