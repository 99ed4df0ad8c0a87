package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/database"
	"habitta/internal/models"
)

const maxMultipartMemory = 32 << 20

/*
POST /api/admin/products/:id/images
- multipart/form-data: image (file), alt (optional)
- the first image of a product becomes its main image
*/
func UploadProductImage(catalog ProductCatalog, publicRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products/:id/images"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondWithError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}
		if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid multipart body")
			return
		}

		file, err := c.FormFile("image")
		if errors.Is(err, http.ErrMissingFile) {
			respondWithError(c, http.StatusBadRequest, route, "image required")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if _, err := catalog.ProductByID(ctx, id); err != nil {
			respondProductError(c, route, err)
			return
		}

		url, err := saveImage(publicRoot, file)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		product, err := catalog.AddImage(ctx, id, models.ProductImage{
			URL: url,
			Alt: strings.TrimSpace(c.PostForm("alt")),
		})
		if err != nil {
			if rmErr := safeDeleteUpload(publicRoot, url); rmErr != nil {
				apiLog().Warn().Err(rmErr).Str("url", url).Msg("orphaned upload left on disk")
			}
			respondProductError(c, route, err)
			return
		}

		apiLog().Info().Str("product", id.Hex()).Str("url", url).Msg("product image added")
		c.JSON(http.StatusCreated, product)
	}
}

/*
DELETE /api/admin/products/:id/images?url=/uploads/products/x.jpg
*/
func DeleteProductImage(catalog ProductCatalog, publicRoot string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id/images"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}
		url := strings.TrimSpace(c.Query("url"))
		if url == "" {
			respondWithError(c, http.StatusBadRequest, route, "url required")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.RemoveImage(ctx, id, url)
		if err != nil {
			respondProductError(c, route, err)
			return
		}

		if err := safeDeleteUpload(publicRoot, url); err != nil {
			apiLog().Warn().Err(err).Str("url", url).Msg("image file not removed")
		}

		c.JSON(http.StatusOK, product)
	}
}

func respondProductError(c *gin.Context, route string, err error) {
	switch {
	case errors.Is(err, database.ErrProductNotFound):
		respondWithError(c, http.StatusNotFound, route, "product not found")
	case errors.Is(err, database.ErrDuplicateSlug):
		respondWithError(c, http.StatusConflict, route, "slug already exists")
	default:
		apiLog().Error().Err(err).Str("route", route).Msg("product operation failed")
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}
