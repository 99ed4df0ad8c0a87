package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/database"
	"habitta/internal/models"
)

type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=50"`
	Slug        string `json:"slug" binding:"omitempty,max=50"`
	Description string `json:"description" binding:"max=200"`
	Icon        string `json:"icon"`
	Color       string `json:"color" binding:"omitempty,hexcolor"`
	IsActive    *bool  `json:"isActive"`
	IsVisible   *bool  `json:"isVisible"`
	SortOrder   int    `json:"sortOrder"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=50"`
	Description *string `json:"description" binding:"omitempty,max=200"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color" binding:"omitempty,hexcolor"`
	IsActive    *bool   `json:"isActive"`
	IsVisible   *bool   `json:"isVisible"`
	SortOrder   *int    `json:"sortOrder"`
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

/*
GET /api/admin/categories
- every category, active or not
- ?isActive=true|false narrows the list
*/
func GetAllCategories(categories CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/categories"
		defer handlePanic(c, route)

		var active *bool
		if raw := strings.TrimSpace(c.Query("isActive")); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid isActive")
				return
			}
			active = &v
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, err := categories.All(ctx, active)
		if err != nil {
			apiLog().Error().Err(err).Str("route", route).Msg("list categories failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": list})
	}
}

/*
POST /api/admin/categories
- slug derived from the name when omitted; duplicates rejected
*/
func CreateCategory(categories CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/categories"
		defer handlePanic(c, route)

		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		slug := models.Slugify(req.Slug)
		if slug == "" {
			slug = models.Slugify(name)
		}

		category := models.Category{
			Name:        name,
			Slug:        slug,
			Description: strings.TrimSpace(req.Description),
			Icon:        strings.TrimSpace(req.Icon),
			Color:       strings.TrimSpace(req.Color),
			IsActive:    boolOrDefault(req.IsActive, true),
			IsVisible:   boolOrDefault(req.IsVisible, true),
			SortOrder:   req.SortOrder,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := categories.Create(ctx, &category); err != nil {
			if errors.Is(err, database.ErrCategoryExists) {
				respondWithError(c, http.StatusConflict, route, "category already exists")
				return
			}
			apiLog().Error().Err(err).Str("route", route).Msg("create category failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusCreated, category)
	}
}

/*
PUT /api/admin/categories/:id
*/
func UpdateCategory(categories CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/categories/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		update := bson.M{}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Icon != nil {
			update["icon"] = strings.TrimSpace(*req.Icon)
		}
		if req.Color != nil {
			update["color"] = strings.TrimSpace(*req.Color)
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}
		if req.IsVisible != nil {
			update["isVisible"] = *req.IsVisible
		}
		if req.SortOrder != nil {
			update["sortOrder"] = *req.SortOrder
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := categories.Update(ctx, id, update)
		switch {
		case errors.Is(err, database.ErrCategoryNotFound):
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		case errors.Is(err, database.ErrCategoryExists):
			respondWithError(c, http.StatusConflict, route, "category already exists")
			return
		case err != nil:
			apiLog().Error().Err(err).Str("route", route).Msg("update category failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /api/admin/categories/:id
- soft delete
*/
func DeleteCategory(categories CategoryRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/categories/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := categories.Deactivate(ctx, id); err != nil {
			if errors.Is(err, database.ErrCategoryNotFound) {
				respondWithError(c, http.StatusNotFound, route, "category not found")
				return
			}
			apiLog().Error().Err(err).Str("route", route).Msg("delete category failed")
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
