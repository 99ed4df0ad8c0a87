package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/models"
)

/* =======================
   REQUEST MODELS
======================= */

type ProductCreateRequest struct {
	Name             string                  `json:"name" binding:"required,max=100"`
	Slug             string                  `json:"slug"`
	Description      string                  `json:"description" binding:"required,max=2000"`
	Category         string                  `json:"category" binding:"required"`
	HotelPartner     string                  `json:"hotelPartner" binding:"required"`
	Material         string                  `json:"material" binding:"required"`
	Price            models.Decimal          `json:"price"`
	OriginalPrice    *models.Decimal         `json:"originalPrice"`
	PriceUnit        string                  `json:"priceUnit" binding:"omitempty,oneof=metro unidade m2"`
	Dimensions       *models.Dimensions      `json:"dimensions"`
	AdditionalPrices models.AdditionalPrices `json:"additionalPrices"`
	IsActive         *bool                   `json:"isActive"`
	InStock          *bool                   `json:"inStock"`
	IsPopular        bool                    `json:"isPopular"`
}

type ProductUpdateRequest struct {
	Name               *string                  `json:"name" binding:"omitempty,max=100"`
	Slug               *string                  `json:"slug"`
	Description        *string                  `json:"description" binding:"omitempty,max=2000"`
	Category           *string                  `json:"category"`
	HotelPartner       *string                  `json:"hotelPartner"`
	Material           *string                  `json:"material"`
	Price              *models.Decimal          `json:"price"`
	OriginalPrice      *models.Decimal          `json:"originalPrice"`
	ClearOriginalPrice bool                     `json:"clearOriginalPrice"`
	PriceUnit          *string                  `json:"priceUnit" binding:"omitempty,oneof=metro unidade m2"`
	Dimensions         *models.Dimensions       `json:"dimensions"`
	AdditionalPrices   *models.AdditionalPrices `json:"additionalPrices"`
	IsActive           *bool                    `json:"isActive"`
	InStock            *bool                    `json:"inStock"`
	IsPopular          *bool                    `json:"isPopular"`
}

/* =======================
   HELPERS
======================= */

func validCategory(category string) bool {
	return slices.Contains(models.ProductCategories, category)
}

func validAdditionalPrices(p models.AdditionalPrices) bool {
	for _, v := range []*models.Decimal{p.Sheer, p.ExpressInstallation, p.WallMounting} {
		if v != nil && v.IsNegative() {
			return false
		}
	}
	return true
}

func validDimensions(d models.Dimensions) bool {
	return d.MinWidth > 0 && d.MinHeight > 0 && d.MaxWidth >= d.MinWidth && d.MaxHeight >= d.MinHeight
}

/* =======================
   GET (ADMIN) – ONE
======================= */

// GetProductByID returns a product regardless of its active flag.
func GetProductByID(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		product, err := catalog.ProductByID(ctx, id)
		if err != nil {
			respondProductError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, product)
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		var req ProductCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		category := strings.TrimSpace(req.Category)
		if !validCategory(category) {
			respondWithError(c, http.StatusBadRequest, route, "invalid category")
			return
		}
		if err := validatePriceFields(req.Price, req.OriginalPrice); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if !validAdditionalPrices(req.AdditionalPrices) {
			respondWithError(c, http.StatusBadRequest, route, "additionalPrices must be zero or greater")
			return
		}

		dimensions := models.DefaultDimensions()
		if req.Dimensions != nil {
			if !validDimensions(*req.Dimensions) {
				respondWithError(c, http.StatusBadRequest, route, "invalid dimensions")
				return
			}
			dimensions = *req.Dimensions
		}

		priceUnit := req.PriceUnit
		if priceUnit == "" {
			priceUnit = models.PriceUnits[0]
		}

		product := models.Product{
			Name:             name,
			Slug:             models.Slugify(req.Slug),
			Description:      strings.TrimSpace(req.Description),
			Category:         category,
			HotelPartner:     strings.TrimSpace(req.HotelPartner),
			Material:         strings.TrimSpace(req.Material),
			Price:            req.Price,
			OriginalPrice:    req.OriginalPrice,
			PriceUnit:        priceUnit,
			Dimensions:       dimensions,
			Images:           []models.ProductImage{},
			AdditionalPrices: req.AdditionalPrices,
			IsActive:         boolOrDefault(req.IsActive, true),
			InStock:          boolOrDefault(req.InStock, true),
			IsPopular:        req.IsPopular,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.CreateProduct(ctx, &product); err != nil {
			respondProductError(c, route, err)
			return
		}

		apiLog().Info().Str("product", product.ID.Hex()).Str("slug", product.Slug).Msg("product created")
		c.JSON(http.StatusCreated, product)
	}
}

/* =======================
   UPDATE
======================= */

// UpdateProduct applies a partial edit. Orders already placed keep the snapshot
// taken at checkout.
func UpdateProduct(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		var req ProductUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		existing, err := catalog.ProductByID(ctx, id)
		if err != nil {
			respondProductError(c, route, err)
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
		if req.Slug != nil {
			slug := models.Slugify(*req.Slug)
			if slug == "" {
				respondWithError(c, http.StatusBadRequest, route, "invalid slug")
				return
			}
			update["slug"] = slug
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.Category != nil {
			category := strings.TrimSpace(*req.Category)
			if !validCategory(category) {
				respondWithError(c, http.StatusBadRequest, route, "invalid category")
				return
			}
			update["category"] = category
		}
		if req.HotelPartner != nil {
			update["hotelPartner"] = strings.TrimSpace(*req.HotelPartner)
		}
		if req.Material != nil {
			update["material"] = strings.TrimSpace(*req.Material)
		}
		if req.PriceUnit != nil {
			update["priceUnit"] = *req.PriceUnit
		}
		if req.Dimensions != nil {
			if !validDimensions(*req.Dimensions) {
				respondWithError(c, http.StatusBadRequest, route, "invalid dimensions")
				return
			}
			update["dimensions"] = *req.Dimensions
		}
		if req.AdditionalPrices != nil {
			if !validAdditionalPrices(*req.AdditionalPrices) {
				respondWithError(c, http.StatusBadRequest, route, "additionalPrices must be zero or greater")
				return
			}
			update["additionalPrices"] = *req.AdditionalPrices
		}
		if req.IsActive != nil {
			update["isActive"] = *req.IsActive
		}
		if req.InStock != nil {
			update["inStock"] = *req.InStock
		}
		if req.IsPopular != nil {
			update["isPopular"] = *req.IsPopular
		}

		prices, err := resolvePriceUpdate(existing.Price, existing.OriginalPrice, priceUpdateInput{
			Price:         req.Price,
			OriginalPrice: req.OriginalPrice,
			ClearOriginal: req.ClearOriginalPrice,
		})
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if prices.SetPrice {
			update["price"] = prices.Price
		}
		if prices.SetOriginal {
			if prices.OriginalPrice == nil {
				update["originalPrice"] = nil
			} else {
				update["originalPrice"] = *prices.OriginalPrice
			}
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		updated, err := catalog.UpdateProduct(ctx, id, update)
		if err != nil {
			respondProductError(c, route, err)
			return
		}

		apiLog().Info().Str("product", id.Hex()).Strs("fields", updatedFields(update)).Msg("product updated")
		c.JSON(http.StatusOK, updated)
	}
}

func updatedFields(update bson.M) []string {
	keys := make([]string, 0, len(update))
	for key := range update {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

/* =======================
   DELETE (SOFT)
======================= */

func DeleteProduct(catalog ProductCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid id")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := catalog.SoftDeleteProduct(ctx, id); err != nil {
			respondProductError(c, route, err)
			return
		}

		apiLog().Info().Str("product", id.Hex()).Msg("product deleted")
		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
