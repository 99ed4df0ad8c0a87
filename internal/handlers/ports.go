package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/database"
	"habitta/internal/models"
)

// ProductCatalog is the product persistence used by the catalog endpoints.
type ProductCatalog interface {
	ListProducts(ctx context.Context, q database.ProductQuery) ([]models.Product, int64, error)
	FindProduct(ctx context.Context, identifier string) (models.Product, error)
	ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error)
	SoftDeleteProduct(ctx context.Context, id primitive.ObjectID) error
	AddImage(ctx context.Context, id primitive.ObjectID, image models.ProductImage) (models.Product, error)
	RemoveImage(ctx context.Context, id primitive.ObjectID, url string) (models.Product, error)
}

type CategoryRepository interface {
	Visible(ctx context.Context) ([]models.Category, error)
	All(ctx context.Context, active *bool) ([]models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Category, error)
	Deactivate(ctx context.Context, id primitive.ObjectID) error
}

type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	FindByEmail(ctx context.Context, email string) (models.Customer, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Customer, error)
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Customer, error)
	TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type RefreshTokenRepository interface {
	Insert(ctx context.Context, token *models.RefreshToken) error
	Claim(ctx context.Context, hash string) (models.RefreshToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error
	RevokeByHash(ctx context.Context, hash string) error
}

var (
	_ ProductCatalog         = (*database.CatalogStore)(nil)
	_ CategoryRepository     = (*database.CategoryStore)(nil)
	_ CustomerRepository     = (*database.CustomerStore)(nil)
	_ RefreshTokenRepository = (*database.RefreshTokenStore)(nil)
)
