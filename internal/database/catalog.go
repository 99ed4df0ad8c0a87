package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habitta/internal/models"
	"habitta/internal/orders"
	"habitta/internal/pricing"
)

var (
	ErrProductNotFound = errors.New("catalog: product not found")
	ErrDuplicateSlug   = errors.New("catalog: slug already exists")
)

const (
	ProductSortNewest    = "newest"
	ProductSortPriceAsc  = "price_asc"
	ProductSortPriceDesc = "price_desc"
	ProductSortPopular   = "popular"
)

// ProductQuery narrows the public catalog listing. Limit 0 returns everything.
type ProductQuery struct {
	Category string
	Search   string
	MinPrice *models.Decimal
	MaxPrice *models.Decimal
	Popular  bool
	InStock  bool
	Sort     string
	Page     int64
	Limit    int64
}

// CatalogStore reads and writes the products collection. It also implements
// orders.CatalogStore.
type CatalogStore struct {
	coll  *mongo.Collection
	clock func() time.Time
}

func NewCatalogStore(db *mongo.Database) *CatalogStore {
	return &CatalogStore{coll: db.Collection(productsCollection), clock: time.Now}
}

func visibleProducts() bson.M {
	return bson.M{
		"isActive":  true,
		"isDeleted": bson.M{"$ne": true},
	}
}

// GetProduct returns the pricing snapshot of an active product.
func (s *CatalogStore) GetProduct(ctx context.Context, id string) (pricing.ProductSnapshot, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return pricing.ProductSnapshot{}, orders.ErrProductNotFound
	}

	filter := visibleProducts()
	filter["_id"] = objectID

	var product models.Product
	err = s.coll.FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pricing.ProductSnapshot{}, orders.ErrProductNotFound
	}
	if err != nil {
		return pricing.ProductSnapshot{}, err
	}
	return orders.SnapshotFromProduct(product), nil
}

func (s *CatalogStore) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, int64, error) {
	filter := visibleProducts()
	if category := strings.TrimSpace(q.Category); category != "" && category != "todos" {
		filter["category"] = category
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := regexp.QuoteMeta(search)
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
			{"material": bson.M{"$regex": pattern, "$options": "i"}},
			{"hotelPartner": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}
	if q.Popular {
		filter["isPopular"] = true
	}
	if q.InStock {
		filter["inStock"] = true
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(productSort(q.Sort))
	if q.Limit > 0 {
		page := max(q.Page, 1)
		findOptions.SetSkip((page - 1) * q.Limit).SetLimit(q.Limit)
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Decorate()
	}
	return products, total, nil
}

func productSort(sort string) bson.D {
	switch sort {
	case ProductSortPriceAsc:
		return bson.D{{Key: "price", Value: 1}}
	case ProductSortPriceDesc:
		return bson.D{{Key: "price", Value: -1}}
	case ProductSortPopular:
		return bson.D{{Key: "isPopular", Value: -1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

// FindProduct resolves a public identifier, either an ObjectID hex or a slug.
func (s *CatalogStore) FindProduct(ctx context.Context, identifier string) (models.Product, error) {
	identifier = strings.TrimSpace(identifier)
	filter := visibleProducts()
	if id, err := primitive.ObjectIDFromHex(identifier); err == nil {
		filter["_id"] = id
	} else {
		filter["slug"] = strings.ToLower(identifier)
	}
	return s.findOne(ctx, filter)
}

// ProductByID loads any non-deleted product, active or not.
func (s *CatalogStore) ProductByID(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	return s.findOne(ctx, bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}})
}

func (s *CatalogStore) findOne(ctx context.Context, filter bson.M) (models.Product, error) {
	var product models.Product
	err := s.coll.FindOne(ctx, filter).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, err
	}
	product.Decorate()
	return product, nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, product *models.Product) error {
	now := s.clock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.Slug == "" {
		product.Slug = models.Slugify(product.Name)
	}
	if product.Images == nil {
		product.Images = []models.ProductImage{}
	}
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, product); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSlug, product.Slug)
		}
		return err
	}
	product.Decorate()
	return nil
}

// UpdateProduct applies a $set of the given fields. Placed orders keep their own
// snapshot and are never touched.
func (s *CatalogStore) UpdateProduct(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Product, error) {
	if len(set) == 0 {
		return s.ProductByID(ctx, id)
	}
	set["updatedAt"] = s.clock()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product models.Product
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": set},
		opts,
	).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Product{}, ErrProductNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.Product{}, ErrDuplicateSlug
	}
	if err != nil {
		return models.Product{}, err
	}
	product.Decorate()
	return product, nil
}

// AddImage appends an image; the first image of a product becomes its main one.
func (s *CatalogStore) AddImage(ctx context.Context, id primitive.ObjectID, image models.ProductImage) (models.Product, error) {
	product, err := s.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if len(product.Images) == 0 {
		image.IsMain = true
	}
	images := append(product.Images, image)
	return s.UpdateProduct(ctx, id, bson.M{"images": images})
}

// RemoveImage drops the image with the given URL. It reports ErrProductNotFound
// when the product has no such image.
func (s *CatalogStore) RemoveImage(ctx context.Context, id primitive.ObjectID, url string) (models.Product, error) {
	product, err := s.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	idx := slices.IndexFunc(product.Images, func(img models.ProductImage) bool { return img.URL == url })
	if idx < 0 {
		return models.Product{}, ErrProductNotFound
	}
	wasMain := product.Images[idx].IsMain
	images := slices.Delete(product.Images, idx, idx+1)
	if wasMain && len(images) > 0 {
		images[0].IsMain = true
	}
	return s.UpdateProduct(ctx, id, bson.M{"images": images})
}

// SoftDeleteProduct deactivates the product and marks it deleted.
func (s *CatalogStore) SoftDeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	now := s.clock()
	res, err := s.coll.UpdateOne(
		ctx,
		bson.M{"_id": id, "isDeleted": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{
			"isActive":  false,
			"isDeleted": true,
			"deletedAt": now,
			"updatedAt": now,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
