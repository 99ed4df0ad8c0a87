package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habitta/internal/models"
)

var (
	ErrCategoryNotFound = errors.New("category: not found")
	ErrCategoryExists   = errors.New("category: already exists")
)

type CategoryStore struct {
	coll *mongo.Collection
}

func NewCategoryStore(db *mongo.Database) *CategoryStore {
	return &CategoryStore{coll: db.Collection(categoriesCollection)}
}

// Visible lists the categories shown on the storefront, in display order.
func (s *CategoryStore) Visible(ctx context.Context) ([]models.Category, error) {
	return s.find(ctx, bson.M{"isActive": true, "isVisible": true})
}

// All lists every category; active filters on isActive when set.
func (s *CategoryStore) All(ctx context.Context, active *bool) ([]models.Category, error) {
	filter := bson.M{}
	if active != nil {
		filter["isActive"] = *active
	}
	return s.find(ctx, filter)
}

func (s *CategoryStore) find(ctx context.Context, filter bson.M) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	categories := make([]models.Category, 0)
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *CategoryStore) Create(ctx context.Context, category *models.Category) error {
	now := time.Now()
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	category.CreatedAt = now
	category.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, category); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrCategoryExists, category.Slug)
		}
		return err
	}
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Category, error) {
	set["updatedAt"] = time.Now()

	var updated models.Category
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Category{}, ErrCategoryNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return models.Category{}, ErrCategoryExists
	}
	if err != nil {
		return models.Category{}, err
	}
	return updated, nil
}

// Deactivate hides the category; products keep their category value.
func (s *CategoryStore) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
