package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habitta/internal/logging"
)

func EnsureProductIndexes(db *mongo.Database) error {
	return ensureIndexes(db, productsCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("category_active"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}},
			Options: options.Index().SetName("name_description_text"),
		},
	})
}

func EnsureCustomerIndexes(db *mongo.Database) error {
	return ensureIndexes(db, customersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("email_unique").SetUnique(true),
		},
	})
}

// EnsureOrderIndexes creates the order indexes. orderNumber_unique is what keeps
// concurrently generated order numbers distinct.
func EnsureOrderIndexes(db *mongo.Database) error {
	return ensureIndexes(db, ordersCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().SetName("orderNumber_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "customer", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customer_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "customerInfo.email", Value: 1}},
			Options: options.Index().SetName("customerEmail_index"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}},
			Options: options.Index().SetName("status_index"),
		},
		{
			Keys:    bson.D{{Key: "payment.status", Value: 1}},
			Options: options.Index().SetName("paymentStatus_index"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
}

func ensureIndexes(db *mongo.Database, collection string, models []mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := logging.Component("DB").With().Str("collection", collection).Logger()

	logger.Info().Int("count", len(models)).Msg("creating indexes")
	names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
	if err != nil {
		logger.Error().Err(err).Msg("index creation failed")
		return err
	}
	logger.Info().Strs("indexes", names).Msg("indexes created")
	return nil
}

func EnsureCategoryIndexes(db *mongo.Database) error {
	return ensureIndexes(db, categoriesCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName("slug_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "sortOrder", Value: 1}},
			Options: options.Index().SetName("sortOrder_index"),
		},
	})
}

func EnsureRefreshTokenIndexes(db *mongo.Database) error {
	return ensureIndexes(db, refreshTokensCollection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "tokenHash", Value: 1}},
			Options: options.Index().SetName("tokenHash_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetName("expiresAt_ttl").SetExpireAfterSeconds(0),
		},
	})
}
