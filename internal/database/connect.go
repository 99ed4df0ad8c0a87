package database

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"habitta/internal/logging"
)

const (
	ordersCollection        = "orders"
	productsCollection      = "products"
	customersCollection     = "customers"
	countersCollection      = "counters"
	categoriesCollection    = "categories"
	refreshTokensCollection = "refresh_tokens"

	connectTimeout = 10 * time.Second
)

// Connect dials MongoDB and waits for the primary to answer a ping.
func Connect(uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, errors.New("database: MONGO_URI is empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	dbLog := logging.Component("DB")
	dbLog.Info().Msg("mongodb connection established")
	return client, nil
}

// Ping reports whether the primary is reachable.
func Ping(ctx context.Context, db *mongo.Database) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return db.Client().Ping(checkCtx, readpref.Primary())
}
