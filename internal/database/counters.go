package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterDocument struct {
	ID    string `bson:"_id"`
	Value int64  `bson:"value"`
}

// CounterSequencer hands out order sequences from the counters collection. Each
// prefix is one document advanced with an upserting $inc, so two callers never
// observe the same value.
type CounterSequencer struct {
	coll *mongo.Collection
}

func NewCounterSequencer(db *mongo.Database) *CounterSequencer {
	return &CounterSequencer{coll: db.Collection(countersCollection)}
}

func (s *CounterSequencer) Next(ctx context.Context, prefix string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": prefix},
		bson.M{"$inc": bson.M{"value": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Value, nil
}
