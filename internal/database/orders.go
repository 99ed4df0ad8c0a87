package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habitta/internal/models"
	"habitta/internal/orders"
)

// OrderStore is the MongoDB implementation of orders.OrderStore.
type OrderStore struct {
	coll *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{coll: db.Collection(ordersCollection)}
}

func (s *OrderStore) Insert(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			order.ID = primitive.NilObjectID
			return fmt.Errorf("%w: %s", orders.ErrDuplicateOrderNumber, order.OrderNumber)
		}
		return err
	}
	return nil
}

func (s *OrderStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *OrderStore) FindByNumber(ctx context.Context, number string) (models.Order, error) {
	return s.findOne(ctx, bson.M{"orderNumber": number})
}

func (s *OrderStore) findOne(ctx context.Context, filter bson.M) (models.Order, error) {
	var order models.Order
	err := s.coll.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, orders.ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// AppendStatus writes the status and its history entry in one FindOneAndUpdate.
// With allowed set, a miss is told apart from a missing order by a follow-up read.
func (s *OrderStore) AppendStatus(ctx context.Context, id primitive.ObjectID, allowed []models.OrderStatus, entry models.StatusEntry) (models.Order, error) {
	filter := bson.M{"_id": id}
	if len(allowed) > 0 {
		filter["status"] = bson.M{"$in": allowed}
	}
	update := bson.M{
		"$set":  bson.M{"status": entry.Status, "updatedAt": entry.Date},
		"$push": bson.M{"statusHistory": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order models.Order
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if len(allowed) == 0 {
			return models.Order{}, orders.ErrOrderNotFound
		}
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return models.Order{}, findErr
		}
		return models.Order{}, orders.ErrStatusConflict
	}
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (s *OrderStore) List(ctx context.Context, filter orders.ListFilter) ([]models.Order, int64, error) {
	query := orderListQuery(filter)

	total, err := s.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().SetSort(orderListSort(filter.Sort))
	if filter.Limit > 0 {
		page := max(filter.Page, 1)
		findOptions.SetSkip((page - 1) * filter.Limit).SetLimit(filter.Limit)
	}

	cursor, err := s.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	result := make([]models.Order, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func orderListQuery(filter orders.ListFilter) bson.M {
	query := bson.M{}
	if filter.Customer != nil {
		query["customer"] = *filter.Customer
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	created := bson.M{}
	if filter.DateFrom != nil {
		created["$gte"] = *filter.DateFrom
	}
	if filter.DateTo != nil {
		created["$lte"] = *filter.DateTo
	}
	if len(created) > 0 {
		query["createdAt"] = created
	}
	return query
}

func orderListSort(sort string) bson.D {
	switch sort {
	case orders.SortTotalDesc:
		return bson.D{{Key: "totals.total", Value: -1}, {Key: "createdAt", Value: -1}}
	case orders.SortTotalAsc:
		return bson.D{{Key: "totals.total", Value: 1}, {Key: "createdAt", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}
