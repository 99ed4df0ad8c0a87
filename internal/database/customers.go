package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"habitta/internal/models"
)

var (
	ErrCustomerNotFound = errors.New("customer: not found")
	ErrEmailTaken       = errors.New("customer: email already registered")
	ErrRefreshNotFound  = errors.New("refresh token: not found")
)

type CustomerStore struct {
	coll *mongo.Collection
}

func NewCustomerStore(db *mongo.Database) *CustomerStore {
	return &CustomerStore{coll: db.Collection(customersCollection)}
}

func (s *CustomerStore) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID.IsZero() {
		customer.ID = primitive.NewObjectID()
	}
	customer.Email = strings.ToLower(strings.TrimSpace(customer.Email))
	if _, err := s.coll.InsertOne(ctx, customer); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrEmailTaken, customer.Email)
		}
		return err
	}
	return nil
}

func (s *CustomerStore) FindByEmail(ctx context.Context, email string) (models.Customer, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *CustomerStore) FindByID(ctx context.Context, id primitive.ObjectID) (models.Customer, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *CustomerStore) findOne(ctx context.Context, filter bson.M) (models.Customer, error) {
	var customer models.Customer
	err := s.coll.FindOne(ctx, filter).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

// Update sets the given profile fields and returns the stored customer.
func (s *CustomerStore) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (models.Customer, error) {
	set["updatedAt"] = time.Now()

	var customer models.Customer
	err := s.coll.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&customer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Customer{}, ErrCustomerNotFound
	}
	if err != nil {
		return models.Customer{}, err
	}
	return customer, nil
}

func (s *CustomerStore) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"lastLogin": at}})
	return err
}

// RefreshTokenStore keeps hashed refresh tokens in refresh_tokens.
type RefreshTokenStore struct {
	coll *mongo.Collection
}

func NewRefreshTokenStore(db *mongo.Database) *RefreshTokenStore {
	return &RefreshTokenStore{coll: db.Collection(refreshTokensCollection)}
}

func (s *RefreshTokenStore) Insert(ctx context.Context, token *models.RefreshToken) error {
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, token)
	return err
}

// Claim atomically revokes the active token with the given hash and returns it as
// it was before the update. Only one caller can claim a given token.
func (s *RefreshTokenStore) Claim(ctx context.Context, hash string) (models.RefreshToken, error) {
	var token models.RefreshToken
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"tokenHash": hash, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.RefreshToken{}, ErrRefreshNotFound
	}
	if err != nil {
		return models.RefreshToken{}, err
	}
	return token, nil
}

// Revoke marks a token revoked, recording its successor when rotated.
func (s *RefreshTokenStore) Revoke(ctx context.Context, id primitive.ObjectID, replacedBy *primitive.ObjectID) error {
	set := bson.M{"revoked": true}
	if replacedBy != nil {
		set["replacedByToken"] = *replacedBy
	}
	_, err := s.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// RevokeByHash revokes an active token; ErrRefreshNotFound when none matched.
func (s *RefreshTokenStore) RevokeByHash(ctx context.Context, hash string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"tokenHash": hash, "revoked": false},
		bson.M{"$set": bson.M{"revoked": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrRefreshNotFound
	}
	return nil
}
