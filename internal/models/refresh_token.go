package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken stores only the SHA-256 of the token handed to the client.
type RefreshToken struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty"`
	CustomerID      primitive.ObjectID  `bson:"customerId"`
	TokenHash       string              `bson:"tokenHash"`
	ExpiresAt       time.Time           `bson:"expiresAt"`
	Revoked         bool                `bson:"revoked"`
	ReplacedByToken *primitive.ObjectID `bson:"replacedByToken,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt"`
}
