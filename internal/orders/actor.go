package orders

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/models"
)

// Actor is the identity acting on an order. The zero value is a guest.
type Actor struct {
	ID    string
	Role  string
	Email string
}

var Guest = Actor{}

func (a Actor) IsGuest() bool {
	return a.ID == ""
}

// IsStaff reports whether the actor may manage any order.
func (a Actor) IsStaff() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleManager
}

func (a Actor) objectID() *primitive.ObjectID {
	if a.IsGuest() {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return nil
	}
	return &id
}

func (a Actor) owns(order models.Order) bool {
	id := a.objectID()
	return id != nil && order.Customer != nil && *order.Customer == *id
}
