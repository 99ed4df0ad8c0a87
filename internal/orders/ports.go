package orders

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/models"
	"habitta/internal/pricing"
)

// CatalogStore resolves product references into snapshots. Unknown or deleted
// products yield ErrProductNotFound.
type CatalogStore interface {
	GetProduct(ctx context.Context, id string) (pricing.ProductSnapshot, error)
}

// Sequencer atomically advances the counter for a year-month prefix and returns
// the new value. Concurrent callers never receive the same value.
type Sequencer interface {
	Next(ctx context.Context, prefix string) (int64, error)
}

// OrderStore persists order documents. Every mutation is a single-document
// atomic update.
type OrderStore interface {
	// Insert stores a new order and sets its ID. A clash on the order number
	// yields ErrDuplicateOrderNumber.
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	FindByNumber(ctx context.Context, number string) (models.Order, error)
	// AppendStatus sets the status and appends entry to the history in one write.
	// When allowed is non-empty the write only applies while the current status is
	// one of them; otherwise ErrStatusConflict is returned.
	AppendStatus(ctx context.Context, id primitive.ObjectID, allowed []models.OrderStatus, entry models.StatusEntry) (models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, int64, error)
}

const (
	SortNewest    = "newest"
	SortTotalDesc = "total_desc"
	SortTotalAsc  = "total_asc"
)

type ListFilter struct {
	Customer *primitive.ObjectID
	Status   models.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
	Sort     string
	Page     int64
	Limit    int64
}
