// Package memstore holds in-memory implementations of the order ports. They back
// unit tests and local runs without MongoDB.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/models"
	"habitta/internal/orders"
	"habitta/internal/pricing"
)

// Catalog serves products keyed by their hex id.
type Catalog struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

func NewCatalog(products ...models.Product) *Catalog {
	c := &Catalog{products: make(map[string]models.Product)}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// Put stores the product, assigning an id when it has none, and returns the id.
func (c *Catalog) Put(p models.Product) primitive.ObjectID {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	c.mu.Lock()
	c.products[p.ID.Hex()] = p
	c.mu.Unlock()
	return p.ID
}

func (c *Catalog) GetProduct(_ context.Context, id string) (pricing.ProductSnapshot, error) {
	c.mu.RLock()
	p, ok := c.products[strings.TrimSpace(id)]
	c.mu.RUnlock()
	if !ok || p.IsDeleted || !p.IsActive {
		return pricing.ProductSnapshot{}, orders.ErrProductNotFound
	}
	return orders.SnapshotFromProduct(p), nil
}

// Sequencer keeps one counter per prefix.
type Sequencer struct {
	mu       sync.Mutex
	counters map[string]int64
	// Err, when set, is returned by every call.
	Err error
}

func NewSequencer() *Sequencer {
	return &Sequencer{counters: make(map[string]int64)}
}

// Seed sets the last issued value for prefix.
func (s *Sequencer) Seed(prefix string, value int64) {
	s.mu.Lock()
	s.counters[prefix] = value
	s.mu.Unlock()
}

func (s *Sequencer) Next(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	s.counters[prefix]++
	return s.counters[prefix], nil
}

// Orders is a goroutine-safe order store enforcing unique order numbers.
type Orders struct {
	mu     sync.Mutex
	byID   map[primitive.ObjectID]models.Order
	number map[string]primitive.ObjectID
	// InsertErr, when set, is returned by Insert without storing anything.
	InsertErr error
}

func NewOrders() *Orders {
	return &Orders{
		byID:   make(map[primitive.ObjectID]models.Order),
		number: make(map[string]primitive.ObjectID),
	}
}

func (s *Orders) Insert(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.InsertErr != nil {
		return s.InsertErr
	}
	if _, taken := s.number[order.OrderNumber]; taken {
		return fmt.Errorf("%w: %s", orders.ErrDuplicateOrderNumber, order.OrderNumber)
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	s.byID[order.ID] = cloneOrder(*order)
	s.number[order.OrderNumber] = order.ID
	return nil
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return models.Order{}, orders.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (s *Orders) FindByNumber(ctx context.Context, number string) (models.Order, error) {
	s.mu.Lock()
	id, ok := s.number[number]
	s.mu.Unlock()
	if !ok {
		return models.Order{}, orders.ErrOrderNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *Orders) AppendStatus(_ context.Context, id primitive.ObjectID, allowed []models.OrderStatus, entry models.StatusEntry) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return models.Order{}, orders.ErrOrderNotFound
	}
	if len(allowed) > 0 && !slices.Contains(allowed, order.Status) {
		return models.Order{}, orders.ErrStatusConflict
	}
	order = cloneOrder(order)
	order.Status = entry.Status
	order.StatusHistory = append(order.StatusHistory, entry)
	order.UpdatedAt = entry.Date
	s.byID[id] = order
	return cloneOrder(order), nil
}

func (s *Orders) List(_ context.Context, filter orders.ListFilter) ([]models.Order, int64, error) {
	s.mu.Lock()
	matched := make([]models.Order, 0, len(s.byID))
	for _, order := range s.byID {
		if filter.Customer != nil && (order.Customer == nil || *order.Customer != *filter.Customer) {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.DateFrom != nil && order.CreatedAt.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && order.CreatedAt.After(*filter.DateTo) {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		switch filter.Sort {
		case orders.SortTotalDesc:
			return a.Totals.Total.GreaterThan(b.Totals.Total.Decimal)
		case orders.SortTotalAsc:
			return a.Totals.Total.LessThan(b.Totals.Total.Decimal)
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	total := int64(len(matched))
	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		return matched, total, nil
	}
	start := (page - 1) * limit
	if start >= total {
		return []models.Order{}, total, nil
	}
	end := min(start+limit, total)
	return matched[start:end], total, nil
}

// Len reports the number of stored orders.
func (s *Orders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func cloneOrder(o models.Order) models.Order {
	o.Items = slices.Clone(o.Items)
	for i := range o.Items {
		o.Items[i].ProductSnapshot.Images = slices.Clone(o.Items[i].ProductSnapshot.Images)
	}
	o.StatusHistory = slices.Clone(o.StatusHistory)
	o.Documents = slices.Clone(o.Documents)
	return o
}
