package orders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/logging"
	"habitta/internal/models"
	"habitta/internal/pricing"
)

const (
	maxInsertAttempts    = 3
	defaultCancelReason  = "Cancelled by customer"
	defaultCountry       = "Portugal"
	maxInstallments      = 12
	defaultCustomerLimit = 10
	defaultAdminLimit    = 20
)

var postalCodePattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{3}$`)

var paymentMethods = []string{
	models.PaymentMethodCard,
	models.PaymentMethodMBWay,
	models.PaymentMethodTransfer,
	models.PaymentMethodMultibanco,
}

// ServiceDeps bundles collaborators required to construct the order service.
type ServiceDeps struct {
	Catalog  CatalogStore
	Orders   OrderStore
	Sequence Sequencer
	Clock    func() time.Time
	Location *time.Location
	Logger   *zerolog.Logger
}

// Service prices carts, creates orders and applies status changes.
type Service struct {
	catalog  CatalogStore
	orders   OrderStore
	sequence Sequencer
	clock    func() time.Time
	location *time.Location
	log      zerolog.Logger
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog store is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("order service: order store is required")
	}
	if deps.Sequence == nil {
		return nil, errors.New("order service: sequencer is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := logging.Component("ORDER")
	if deps.Logger != nil {
		logger = *deps.Logger
	}

	return &Service{
		catalog:  deps.Catalog,
		orders:   deps.Orders,
		sequence: deps.Sequence,
		clock:    clock,
		location: loc,
		log:      logger,
	}, nil
}

type ItemInput struct {
	ProductID     string
	Measurements  pricing.Measurements
	Configuration pricing.Configuration
	Quantity      int
}

type PaymentInput struct {
	Method       string
	Installments int
}

type CreateOrderCommand struct {
	CustomerInfo    models.CustomerInfo
	Items           []ItemInput
	DeliveryAddress models.Address
	Scheduling      models.Scheduling
	Payment         PaymentInput
	Adjustments     pricing.Adjustments
	Coupon          *models.Coupon
	Notes           string
}

// Quote prices the items without persisting anything. Nil adjustments mean the
// storefront preview defaults.
func (s *Service) Quote(ctx context.Context, items []ItemInput, adj *pricing.Adjustments) ([]pricing.LineItem, pricing.Totals, error) {
	lines, err := s.priceItems(ctx, items)
	if err != nil {
		return nil, pricing.Totals{}, err
	}
	adjustments := pricing.PreviewAdjustments(lines)
	if adj != nil {
		adjustments = *adj
	}
	totals, err := pricing.ComputeTotals(lines, adjustments)
	if err != nil {
		return nil, pricing.Totals{}, err
	}
	return lines, totals, nil
}

// Create prices the cart against the catalog, recomputes the totals and stores a
// new order in pending_payment. Nothing is persisted when any item fails.
func (s *Service) Create(ctx context.Context, cmd CreateOrderCommand, actor Actor) (models.Order, error) {
	info, err := normalizeCustomerInfo(cmd.CustomerInfo)
	if err != nil {
		return models.Order{}, err
	}
	address, err := normalizeAddress(cmd.DeliveryAddress)
	if err != nil {
		return models.Order{}, err
	}
	payment, err := normalizePayment(cmd.Payment)
	if err != nil {
		return models.Order{}, err
	}

	lines, err := s.priceItems(ctx, cmd.Items)
	if err != nil {
		return models.Order{}, err
	}
	totals, err := pricing.ComputeTotals(lines, cmd.Adjustments)
	if err != nil {
		return models.Order{}, err
	}

	items := make([]models.OrderItem, 0, len(lines))
	for i, line := range lines {
		item, err := toOrderItem(line)
		if err != nil {
			return models.Order{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		items = append(items, item)
	}

	now := s.clock()
	order := models.Order{
		Customer:        actor.objectID(),
		CustomerInfo:    info,
		Items:           items,
		DeliveryAddress: address,
		Scheduling:      cmd.Scheduling,
		Status:          models.StatusPendingPayment,
		StatusHistory:   []models.StatusEntry{},
		Payment:         payment,
		Totals:          toModelTotals(totals),
		Coupon:          cmd.Coupon,
		Notes:           models.OrderNotes{Customer: strings.TrimSpace(cmd.Notes)},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.insertWithNumber(ctx, &order, now); err != nil {
		return models.Order{}, err
	}
	order.Derive()

	event := s.log.Info().
		Str("orderNumber", order.OrderNumber).
		Str("total", order.Totals.Total.StringFixed(2))
	if order.Customer != nil {
		event.Str("customer", order.Customer.Hex()).Msg("order created")
	} else {
		event.Msg("guest order created")
	}
	return order, nil
}

func (s *Service) priceItems(ctx context.Context, inputs []ItemInput) ([]pricing.LineItem, error) {
	if len(inputs) == 0 {
		return nil, invalidField("items", "at least one item is required")
	}

	lines := make([]pricing.LineItem, 0, len(inputs))
	for i, input := range inputs {
		productID := strings.TrimSpace(input.ProductID)
		if productID == "" {
			return nil, invalidField(fmt.Sprintf("items[%d].product", i), "is required")
		}
		snapshot, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
			}
			return nil, persistenceError("catalog lookup", err)
		}
		line, err := pricing.PriceLineItem(snapshot, input.Measurements, input.Configuration, input.Quantity)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (s *Service) insertWithNumber(ctx context.Context, order *models.Order, now time.Time) error {
	var lastErr error
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		order.OrderNumber = s.nextOrderNumber(ctx, now)
		err := s.orders.Insert(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateOrderNumber) {
			s.log.Error().Err(err).Str("orderNumber", order.OrderNumber).Msg("order insert failed")
			return persistenceError("insert order", err)
		}
		s.log.Warn().Str("orderNumber", order.OrderNumber).Int("attempt", attempt+1).Msg("order number taken, retrying")
		lastErr = err
	}
	return persistenceError("insert order", lastErr)
}

func (s *Service) nextOrderNumber(ctx context.Context, now time.Time) string {
	local := now.In(s.location)
	prefix := SequencePrefix(local)
	seq, err := s.sequence.Next(ctx, prefix)
	if err == nil && seq < 1 {
		err = fmt.Errorf("counter returned %d", seq)
	}
	if err != nil {
		fallback := FallbackOrderNumber(now)
		s.log.Warn().
			Err(fmt.Errorf("%w: %v", ErrSequenceGeneration, err)).
			Str("prefix", prefix).
			Str("fallback", fallback).
			Msg("using fallback order number")
		return fallback
	}
	return FormatOrderNumber(prefix, seq)
}

// Get loads an order by ObjectID hex or order number. Only the owner and staff may read it.
func (s *Service) Get(ctx context.Context, ref string, actor Actor) (models.Order, error) {
	if actor.IsGuest() {
		return models.Order{}, ErrUnauthorized
	}
	order, err := s.lookup(ctx, ref)
	if err != nil {
		return models.Order{}, err
	}
	if !actor.IsStaff() && !actor.owns(order) {
		return models.Order{}, ErrForbidden
	}
	order.Derive()
	return order, nil
}

func (s *Service) lookup(ctx context.Context, ref string) (models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Order{}, invalidField("id", "is required")
	}
	var (
		order models.Order
		err   error
	)
	if id, parseErr := primitive.ObjectIDFromHex(ref); parseErr == nil {
		order, err = s.orders.FindByID(ctx, id)
	} else {
		order, err = s.orders.FindByNumber(ctx, ref)
	}
	if err != nil {
		return models.Order{}, persistenceError("find order", err)
	}
	return order, nil
}

// ListForCustomer returns the actor's own orders, newest first.
func (s *Service) ListForCustomer(ctx context.Context, actor Actor, page, limit int64) ([]models.Order, int64, error) {
	customer := actor.objectID()
	if customer == nil {
		return nil, 0, ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultCustomerLimit
	}
	return s.list(ctx, ListFilter{Customer: customer, Sort: SortNewest, Page: page, Limit: limit})
}

// ListAll is the staff dashboard listing.
func (s *Service) ListAll(ctx context.Context, actor Actor, filter ListFilter) ([]models.Order, int64, error) {
	if err := requireStaff(actor); err != nil {
		return nil, 0, err
	}
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAdminLimit
	}
	return s.list(ctx, filter)
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]models.Order, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Sort == "" {
		filter.Sort = SortNewest
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, persistenceError("list orders", err)
	}
	for i := range orders {
		orders[i].Derive()
	}
	return orders, total, nil
}

// SetStatus force-sets any valid status. Only staff may call it.
func (s *Service) SetStatus(ctx context.Context, orderID string, status models.OrderStatus, note string, actor Actor) (models.Order, error) {
	if err := requireStaff(actor); err != nil {
		return models.Order{}, err
	}
	if !IsValidStatus(status) {
		return models.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return models.Order{}, err
	}

	entry := models.StatusEntry{
		Status:    status,
		Date:      s.clock(),
		Notes:     strings.TrimSpace(note),
		UpdatedBy: actor.objectID(),
	}
	order, err := s.orders.AppendStatus(ctx, id, nil, entry)
	if err != nil {
		return models.Order{}, persistenceError("update status", err)
	}
	order.Derive()

	s.log.Info().
		Str("orderNumber", order.OrderNumber).
		Str("status", string(status)).
		Str("actor", actor.ID).
		Msg("order status updated")
	return order, nil
}

// Cancel moves an order to cancelled while it is still in an early status. The
// owner and staff may cancel.
func (s *Service) Cancel(ctx context.Context, orderID, reason string, actor Actor) (models.Order, error) {
	if actor.IsGuest() {
		return models.Order{}, ErrUnauthorized
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return models.Order{}, err
	}

	current, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return models.Order{}, persistenceError("find order", err)
	}
	if !actor.IsStaff() && !actor.owns(current) {
		return models.Order{}, ErrForbidden
	}
	if !IsCancellable(current.Status) {
		return models.Order{}, fmt.Errorf("%w: status %q", ErrNotCancellable, current.Status)
	}

	note := strings.TrimSpace(reason)
	if note == "" {
		note = defaultCancelReason
	}
	entry := models.StatusEntry{
		Status:    models.StatusCancelled,
		Date:      s.clock(),
		Notes:     note,
		UpdatedBy: actor.objectID(),
	}
	order, err := s.orders.AppendStatus(ctx, id, cancellableStatuses, entry)
	if errors.Is(err, ErrStatusConflict) {
		return models.Order{}, fmt.Errorf("%w: status changed before cancellation", ErrNotCancellable)
	}
	if err != nil {
		return models.Order{}, persistenceError("cancel order", err)
	}
	order.Derive()

	s.log.Info().Str("orderNumber", order.OrderNumber).Str("actor", actor.ID).Msg("order cancelled")
	return order, nil
}

func requireStaff(actor Actor) error {
	if actor.IsGuest() {
		return ErrUnauthorized
	}
	if !actor.IsStaff() {
		return ErrForbidden
	}
	return nil
}

func parseOrderID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return primitive.NilObjectID, invalidField("id", "invalid order id")
	}
	return id, nil
}

func normalizeCustomerInfo(info models.CustomerInfo) (models.CustomerInfo, error) {
	info.FirstName = strings.TrimSpace(info.FirstName)
	info.LastName = strings.TrimSpace(info.LastName)
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	info.Phone = strings.TrimSpace(info.Phone)
	info.NIF = strings.TrimSpace(info.NIF)
	info.Company = strings.TrimSpace(info.Company)

	for _, field := range []struct{ name, value string }{
		{"customerInfo.firstName", info.FirstName},
		{"customerInfo.lastName", info.LastName},
		{"customerInfo.email", info.Email},
		{"customerInfo.phone", info.Phone},
	} {
		if field.value == "" {
			return models.CustomerInfo{}, invalidField(field.name, "is required")
		}
	}
	if !strings.Contains(info.Email, "@") {
		return models.CustomerInfo{}, invalidField("customerInfo.email", "is invalid")
	}
	return info, nil
}

func normalizeAddress(addr models.Address) (models.Address, error) {
	addr.Street = strings.TrimSpace(addr.Street)
	addr.City = strings.TrimSpace(addr.City)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.District = strings.TrimSpace(addr.District)
	addr.Country = strings.TrimSpace(addr.Country)
	addr.Notes = strings.TrimSpace(addr.Notes)

	for _, field := range []struct{ name, value string }{
		{"deliveryAddress.street", addr.Street},
		{"deliveryAddress.city", addr.City},
		{"deliveryAddress.postalCode", addr.PostalCode},
		{"deliveryAddress.district", addr.District},
	} {
		if field.value == "" {
			return models.Address{}, invalidField(field.name, "is required")
		}
	}
	if !postalCodePattern.MatchString(addr.PostalCode) {
		return models.Address{}, invalidField("deliveryAddress.postalCode", "must match 0000-000")
	}
	if addr.Country == "" {
		addr.Country = defaultCountry
	}
	return addr, nil
}

// normalizePayment always records a pending payment; the gateway is external.
func normalizePayment(in PaymentInput) (models.Payment, error) {
	method := strings.ToLower(strings.TrimSpace(in.Method))
	if !slices.Contains(paymentMethods, method) {
		return models.Payment{}, invalidField("payment.method", "must be one of card, mbway, transfer, multibanco")
	}
	installments := in.Installments
	if installments == 0 {
		installments = 1
	}
	if installments < 1 || installments > maxInstallments {
		return models.Payment{}, invalidField("payment.installments", "must be between 1 and 12")
	}
	return models.Payment{
		Method:       method,
		Status:       models.PaymentStatusPending,
		Installments: installments,
	}, nil
}
