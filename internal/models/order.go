package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	StatusPendingPayment        OrderStatus = "pending_payment"
	StatusPaymentConfirmed      OrderStatus = "payment_confirmed"
	StatusMeasurementScheduled  OrderStatus = "measurement_scheduled"
	StatusMeasurementCompleted  OrderStatus = "measurement_completed"
	StatusInProduction          OrderStatus = "in_production"
	StatusReadyForDelivery      OrderStatus = "ready_for_delivery"
	StatusDeliveryScheduled     OrderStatus = "delivery_scheduled"
	StatusInstallationScheduled OrderStatus = "installation_scheduled"
	StatusInstallationCompleted OrderStatus = "installation_completed"
	StatusCompleted             OrderStatus = "completed"
	StatusCancelled             OrderStatus = "cancelled"
	StatusRefunded              OrderStatus = "refunded"
)

const (
	PaymentMethodCard       = "card"
	PaymentMethodMBWay      = "mbway"
	PaymentMethodTransfer   = "transfer"
	PaymentMethodMultibanco = "multibanco"

	PaymentStatusPending = "pending"
)

// ProductSnapshot is the catalog data captured when the order was placed.
type ProductSnapshot struct {
	Name             string           `bson:"name" json:"name"`
	Price            Decimal          `bson:"price" json:"price"`
	PriceUnit        string           `bson:"priceUnit" json:"priceUnit"`
	Material         string           `bson:"material,omitempty" json:"material,omitempty"`
	HotelPartner     string           `bson:"hotelPartner,omitempty" json:"hotelPartner,omitempty"`
	Images           []string         `bson:"images" json:"images"`
	AdditionalPrices AdditionalPrices `bson:"additionalPrices" json:"additionalPrices"`
}

type Measurements struct {
	Width  Decimal `bson:"width" json:"width"`
	Height Decimal `bson:"height" json:"height"`
	Panels int     `bson:"panels" json:"panels"`
	Area   Decimal `bson:"area" json:"area"`
}

type Configuration struct {
	Color            string `bson:"color,omitempty" json:"color,omitempty"`
	InstallationType string `bson:"installationType" json:"installationType"`
	Mounting         string `bson:"mounting" json:"mounting"`
	IncludeSheer     bool   `bson:"includeSheer" json:"includeSheer"`
}

// OrderItem is owned by its order and never edited after creation.
type OrderItem struct {
	Product         primitive.ObjectID `bson:"product" json:"product"`
	ProductSnapshot ProductSnapshot    `bson:"productSnapshot" json:"productSnapshot"`
	Measurements    Measurements       `bson:"measurements" json:"measurements"`
	Configuration   Configuration      `bson:"configuration" json:"configuration"`
	UnitPrice       Decimal            `bson:"unitPrice" json:"unitPrice"`
	Quantity        int                `bson:"quantity" json:"quantity"`
	TotalPrice      Decimal            `bson:"totalPrice" json:"totalPrice"`
}

type CustomerInfo struct {
	FirstName string `bson:"firstName" json:"firstName"`
	LastName  string `bson:"lastName" json:"lastName"`
	Email     string `bson:"email" json:"email"`
	Phone     string `bson:"phone" json:"phone"`
	NIF       string `bson:"nif,omitempty" json:"nif,omitempty"`
	Company   string `bson:"company,omitempty" json:"company,omitempty"`
}

type Address struct {
	Street     string `bson:"street" json:"street"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	District   string `bson:"district" json:"district"`
	Country    string `bson:"country" json:"country"`
	Notes      string `bson:"notes,omitempty" json:"notes,omitempty"`
}

type DateWindow struct {
	Requested *time.Time `bson:"requested,omitempty" json:"requested,omitempty"`
	Confirmed *time.Time `bson:"confirmed,omitempty" json:"confirmed,omitempty"`
	Completed *time.Time `bson:"completed,omitempty" json:"completed,omitempty"`
}

type Scheduling struct {
	MeasurementDate    DateWindow `bson:"measurementDate" json:"measurementDate"`
	InstallationDate   DateWindow `bson:"installationDate" json:"installationDate"`
	AvailableTimeSlots []string   `bson:"availableTimeSlots,omitempty" json:"availableTimeSlots,omitempty"`
	Notes              string     `bson:"notes,omitempty" json:"notes,omitempty"`
}

type StatusEntry struct {
	Status    OrderStatus         `bson:"status" json:"status"`
	Date      time.Time           `bson:"date" json:"date"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	UpdatedBy *primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
}

type Payment struct {
	Method                string     `bson:"method" json:"method"`
	Status                string     `bson:"status" json:"status"`
	StripePaymentIntentID string     `bson:"stripePaymentIntentId,omitempty" json:"stripePaymentIntentId,omitempty"`
	TransactionID         string     `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	PaidAt                *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	Installments          int        `bson:"installments" json:"installments"`
}

type Totals struct {
	Subtotal         Decimal `bson:"subtotal" json:"subtotal"`
	ShippingCost     Decimal `bson:"shippingCost" json:"shippingCost"`
	InstallationCost Decimal `bson:"installationCost" json:"installationCost"`
	Discount         Decimal `bson:"discount" json:"discount"`
	Tax              Decimal `bson:"tax" json:"tax"`
	Total            Decimal `bson:"total" json:"total"`
}

type Coupon struct {
	Code     string  `bson:"code" json:"code"`
	Discount Decimal `bson:"discount" json:"discount"`
	Type     string  `bson:"type" json:"type"`
}

type OrderNotes struct {
	Customer string `bson:"customer,omitempty" json:"customer,omitempty"`
	Internal string `bson:"internal,omitempty" json:"internal,omitempty"`
}

type Document struct {
	Type       string    `bson:"type" json:"type"`
	URL        string    `bson:"url" json:"url"`
	UploadedAt time.Time `bson:"uploadedAt" json:"uploadedAt"`
}

type Review struct {
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	Photos    []string  `bson:"photos,omitempty" json:"photos,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Order defines the persisted order document. Orders are never physically deleted.
type Order struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrderNumber     string              `bson:"orderNumber" json:"orderNumber"`
	Customer        *primitive.ObjectID `bson:"customer,omitempty" json:"customer,omitempty"`
	CustomerInfo    CustomerInfo        `bson:"customerInfo" json:"customerInfo"`
	Items           []OrderItem         `bson:"items" json:"items"`
	DeliveryAddress Address             `bson:"deliveryAddress" json:"deliveryAddress"`
	Scheduling      Scheduling          `bson:"scheduling" json:"scheduling"`
	Status          OrderStatus         `bson:"status" json:"status"`
	StatusHistory   []StatusEntry       `bson:"statusHistory" json:"statusHistory"`
	Payment         Payment             `bson:"payment" json:"payment"`
	Totals          Totals              `bson:"totals" json:"totals"`
	Coupon          *Coupon             `bson:"coupon,omitempty" json:"coupon,omitempty"`
	Notes           OrderNotes          `bson:"notes" json:"notes"`
	Documents       []Document          `bson:"documents,omitempty" json:"documents,omitempty"`
	Review          *Review             `bson:"review,omitempty" json:"review,omitempty"`
	ItemCount       int                 `bson:"-" json:"itemCount"`
	TotalArea       Decimal             `bson:"-" json:"totalArea"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Derive fills the read-only fields computed from the items.
func (o *Order) Derive() {
	count := 0
	area := decimal.Zero
	for _, item := range o.Items {
		count += item.Quantity
		area = area.Add(item.Measurements.Area.Decimal)
	}
	o.ItemCount = count
	o.TotalArea = NewDecimal(area)
	if o.StatusHistory == nil {
		o.StatusHistory = []StatusEntry{}
	}
}
