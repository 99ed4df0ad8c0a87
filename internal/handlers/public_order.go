package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"habitta/internal/middleware"
	"habitta/internal/models"
	"habitta/internal/orders"
	"habitta/internal/pricing"
)

/* =========================
   REQUEST DTOs
========================= */

type measurementsRequest struct {
	Width  models.Decimal `json:"width"`
	Height models.Decimal `json:"height"`
	Panels *int           `json:"panels"`
}

type configurationRequest struct {
	Color            string `json:"color"`
	InstallationType string `json:"installationType" binding:"omitempty,oneof=professional express self"`
	Mounting         string `json:"mounting" binding:"omitempty,oneof=ceiling wall"`
	IncludeSheer     bool   `json:"includeSheer"`
}

type orderItemRequest struct {
	Product       string               `json:"product" binding:"required"`
	Measurements  measurementsRequest  `json:"measurements"`
	Configuration configurationRequest `json:"configuration"`
	Quantity      int                  `json:"quantity" binding:"omitempty,min=1"`
}

type adjustmentsRequest struct {
	ShippingCost     models.Decimal `json:"shippingCost"`
	InstallationCost models.Decimal `json:"installationCost"`
	Discount         models.Decimal `json:"discount"`
	Tax              models.Decimal `json:"tax"`
}

type paymentRequest struct {
	Method       string `json:"method"`
	Installments int    `json:"installments"`
}

type createOrderRequest struct {
	CustomerInfo    models.CustomerInfo `json:"customerInfo"`
	Items           []orderItemRequest  `json:"items" binding:"dive"`
	DeliveryAddress models.Address      `json:"deliveryAddress"`
	Scheduling      models.Scheduling   `json:"scheduling"`
	Payment         paymentRequest      `json:"payment"`
	Totals          adjustmentsRequest  `json:"totals"`
	Coupon          *models.Coupon      `json:"coupon"`
	Notes           models.OrderNotes   `json:"notes"`
}

type quoteRequest struct {
	Items  []orderItemRequest  `json:"items" binding:"required,dive"`
	Totals *adjustmentsRequest `json:"totals"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (r measurementsRequest) toPricing() pricing.Measurements {
	panels := 1
	if r.Panels != nil {
		panels = *r.Panels
	}
	return pricing.Measurements{Width: r.Width.Decimal, Height: r.Height.Decimal, Panels: panels}
}

func (r orderItemRequest) toInput() orders.ItemInput {
	return orders.ItemInput{
		ProductID:    strings.TrimSpace(r.Product),
		Measurements: r.Measurements.toPricing(),
		Configuration: pricing.Configuration{
			Color:            strings.TrimSpace(r.Configuration.Color),
			InstallationType: pricing.InstallationType(r.Configuration.InstallationType),
			Mounting:         pricing.Mounting(r.Configuration.Mounting),
			IncludeSheer:     r.Configuration.IncludeSheer,
		},
		Quantity: r.Quantity,
	}
}

func (r adjustmentsRequest) toPricing() pricing.Adjustments {
	return pricing.Adjustments{
		ShippingCost:     r.ShippingCost.Decimal,
		InstallationCost: r.InstallationCost.Decimal,
		Discount:         r.Discount.Decimal,
		Tax:              r.Tax.Decimal,
	}
}

func itemInputs(items []orderItemRequest) []orders.ItemInput {
	inputs := make([]orders.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, item.toInput())
	}
	return inputs
}

/* =========================
   RESPONSE DTOs
========================= */

type quoteItemResponse struct {
	Product       string               `json:"product"`
	Name          string               `json:"name"`
	Measurements  models.Measurements  `json:"measurements"`
	Configuration models.Configuration `json:"configuration"`
	UnitPrice     models.Decimal       `json:"unitPrice"`
	Quantity      int                  `json:"quantity"`
	TotalPrice    models.Decimal       `json:"totalPrice"`
}

func quoteResponse(lines []pricing.LineItem, totals pricing.Totals) gin.H {
	items := make([]quoteItemResponse, 0, len(lines))
	for _, line := range lines {
		items = append(items, quoteItemResponse{
			Product: line.Product.ProductID,
			Name:    line.Product.Name,
			Measurements: models.Measurements{
				Width:  models.NewDecimal(line.Measurements.Width),
				Height: models.NewDecimal(line.Measurements.Height),
				Panels: line.Measurements.Panels,
				Area:   models.NewDecimal(line.Area),
			},
			Configuration: models.Configuration{
				Color:            line.Configuration.Color,
				InstallationType: string(line.Configuration.InstallationType),
				Mounting:         string(line.Configuration.Mounting),
				IncludeSheer:     line.Configuration.IncludeSheer,
			},
			UnitPrice:  models.NewDecimal(line.UnitPrice),
			Quantity:   line.Quantity,
			TotalPrice: models.NewDecimal(line.TotalPrice),
		})
	}
	return gin.H{
		"items": items,
		"totals": models.Totals{
			Subtotal:         models.NewDecimal(totals.Subtotal),
			ShippingCost:     models.NewDecimal(totals.ShippingCost),
			InstallationCost: models.NewDecimal(totals.InstallationCost),
			Discount:         models.NewDecimal(totals.Discount),
			Tax:              models.NewDecimal(totals.Tax),
			Total:            models.NewDecimal(totals.Total),
		},
	}
}

/* =========================
   CREATE ORDER
========================= */

// CreateOrder accepts guests and signed-in customers alike; prices sent by the
// client are ignored and recomputed from the catalog.
func CreateOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Create(ctx, orders.CreateOrderCommand{
			CustomerInfo:    req.CustomerInfo,
			Items:           itemInputs(req.Items),
			DeliveryAddress: req.DeliveryAddress,
			Scheduling:      req.Scheduling,
			Payment:         orders.PaymentInput{Method: req.Payment.Method, Installments: req.Payment.Installments},
			Adjustments:     req.Totals.toPricing(),
			Coupon:          req.Coupon,
			Notes:           req.Notes.Customer,
		}, middleware.ActorFrom(c))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
	}
}

/* =========================
   QUOTE
========================= */

// QuoteOrder prices a cart without storing it.
func QuoteOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/quote"
		defer handlePanic(c, route)

		var req quoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		var adj *pricing.Adjustments
		if req.Totals != nil {
			a := req.Totals.toPricing()
			adj = &a
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		lines, totals, err := svc.Quote(ctx, itemInputs(req.Items), adj)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, quoteResponse(lines, totals))
	}
}

/* =========================
   MY ORDERS
========================= */

func GetMyOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/my-orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := svc.ListForCustomer(ctx, middleware.ActorFrom(c), page, limit)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"orders":     list,
			"pagination": paginationBody(page, limit, total),
		})
	}
}

/* =========================
   ORDER DETAIL
========================= */

// GetOrder resolves either the order id or its public number.
func GetOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:id"
		defer handlePanic(c, route)

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Get(ctx, c.Param("id"), middleware.ActorFrom(c))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   CANCEL
========================= */

func CancelOrder(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:id/cancel"
		defer handlePanic(c, route)

		var req cancelOrderRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid request body")
				return
			}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.Cancel(ctx, c.Param("id"), strings.TrimSpace(req.Reason), middleware.ActorFrom(c))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}
