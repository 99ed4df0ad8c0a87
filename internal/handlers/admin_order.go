package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"habitta/internal/middleware"
	"habitta/internal/models"
	"habitta/internal/orders"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

// GetAllOrders lists every order for staff with optional status and date filters.
func GetAllOrders(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		filter := orders.ListFilter{
			Status: models.OrderStatus(strings.TrimSpace(c.Query("status"))),
			Sort:   c.DefaultQuery("sort", orders.SortNewest),
			Page:   page,
			Limit:  limit,
		}
		if filter.DateFrom, err = parseDateQuery(c.Query("dateFrom"), false); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid dateFrom")
			return
		}
		if filter.DateTo, err = parseDateQuery(c.Query("dateTo"), true); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid dateTo")
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		list, total, err := svc.ListAll(ctx, middleware.ActorFrom(c), filter)
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

// parseDateQuery accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDateQuery(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// UpdateOrderStatus moves an order to any status and records who did it.
func UpdateOrderStatus(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:id/status"
		defer handlePanic(c, route)

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, route, err)
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		order, err := svc.SetStatus(ctx, c.Param("id"), models.OrderStatus(strings.TrimSpace(req.Status)), strings.TrimSpace(req.Notes), middleware.ActorFrom(c))
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}
