package orders

import (
	"slices"

	"habitta/internal/models"
)

// Statuses lists every persisted status value in lifecycle order.
var Statuses = []models.OrderStatus{
	models.StatusPendingPayment,
	models.StatusPaymentConfirmed,
	models.StatusMeasurementScheduled,
	models.StatusMeasurementCompleted,
	models.StatusInProduction,
	models.StatusReadyForDelivery,
	models.StatusDeliveryScheduled,
	models.StatusInstallationScheduled,
	models.StatusInstallationCompleted,
	models.StatusCompleted,
	models.StatusCancelled,
	models.StatusRefunded,
}

var cancellableStatuses = []models.OrderStatus{
	models.StatusPendingPayment,
	models.StatusPaymentConfirmed,
	models.StatusMeasurementScheduled,
}

// IsValidStatus reports enum membership only. Any valid status may be set from any
// other; there is no transition table.
func IsValidStatus(status models.OrderStatus) bool {
	return slices.Contains(Statuses, status)
}

func IsCancellable(status models.OrderStatus) bool {
	return slices.Contains(cancellableStatuses, status)
}

// CancellableStatuses returns a copy of the statuses a cancel is accepted from.
func CancellableStatuses() []models.OrderStatus {
	return slices.Clone(cancellableStatuses)
}
