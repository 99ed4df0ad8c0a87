package pricing

import "github.com/shopspring/decimal"

// Subtotal sums the line totals.
func Subtotal(items []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.TotalPrice)
	}
	return sum
}

// ComputeTotals recomputes the order totals from the priced items. Any total the
// client may have submitted is never an input here.
//
// The result may be negative when the discount exceeds everything else.
func ComputeTotals(items []LineItem, adj Adjustments) (Totals, error) {
	for _, field := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"shippingCost", adj.ShippingCost},
		{"installationCost", adj.InstallationCost},
		{"discount", adj.Discount},
		{"tax", adj.Tax},
	} {
		if field.value.IsNegative() {
			return Totals{}, &InvalidAdjustmentError{Field: "totals." + field.name}
		}
	}

	subtotal := Subtotal(items)
	total := subtotal.
		Add(adj.ShippingCost).
		Add(adj.InstallationCost).
		Sub(adj.Discount).
		Add(adj.Tax)

	return Totals{
		Subtotal:         subtotal,
		ShippingCost:     adj.ShippingCost,
		InstallationCost: adj.InstallationCost,
		Discount:         adj.Discount,
		Tax:              adj.Tax,
		Total:            total,
	}, nil
}

// RequestsExpressInstallation reports whether any item asked for express installation.
// Callers use it to pre-populate the order-level installation cost.
func RequestsExpressInstallation(items []LineItem) bool {
	for _, item := range items {
		if item.Configuration.InstallationType == InstallationExpress {
			return true
		}
	}
	return false
}

// PreviewAdjustments mirrors the storefront cart preview: free shipping, tax included
// in the price, no discount, and a single express fee at order level when any item
// requests express installation.
func PreviewAdjustments(items []LineItem) Adjustments {
	adj := Adjustments{}
	if RequestsExpressInstallation(items) {
		adj.InstallationCost = DefaultExpressInstallationFee
	}
	return adj
}
