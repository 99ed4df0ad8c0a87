package pricing

import (
	"slices"

	"github.com/shopspring/decimal"
)

// PriceLineItem prices one configured product.
//
// Flat fees (express installation, wall mounting) are added to the per-item price
// before the quantity multiply, so they scale with quantity.
func PriceLineItem(product ProductSnapshot, m Measurements, cfg Configuration, quantity int) (LineItem, error) {
	if product.ProductID == "" {
		return LineItem{}, ErrProductNotFound
	}
	if product.BasePrice.IsNegative() {
		return LineItem{}, invalid("price", "must not be negative")
	}
	if err := validateMeasurements(m); err != nil {
		return LineItem{}, err
	}

	cfg = cfg.withDefaults()
	if err := validateConfiguration(cfg); err != nil {
		return LineItem{}, err
	}

	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return LineItem{}, invalid("quantity", "must be at least 1")
	}
	if quantity > MaxQuantity {
		return LineItem{}, invalid("quantity", "must be at most %d", MaxQuantity)
	}

	area := m.Area()
	itemPrice := product.BasePrice.Mul(area)
	if cfg.IncludeSheer {
		itemPrice = itemPrice.Add(area.Mul(product.Surcharges.SheerPerArea))
	}
	if cfg.InstallationType == InstallationExpress {
		itemPrice = itemPrice.Add(product.Surcharges.ExpressInstallation)
	}
	if cfg.Mounting == MountingWall {
		itemPrice = itemPrice.Add(product.Surcharges.WallMounting)
	}

	snapshot := product
	snapshot.Images = slices.Clone(product.Images)

	return LineItem{
		Product:       snapshot,
		Measurements:  m,
		Area:          area,
		Configuration: cfg,
		UnitPrice:     product.BasePrice,
		ItemPrice:     itemPrice,
		Quantity:      quantity,
		TotalPrice:    itemPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

func validateMeasurements(m Measurements) error {
	if m.Width.LessThan(decimal.NewFromInt(MinWidthCM)) {
		return invalid("measurements.width", "minimum width is %dcm", MinWidthCM)
	}
	if err := checkDimensionBounds("measurements.width", "width", m.Width); err != nil {
		return err
	}
	if m.Height.LessThan(decimal.NewFromInt(MinHeightCM)) {
		return invalid("measurements.height", "minimum height is %dcm", MinHeightCM)
	}
	if err := checkDimensionBounds("measurements.height", "height", m.Height); err != nil {
		return err
	}
	if m.Panels < 1 {
		return invalid("measurements.panels", "must be at least 1")
	}
	if m.Panels > MaxPanels {
		return invalid("measurements.panels", "must be at most %d", MaxPanels)
	}
	return nil
}

func checkDimensionBounds(field, name string, v decimal.Decimal) error {
	if v.GreaterThan(decimal.NewFromInt(MaxDimensionCM)) {
		return invalid(field, "maximum %s is %dcm", name, MaxDimensionCM)
	}
	if !v.Equal(v.Truncate(MaxMeasurementPlaces)) {
		return invalid(field, "at most %d decimal places", MaxMeasurementPlaces)
	}
	return nil
}

func validateConfiguration(cfg Configuration) error {
	switch cfg.InstallationType {
	case InstallationProfessional, InstallationExpress, InstallationSelf:
	default:
		return invalid("configuration.installationType", "unknown value %q", cfg.InstallationType)
	}
	switch cfg.Mounting {
	case MountingCeiling, MountingWall:
	default:
		return invalid("configuration.mounting", "unknown value %q", cfg.Mounting)
	}
	return nil
}
