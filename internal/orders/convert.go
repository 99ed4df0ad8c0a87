package orders

import (
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"habitta/internal/models"
	"habitta/internal/pricing"
)

func toOrderItem(line pricing.LineItem) (models.OrderItem, error) {
	productID, err := primitive.ObjectIDFromHex(line.Product.ProductID)
	if err != nil {
		return models.OrderItem{}, ErrProductNotFound
	}

	sheer := models.NewDecimal(line.Product.Surcharges.SheerPerArea)
	express := models.NewDecimal(line.Product.Surcharges.ExpressInstallation)
	wall := models.NewDecimal(line.Product.Surcharges.WallMounting)

	images := slices.Clone(line.Product.Images)
	if images == nil {
		images = []string{}
	}

	return models.OrderItem{
		Product: productID,
		ProductSnapshot: models.ProductSnapshot{
			Name:         line.Product.Name,
			Price:        models.NewDecimal(line.Product.BasePrice),
			PriceUnit:    string(line.Product.PriceUnit),
			Material:     line.Product.Material,
			HotelPartner: line.Product.HotelPartner,
			Images:       images,
			AdditionalPrices: models.AdditionalPrices{
				Sheer:               &sheer,
				ExpressInstallation: &express,
				WallMounting:        &wall,
			},
		},
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
	}, nil
}

func toModelTotals(t pricing.Totals) models.Totals {
	return models.Totals{
		Subtotal:         models.NewDecimal(t.Subtotal),
		ShippingCost:     models.NewDecimal(t.ShippingCost),
		InstallationCost: models.NewDecimal(t.InstallationCost),
		Discount:         models.NewDecimal(t.Discount),
		Tax:              models.NewDecimal(t.Tax),
		Total:            models.NewDecimal(t.Total),
	}
}

// SnapshotFromProduct captures the pricing view of a catalog product. Missing
// surcharges fall back to the storefront defaults.
func SnapshotFromProduct(p models.Product) pricing.ProductSnapshot {
	surcharges := pricing.DefaultSurcharges()
	if p.AdditionalPrices.Sheer != nil {
		surcharges.SheerPerArea = p.AdditionalPrices.Sheer.Decimal
	}
	if p.AdditionalPrices.ExpressInstallation != nil {
		surcharges.ExpressInstallation = p.AdditionalPrices.ExpressInstallation.Decimal
	}
	if p.AdditionalPrices.WallMounting != nil {
		surcharges.WallMounting = p.AdditionalPrices.WallMounting.Decimal
	}

	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.URL)
	}

	return pricing.ProductSnapshot{
		ProductID:    p.ID.Hex(),
		Name:         p.Name,
		Material:     p.Material,
		HotelPartner: p.HotelPartner,
		BasePrice:    p.Price.Decimal,
		PriceUnit:    pricing.PriceUnit(p.PriceUnit),
		Surcharges:   surcharges,
		Images:       images,
	}
}
