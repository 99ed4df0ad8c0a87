// Package pricing turns configured curtain products into priced line items and
// aggregates them into order totals. Everything here is pure: no I/O, no clocks,
// and inputs are never mutated.
package pricing

import "github.com/shopspring/decimal"

// PriceUnit is the basis the catalog price is quoted in.
type PriceUnit string

const (
	PriceUnitLinearMetre PriceUnit = "metro"
	PriceUnitUnit        PriceUnit = "unidade"
	PriceUnitSquareMetre PriceUnit = "m2"
)

type InstallationType string

const (
	InstallationProfessional InstallationType = "professional"
	InstallationExpress      InstallationType = "express"
	InstallationSelf         InstallationType = "self"
)

type Mounting string

const (
	MountingCeiling Mounting = "ceiling"
	MountingWall    Mounting = "wall"
)

const (
	MinWidthCM  = 50
	MinHeightCM = 100

	// Upper bounds keep every derived amount within Decimal128 precision.
	MaxDimensionCM       = 10000
	MaxMeasurementPlaces = 2
	MaxPanels            = 100
	MaxQuantity          = 1000
)

var (
	DefaultSheerSurcharge         = decimal.NewFromInt(89)
	DefaultExpressInstallationFee = decimal.NewFromInt(150)
	DefaultWallMountingFee        = decimal.NewFromInt(50)
)

// Surcharges is the per-product add-on schedule.
type Surcharges struct {
	SheerPerArea        decimal.Decimal
	ExpressInstallation decimal.Decimal
	WallMounting        decimal.Decimal
}

// DefaultSurcharges returns the schedule applied when a product defines none.
func DefaultSurcharges() Surcharges {
	return Surcharges{
		SheerPerArea:        DefaultSheerSurcharge,
		ExpressInstallation: DefaultExpressInstallationFee,
		WallMounting:        DefaultWallMountingFee,
	}
}

// ProductSnapshot is an immutable copy of the catalog product taken when the order is priced.
type ProductSnapshot struct {
	ProductID    string
	Name         string
	Material     string
	HotelPartner string
	BasePrice    decimal.Decimal
	PriceUnit    PriceUnit
	Surcharges   Surcharges
	Images       []string
}

// Measurements are in centimetres.
type Measurements struct {
	Width  decimal.Decimal
	Height decimal.Decimal
	Panels int
}

// Area returns (width/100) * (height/100) * panels in square metres, exactly.
func (m Measurements) Area() decimal.Decimal {
	return m.Width.Mul(m.Height).Mul(decimal.NewFromInt(int64(m.Panels))).Shift(-4)
}

type Configuration struct {
	Color            string
	InstallationType InstallationType
	Mounting         Mounting
	IncludeSheer     bool
}

// withDefaults fills the zero values the storefront treats as defaults.
func (c Configuration) withDefaults() Configuration {
	if c.InstallationType == "" {
		c.InstallationType = InstallationProfessional
	}
	if c.Mounting == "" {
		c.Mounting = MountingCeiling
	}
	return c
}

// LineItem is a priced product configuration. It is never edited after creation.
type LineItem struct {
	Product       ProductSnapshot
	Measurements  Measurements
	Area          decimal.Decimal
	Configuration Configuration
	UnitPrice     decimal.Decimal
	ItemPrice     decimal.Decimal
	Quantity      int
	TotalPrice    decimal.Decimal
}

// Adjustments are order-level amounts supplied by the caller. Zero means unset.
type Adjustments struct {
	ShippingCost     decimal.Decimal
	InstallationCost decimal.Decimal
	Discount         decimal.Decimal
	Tax              decimal.Decimal
}

type Totals struct {
	Subtotal         decimal.Decimal
	ShippingCost     decimal.Decimal
	InstallationCost decimal.Decimal
	Discount         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
}
