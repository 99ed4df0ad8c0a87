package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdditionalPrices is the surcharge schedule of a product. Nil fields fall back to
// the storefront defaults when the product is priced.
type AdditionalPrices struct {
	Sheer               *Decimal `bson:"sheer,omitempty" json:"sheer,omitempty"`
	ExpressInstallation *Decimal `bson:"expressInstallation,omitempty" json:"expressInstallation,omitempty"`
	WallMounting        *Decimal `bson:"wallMounting,omitempty" json:"wallMounting,omitempty"`
}

type ProductImage struct {
	URL    string `bson:"url" json:"url"`
	Alt    string `bson:"alt,omitempty" json:"alt,omitempty"`
	IsMain bool   `bson:"isMain" json:"isMain"`
}

type Dimensions struct {
	MinWidth  int `bson:"minWidth" json:"minWidth"`
	MaxWidth  int `bson:"maxWidth" json:"maxWidth"`
	MinHeight int `bson:"minHeight" json:"minHeight"`
	MaxHeight int `bson:"maxHeight" json:"maxHeight"`
}

var ProductCategories = []string{"quartos", "salas", "blackout", "voil", "linho", "termico", "sheer"}

type Product struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Slug             string             `bson:"slug" json:"slug"`
	Description      string             `bson:"description" json:"description"`
	Category         string             `bson:"category" json:"category"`
	HotelPartner     string             `bson:"hotelPartner" json:"hotelPartner"`
	Material         string             `bson:"material" json:"material"`
	Price            Decimal            `bson:"price" json:"price"`
	OriginalPrice    *Decimal           `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	PriceUnit        string             `bson:"priceUnit" json:"priceUnit"`
	Dimensions       Dimensions         `bson:"dimensions" json:"dimensions"`
	Images           []ProductImage     `bson:"images" json:"images"`
	AdditionalPrices AdditionalPrices   `bson:"additionalPrices" json:"additionalPrices"`
	IsActive         bool               `bson:"isActive" json:"isActive"`
	InStock          bool               `bson:"inStock" json:"inStock"`
	IsPopular        bool               `bson:"isPopular" json:"isPopular"`
	MainImage        string             `bson:"-" json:"mainImage,omitempty"`
	Discount         int                `bson:"-" json:"discountPercentage"`
	IsDeleted        bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
	DeletedAt        *time.Time         `bson:"deletedAt,omitempty" json:"deletedAt,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

var PriceUnits = []string{"metro", "unidade", "m2"}

// Decorate fills the read-only fields computed from the stored ones.
func (p *Product) Decorate() {
	p.MainImage = ""
	for _, img := range p.Images {
		if img.IsMain {
			p.MainImage = img.URL
			break
		}
	}
	if p.MainImage == "" && len(p.Images) > 0 {
		p.MainImage = p.Images[0].URL
	}
	p.Discount = DiscountPercentage(p.Price, p.OriginalPrice)
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
}

// DiscountPercentage is the rounded markdown from originalPrice to price, or 0
// when the product is not marked down.
func DiscountPercentage(price Decimal, original *Decimal) int {
	if original == nil || !original.GreaterThan(price.Decimal) {
		return 0
	}
	pct := original.Sub(price.Decimal).Div(original.Decimal).Mul(decimal.NewFromInt(100))
	return int(pct.Round(0).IntPart())
}

var (
	slugInvalid   = regexp.MustCompile(`[^\w\s-]`)
	slugSeparator = regexp.MustCompile(`[\s_-]+`)
)

// Slugify derives the URL slug of a product name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSeparator.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// DefaultDimensions are the catalog limits applied to new products.
func DefaultDimensions() Dimensions {
	return Dimensions{MinWidth: 50, MaxWidth: 500, MinHeight: 100, MaxHeight: 350}
}
