package handlers

import (
	"fmt"

	"habitta/internal/models"
)

type priceUpdateInput struct {
	Price         *models.Decimal
	OriginalPrice *models.Decimal
	ClearOriginal bool
}

type priceUpdateResult struct {
	Price         models.Decimal
	OriginalPrice *models.Decimal
	SetPrice      bool
	SetOriginal   bool
}

func validatePriceFields(price models.Decimal, original *models.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price must be zero or greater")
	}
	if original == nil {
		return nil
	}
	if !original.GreaterThan(price.Decimal) {
		return fmt.Errorf("originalPrice must be greater than price")
	}
	return nil
}

// resolvePriceUpdate merges a partial price edit into the stored values. A price
// drop that leaves the stored originalPrice at or below the new price is rejected
// unless the markdown is cleared in the same request.
func resolvePriceUpdate(existingPrice models.Decimal, existingOriginal *models.Decimal, input priceUpdateInput) (priceUpdateResult, error) {
	result := priceUpdateResult{
		Price:         existingPrice,
		OriginalPrice: existingOriginal,
	}

	if input.Price != nil {
		result.Price = *input.Price
		result.SetPrice = true
	}

	if input.ClearOriginal {
		result.OriginalPrice = nil
		result.SetOriginal = true
	} else if input.OriginalPrice != nil {
		original := *input.OriginalPrice
		result.OriginalPrice = &original
		result.SetOriginal = true
	}

	if err := validatePriceFields(result.Price, result.OriginalPrice); err != nil {
		return priceUpdateResult{}, err
	}

	return result, nil
}
