package utils

import (
	"github.com/shopspring/decimal"
)

// CalculateTaxAmount derives the tax portion of an amount for a given rate.
// Inclusive amounts already contain the tax: (amount / (100 + rate)) * rate.
// Exclusive amounts add it on top: (amount / 100) * rate.
func CalculateTaxAmount(taxRate decimal.Decimal, amount decimal.Decimal, isTaxInclusive bool) decimal.Decimal {
	if taxRate.IsZero() || amount.IsZero() {
		return decimal.Zero
	}
	oneHundred := decimal.NewFromInt(100)
	if isTaxInclusive {
		return amount.DivRound(taxRate.Add(oneHundred), 4).Mul(taxRate)
	}
	return amount.DivRound(oneHundred, 4).Mul(taxRate)
}

// CalculateDiscountAmount resolves a discount spec against a subtotal.
// discountType "P" means percentage, anything else is a flat amount.
func CalculateDiscountAmount(subTotal decimal.Decimal, discount decimal.Decimal, discountType string) decimal.Decimal {

	var discountAmount decimal.Decimal

	decimalOneHundred := decimal.NewFromFloat(100)

	if discount.GreaterThan(decimal.NewFromFloat(0.0)) {
		if discountType == "P" {
			discountAmount = subTotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.NewFromFloat(0.0)
	}

	return discountAmount
}
