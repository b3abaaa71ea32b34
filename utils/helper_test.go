package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("sara.haddad@example.com"))
	assert.True(t, IsValidEmail("leasing@gulfgate.example.ae"))
	assert.False(t, IsValidEmail("not-an-email"))
	assert.False(t, IsValidEmail("missing@tld"))
	assert.False(t, IsValidEmail(""))
}

func TestCalculateTaxAmount(t *testing.T) {
	rate := decimal.NewFromInt(5)

	exclusive := CalculateTaxAmount(rate, decimal.NewFromInt(500), false)
	assert.True(t, exclusive.Equal(decimal.NewFromInt(25)), "got %s", exclusive)

	// 525 inclusive of 5% tax carries 25 of tax
	inclusive := CalculateTaxAmount(rate, decimal.NewFromInt(525), true)
	assert.True(t, inclusive.Equal(decimal.NewFromInt(25)), "got %s", inclusive)

	assert.True(t, CalculateTaxAmount(decimal.Zero, decimal.NewFromInt(500), false).IsZero())
	assert.True(t, CalculateTaxAmount(rate, decimal.Zero, true).IsZero())
}

func TestCalculateDiscountAmount(t *testing.T) {
	subTotal := decimal.NewFromInt(1000)

	percent := CalculateDiscountAmount(subTotal, decimal.NewFromInt(10), "P")
	assert.True(t, percent.Equal(decimal.NewFromInt(100)), "got %s", percent)

	flat := CalculateDiscountAmount(subTotal, decimal.NewFromInt(75), "F")
	assert.True(t, flat.Equal(decimal.NewFromInt(75)))

	assert.True(t, CalculateDiscountAmount(subTotal, decimal.Zero, "P").IsZero())
}

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
	assert.Nil(t, UniqueSlice([]string(nil)))
}
