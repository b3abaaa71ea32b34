package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDocumentNumber(t *testing.T) {
	assert.Equal(t, "RCT-000001", formatDocumentNumber(ReceiptNumberPrefix, 1))
	assert.Equal(t, "INV-000042", formatDocumentNumber(InvoiceNumberPrefix, 42))
	assert.Equal(t, "CTR-123456", formatDocumentNumber(ContractNumberPrefix, 123456))
	// sequences past six digits widen instead of truncating
	assert.Equal(t, "RV-1000000", formatDocumentNumber(ReceiptVoucherPrefix, 1000000))
}

func TestCalculateDueDate(t *testing.T) {
	base := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		terms      PaymentTerms
		customDays int
		want       time.Time
	}{
		{PaymentTermsDueOnReceipt, 0, base},
		{PaymentTermsNet15, 0, base.AddDate(0, 0, 15)},
		{PaymentTermsNet30, 0, base.AddDate(0, 0, 30)},
		{PaymentTermsNet45, 0, base.AddDate(0, 0, 45)},
		{PaymentTermsNet60, 0, base.AddDate(0, 0, 60)},
		{PaymentTermsDueEndOfMonth, 0, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
		{PaymentTermsCustom, 7, base.AddDate(0, 0, 7)},
	}
	for _, tc := range tests {
		got := calculateDueDate(base, tc.terms, tc.customDays)
		require.NotNil(t, got)
		assert.Truef(t, got.Equal(tc.want), "%s: want %s got %s", tc.terms, tc.want, got)
	}
}

func TestCalculateDueDateEndOfFebruary(t *testing.T) {
	base := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	got := calculateDueDate(base, PaymentTermsDueEndOfMonth, 0)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), *got)
}

func TestPaymentTermsIsValid(t *testing.T) {
	for _, terms := range []PaymentTerms{
		PaymentTermsDueOnReceipt, PaymentTermsNet15, PaymentTermsNet30,
		PaymentTermsNet45, PaymentTermsNet60, PaymentTermsDueEndOfMonth, PaymentTermsCustom,
	} {
		assert.Truef(t, terms.IsValid(), "%s", terms)
	}
	assert.False(t, PaymentTerms("Net90").IsValid())
	assert.False(t, PaymentTerms("").IsValid())
}
