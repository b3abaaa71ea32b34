package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var modelValidator = validator.New()

// validateStruct runs tag validation and folds failures into one message.
func validateStruct(input interface{}) error {
	if err := modelValidator.Struct(input); err != nil {
		fieldErrors := utils.ProcessValidationErrors(err)
		for field, tag := range fieldErrors {
			return fmt.Errorf("%s failed %s validation", field, tag)
		}
		return err
	}
	return nil
}

func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
	}
	return uuid.NewString()
}

func companyIdFromContext(ctx context.Context) (int, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return 0, errors.New("company id is required")
	}
	return companyId, nil
}

/* document numbering */

const (
	ContractNumberPrefix = "CTR-"
	ReceiptNumberPrefix  = "RCT-"
	InvoiceNumberPrefix  = "INV-"
	ReceiptVoucherPrefix = "RV-"
	InvoiceVoucherPrefix = "IV-"
	// reversal vouchers reuse the original number behind this prefix
	ReversalNumberPrefix = "REV-"
)

func formatDocumentNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%06d", prefix, seq)
}

type PaymentTerms string

const (
	PaymentTermsDueOnReceipt  PaymentTerms = "DueOnReceipt"
	PaymentTermsNet15         PaymentTerms = "Net15"
	PaymentTermsNet30         PaymentTerms = "Net30"
	PaymentTermsNet45         PaymentTerms = "Net45"
	PaymentTermsNet60         PaymentTerms = "Net60"
	PaymentTermsDueEndOfMonth PaymentTerms = "DueEndOfMonth"
	PaymentTermsCustom        PaymentTerms = "Custom"
)

func (p PaymentTerms) IsValid() bool {
	switch p {
	case PaymentTermsDueOnReceipt, PaymentTermsNet15, PaymentTermsNet30,
		PaymentTermsNet45, PaymentTermsNet60, PaymentTermsDueEndOfMonth, PaymentTermsCustom:
		return true
	}
	return false
}

func calculateDueDate(date time.Time, paymentTerms PaymentTerms, customDays int) *time.Time {
	var dueDate time.Time
	switch terms := paymentTerms; terms {
	case PaymentTermsDueOnReceipt:
		dueDate = date
	case PaymentTermsNet15:
		dueDate = date.AddDate(0, 0, 15)
	case PaymentTermsNet30:
		dueDate = date.AddDate(0, 0, 30)
	case PaymentTermsNet45:
		dueDate = date.AddDate(0, 0, 45)
	case PaymentTermsNet60:
		dueDate = date.AddDate(0, 0, 60)
	case PaymentTermsDueEndOfMonth:
		year, month, _ := date.Date()
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, date.Location())
		dueDate = firstOfMonth.AddDate(0, 1, -1)
	case PaymentTermsCustom:
		dueDate = date.AddDate(0, 0, customDays)
	default:
		dueDate = date
	}
	return &dueDate
}

/* accounting period lock */

// validatePeriodLock refuses document writes dated inside a closed period.
// Dates outside any generated period are allowed; period coverage is not
// mandatory before bookkeeping starts.
func validatePeriodLock(ctx context.Context, companyId int, documentDate time.Time) error {
	period, err := findPeriodForDate(ctx, companyId, documentDate)
	if err != nil {
		return err
	}
	if period == nil {
		return nil
	}
	if period.IsClosed {
		return fmt.Errorf("accounting period %s is closed", period.PeriodName)
	}
	return nil
}

// ValidatePeriodLock enforces period close server-side.
// Safe to call from both dispatch mutations and background workers.
func ValidatePeriodLock(ctx context.Context, companyId int, documentDate time.Time) error {
	return validatePeriodLock(ctx, companyId, documentDate)
}
