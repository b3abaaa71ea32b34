package workflow

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
)

func invoicePostingMessages(ctx context.Context, companyId int, invoice *models.Invoice) ([]string, error) {

	var messages []string

	if invoice.IsPosted != nil && *invoice.IsPosted {
		messages = append(messages,
			fmt.Sprintf("invoice %s is already posted as voucher %s", invoice.InvoiceNo, invoice.VoucherNo))
	}
	if !invoice.ApprovalStatus.IsApprovedForPosting() {
		messages = append(messages,
			fmt.Sprintf("invoice %s approval status is %s", invoice.InvoiceNo, invoice.ApprovalStatus))
	}
	if !invoice.TotalAmount.IsPositive() {
		messages = append(messages,
			fmt.Sprintf("invoice %s total must be greater than zero", invoice.InvoiceNo))
	}
	switch invoice.InvoiceStatus {
	case models.InvoiceStatusDraft:
		messages = append(messages,
			fmt.Sprintf("invoice %s is still a draft, issue it before posting", invoice.InvoiceNo))
	case models.InvoiceStatusVoid:
		messages = append(messages,
			fmt.Sprintf("invoice %s is void and cannot be posted", invoice.InvoiceNo))
	}
	if err := models.ValidatePeriodLock(ctx, companyId, invoice.InvoiceDate.Time()); err != nil {
		messages = append(messages, err.Error())
	}

	return messages, nil
}

// ValidateInvoiceForPosting is the read-only preflight for mode 9.
func ValidateInvoiceForPosting(ctx context.Context, invoiceId int) (*PostingValidation, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	invoice, err := utils.FetchModel[models.Invoice](ctx, companyId, invoiceId)
	if err != nil {
		return nil, err
	}

	messages, err := invoicePostingMessages(ctx, companyId, invoice)
	if err != nil {
		return nil, err
	}
	return &PostingValidation{
		IsValid:            len(messages) == 0,
		ValidationMessages: messages,
	}, nil
}

// buildInvoicePostingEntries books the receivable against income and tax.
// Rent and charge lines credit separate income accounts.
func buildInvoicePostingEntries(invoice *models.Invoice) []*models.PostingEntry {

	rentIncome := decimal.Zero
	chargeIncome := decimal.Zero
	for _, line := range invoice.Lines {
		switch line.LineType {
		case models.InvoiceLineTypeCharge:
			chargeIncome = chargeIncome.Add(line.Amount)
		default:
			rentIncome = rentIncome.Add(line.Amount)
		}
	}

	entries := []*models.PostingEntry{
		models.NewPostingEntry(models.AccountCodeTenantReceivable,
			invoice.TotalAmount, decimal.Zero, "Invoice "+invoice.InvoiceNo+" to "+invoice.TenantName),
	}
	if rentIncome.IsPositive() {
		entries = append(entries, models.NewPostingEntry(models.AccountCodeRentalIncome,
			decimal.Zero, rentIncome, "Invoice "+invoice.InvoiceNo))
	}
	if chargeIncome.IsPositive() {
		entries = append(entries, models.NewPostingEntry(models.AccountCodeChargeIncome,
			decimal.Zero, chargeIncome, "Invoice "+invoice.InvoiceNo))
	}
	if invoice.TaxAmount.IsPositive() {
		entries = append(entries, models.NewPostingEntry(models.AccountCodeTaxPayable,
			decimal.Zero, invoice.TaxAmount, "Invoice "+invoice.InvoiceNo))
	}
	return entries
}

// PostInvoiceToGL writes the invoice voucher and stamps the invoice.
func PostInvoiceToGL(ctx context.Context, invoiceId int) (*models.Invoice, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	invoice, err := utils.FetchModel[models.Invoice](ctx, companyId, invoiceId, "Lines")
	if err != nil {
		return nil, err
	}
	if invoice.IsPosted != nil && *invoice.IsPosted {
		return nil, fmt.Errorf("invoice %s is already posted as voucher %s", invoice.InvoiceNo, invoice.VoucherNo)
	}

	messages, err := invoicePostingMessages(ctx, companyId, invoice)
	if err != nil {
		return nil, err
	}
	if len(messages) > 0 {
		return nil, errors.New(messages[0])
	}

	seqNo, err := utils.GetSequence[models.GLPosting](ctx, companyId)
	if err != nil {
		return nil, err
	}
	userName, _ := utils.GetUserNameFromContext(ctx)

	posting := models.GLPosting{
		CompanyId:     companyId,
		VoucherNo:     fmt.Sprintf("%s%06d", models.InvoiceVoucherPrefix, seqNo),
		PostingDate:   invoice.InvoiceDate,
		ReferenceType: models.PostingReferenceTypeInvoice,
		ReferenceId:   invoice.ID,
		Description:   "Invoice " + invoice.InvoiceNo,
		IsReversal:    utils.NewFalse(),
		PostedBy:      userName,
		Entries:       buildInvoicePostingEntries(invoice),
	}
	if err := posting.Validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := AcquireCompanyPostingLock(db, companyId); err != nil {
		return nil, err
	}
	defer ReleaseCompanyPostingLock(db, companyId)

	tx := db.Begin()

	var postedCount int64
	if err := tx.WithContext(ctx).Model(&models.Invoice{}).
		Where("id = ? AND is_posted = ?", invoice.ID, true).
		Count(&postedCount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if postedCount > 0 {
		tx.Rollback()
		return nil, fmt.Errorf("invoice %s is already posted", invoice.InvoiceNo)
	}

	if err := tx.WithContext(ctx).Create(&posting).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&invoice).Updates(map[string]interface{}{
		"IsPosted":  true,
		"PostingId": posting.ID,
		"VoucherNo": posting.VoucherNo,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.SaveHistory(tx.WithContext(ctx), "POST", invoice.ID, "invoices", nil, nil,
		fmt.Sprintf("posted invoice %s as voucher %s", invoice.InvoiceNo, posting.VoucherNo)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := invoice.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return invoice, nil
}

// ReverseInvoicePosting writes a REV- voucher against a posted invoice.
// The invoice keeps its posting linkage and cannot be posted again.
func ReverseInvoicePosting(ctx context.Context, invoiceId int, reason string) (*models.Invoice, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}
	if reason == "" {
		return nil, errors.New("a reason is required to reverse a posting")
	}

	invoice, err := utils.FetchModel[models.Invoice](ctx, companyId, invoiceId)
	if err != nil {
		return nil, err
	}
	if invoice.IsPosted == nil || !*invoice.IsPosted {
		return nil, fmt.Errorf("invoice %s has not been posted", invoice.InvoiceNo)
	}

	original, err := utils.FetchModel[models.GLPosting](ctx, companyId, invoice.PostingId, "Entries")
	if err != nil {
		return nil, err
	}

	reversal, err := reversePosting(ctx, companyId, original, reason)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := AcquireCompanyPostingLock(db, companyId); err != nil {
		return nil, err
	}
	defer ReleaseCompanyPostingLock(db, companyId)

	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(reversal).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&models.GLPosting{}).
		Where("id = ?", original.ID).
		Updates(map[string]interface{}{
			"ReversedByPostingId": reversal.ID,
			"ReversalReason":      reason,
		}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&invoice).Updates(map[string]interface{}{
		"StatusReason": reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.SaveHistory(tx.WithContext(ctx), "REVERSE", invoice.ID, "invoices", nil, nil,
		fmt.Sprintf("reversed invoice %s voucher %s with %s: %s",
			invoice.InvoiceNo, original.VoucherNo, reversal.VoucherNo, reason)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := invoice.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return invoice, nil
}
