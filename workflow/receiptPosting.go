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

// PostingValidation reports every failed precondition, not just the first.
// The UI surfaces the list before offering the post action.
type PostingValidation struct {
	IsValid            bool     `json:"IsValid"`
	ValidationMessages []string `json:"validationMessages"`
}

// cashAccountForPaymentType routes the debit side of a receipt voucher.
// Only physical cash hits the cash account; everything else settles
// through bank clearing.
func cashAccountForPaymentType(paymentType models.PaymentType) string {
	if paymentType == models.PaymentTypeCash {
		return models.AccountCodeCash
	}
	return models.AccountCodeBankClearing
}

func receiptPostingMessages(ctx context.Context, companyId int, receipt *models.Receipt) ([]string, error) {

	var messages []string

	if receipt.IsPosted != nil && *receipt.IsPosted {
		messages = append(messages,
			fmt.Sprintf("receipt %s is already posted as voucher %s", receipt.ReceiptNo, receipt.VoucherNo))
	}
	if !receipt.ApprovalStatus.IsApprovedForPosting() {
		messages = append(messages,
			fmt.Sprintf("receipt %s approval status is %s", receipt.ReceiptNo, receipt.ApprovalStatus))
	}
	if !receipt.Amount.IsPositive() {
		messages = append(messages,
			fmt.Sprintf("receipt %s amount must be greater than zero", receipt.ReceiptNo))
	}
	switch receipt.PaymentStatus {
	case models.PaymentStatusReceived, models.PaymentStatusCleared:
	default:
		messages = append(messages,
			fmt.Sprintf("receipt %s payment status is %s, only Received or Cleared receipts can be posted",
				receipt.ReceiptNo, receipt.PaymentStatus))
	}
	if err := models.ValidatePeriodLock(ctx, companyId, receipt.ReceiptDate.Time()); err != nil {
		messages = append(messages, err.Error())
	}

	return messages, nil
}

// ValidateReceiptForPosting is the read-only preflight for mode 11.
func ValidateReceiptForPosting(ctx context.Context, receiptId int) (*PostingValidation, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	receipt, err := utils.FetchModel[models.Receipt](ctx, companyId, receiptId)
	if err != nil {
		return nil, err
	}

	messages, err := receiptPostingMessages(ctx, companyId, receipt)
	if err != nil {
		return nil, err
	}
	return &PostingValidation{
		IsValid:            len(messages) == 0,
		ValidationMessages: messages,
	}, nil
}

// PostReceiptToGL writes the receipt voucher and stamps the receipt.
// Posting is one-way: a posted receipt can only be reversed, never unposted.
func PostReceiptToGL(ctx context.Context, receiptId int) (*models.Receipt, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}

	receipt, err := utils.FetchModel[models.Receipt](ctx, companyId, receiptId)
	if err != nil {
		return nil, err
	}
	if receipt.IsPosted != nil && *receipt.IsPosted {
		return nil, fmt.Errorf("receipt %s is already posted as voucher %s", receipt.ReceiptNo, receipt.VoucherNo)
	}

	messages, err := receiptPostingMessages(ctx, companyId, receipt)
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
	voucherNo := fmt.Sprintf("%s%06d", models.ReceiptVoucherPrefix, seqNo)
	userName, _ := utils.GetUserNameFromContext(ctx)

	posting := models.GLPosting{
		CompanyId:     companyId,
		VoucherNo:     voucherNo,
		PostingDate:   receipt.ReceiptDate,
		ReferenceType: models.PostingReferenceTypeReceipt,
		ReferenceId:   receipt.ID,
		Description:   "Receipt " + receipt.ReceiptNo,
		IsReversal:    utils.NewFalse(),
		PostedBy:      userName,
		Entries: []*models.PostingEntry{
			models.NewPostingEntry(cashAccountForPaymentType(receipt.PaymentType),
				receipt.Amount, decimal.Zero, "Receipt "+receipt.ReceiptNo),
			models.NewPostingEntry(models.AccountCodeTenantReceivable,
				decimal.Zero, receipt.Amount, "Receipt "+receipt.ReceiptNo+" from "+receipt.TenantName),
		},
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

	// re-check under the lock, another instance may have posted meanwhile
	var postedCount int64
	if err := tx.WithContext(ctx).Model(&models.Receipt{}).
		Where("id = ? AND is_posted = ?", receipt.ID, true).
		Count(&postedCount).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if postedCount > 0 {
		tx.Rollback()
		return nil, fmt.Errorf("receipt %s is already posted", receipt.ReceiptNo)
	}

	if err := tx.WithContext(ctx).Create(&posting).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&receipt).Updates(map[string]interface{}{
		"IsPosted":  true,
		"PostingId": posting.ID,
		"VoucherNo": posting.VoucherNo,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.SaveHistory(tx.WithContext(ctx), "POST", receipt.ID, "receipts", nil, nil,
		fmt.Sprintf("posted receipt %s as voucher %s", receipt.ReceiptNo, posting.VoucherNo)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := receipt.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return receipt, nil
}

// reversePosting writes the REV- voucher for an original posting and links
// both directions. Shared by receipt and invoice reversal.
func reversePosting(ctx context.Context, companyId int, original *models.GLPosting, reason string) (*models.GLPosting, error) {

	if original.ReversedByPostingId != nil && *original.ReversedByPostingId > 0 {
		var existing models.GLPosting
		db := config.GetDB()
		if err := db.WithContext(ctx).First(&existing, *original.ReversedByPostingId).Error; err == nil {
			return nil, fmt.Errorf("posting %s was already reversed by voucher %s", original.VoucherNo, existing.VoucherNo)
		}
		return nil, fmt.Errorf("posting %s was already reversed", original.VoucherNo)
	}

	userName, _ := utils.GetUserNameFromContext(ctx)

	reversedEntries := make([]*models.PostingEntry, 0, len(original.Entries))
	for _, entry := range original.Entries {
		reversedEntries = append(reversedEntries, models.NewPostingEntry(
			entry.AccountCode, entry.Credit, entry.Debit, "Reversal: "+entry.Description))
	}

	reversal := models.GLPosting{
		CompanyId:         companyId,
		VoucherNo:         models.ReversalNumberPrefix + original.VoucherNo,
		PostingDate:       original.PostingDate,
		ReferenceType:     original.ReferenceType,
		ReferenceId:       original.ReferenceId,
		Description:       "Reversal of " + original.VoucherNo + ": " + reason,
		IsReversal:        utils.NewTrue(),
		ReversesPostingId: &original.ID,
		ReversalReason:    reason,
		PostedBy:          userName,
		Entries:           reversedEntries,
	}
	if err := reversal.Validate(); err != nil {
		return nil, err
	}
	return &reversal, nil
}

// ReverseReceiptPosting writes a REV- voucher against a posted receipt and
// moves the receipt to the terminal Reversed state.
func ReverseReceiptPosting(ctx context.Context, receiptId int, reason string) (*models.Receipt, error) {

	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}
	if reason == "" {
		return nil, errors.New("a reason is required to reverse a posting")
	}

	receipt, err := utils.FetchModel[models.Receipt](ctx, companyId, receiptId)
	if err != nil {
		return nil, err
	}
	if receipt.IsPosted == nil || !*receipt.IsPosted {
		return nil, fmt.Errorf("receipt %s has not been posted", receipt.ReceiptNo)
	}

	original, err := utils.FetchModel[models.GLPosting](ctx, companyId, receipt.PostingId, "Entries")
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

	if err := tx.WithContext(ctx).Model(&receipt).Updates(map[string]interface{}{
		"PaymentStatus": models.PaymentStatusReversed,
		"StatusReason":  reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := models.SaveHistory(tx.WithContext(ctx), "REVERSE", receipt.ID, "receipts", nil, nil,
		fmt.Sprintf("reversed receipt %s voucher %s with %s: %s",
			receipt.ReceiptNo, original.VoucherNo, reversal.VoucherNo, reason)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := receipt.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return receipt, nil
}
