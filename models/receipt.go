package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Receipt struct {
	ID             int             `gorm:"primary_key" json:"ReceiptID"`
	CompanyId      int             `gorm:"index;not null" json:"CompanyID"`
	ReceiptNo      string          `gorm:"size:255;not null" json:"ReceiptNo"`
	SequenceNo     decimal.Decimal `gorm:"type:decimal(15);not null" json:"SequenceNo"`
	ContractId     int             `gorm:"index;not null" json:"ContractID"`
	ContractNo     string          `gorm:"size:255" json:"ContractNo"`
	TenantName     string          `gorm:"size:100" json:"TenantName"`
	ReceiptDate    DateString      `gorm:"type:date;not null" json:"ReceiptDate"`
	PaymentType    PaymentType     `gorm:"type:enum('Cash','Cheque','BankTransfer','Card');default:'Cash';not null" json:"PaymentType"`
	Amount         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"Amount"`
	PaymentStatus  PaymentStatus   `gorm:"type:enum('Pending','Received','Deposited','PendingClearance','Cleared','Bounced','Cancelled','Reversed');default:'Pending';not null" json:"PaymentStatus"`
	ApprovalStatus ApprovalStatus  `gorm:"type:enum('Pending','Approved','Rejected','NotRequired');default:'Pending';not null" json:"ApprovalStatus"`
	ChequeNo       string          `gorm:"size:50" json:"ChequeNo"`
	ChequeDate     *DateString     `gorm:"type:date" json:"ChequeDate"`
	BankName       string          `gorm:"size:100" json:"BankName"`
	DepositAccount string          `gorm:"size:100" json:"DepositAccount"`
	DepositDate    *DateString     `gorm:"type:date" json:"DepositDate"`
	ClearanceDate  *DateString     `gorm:"type:date" json:"ClearanceDate"`
	StatusReason   string          `gorm:"type:text" json:"StatusReason"`
	IsPosted       *bool           `gorm:"not null;default:false" json:"IsPosted"`
	PostingId      int             `gorm:"default:null" json:"PostingID"`
	VoucherNo      string          `gorm:"size:50" json:"VoucherNo"`
	Notes          string          `gorm:"type:text" json:"Notes"`
	Attachments    []*Attachment   `gorm:"polymorphic:Reference" json:"Attachments,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewReceipt struct {
	ContractId  int              `json:"ContractID" validate:"required"`
	ReceiptDate DateString       `json:"ReceiptDate" validate:"required"`
	PaymentType PaymentType      `json:"PaymentType"`
	Amount      decimal.Decimal  `json:"Amount" validate:"required"`
	ChequeNo    string           `json:"ChequeNo"`
	ChequeDate  *DateString      `json:"ChequeDate"`
	BankName    string           `json:"BankName"`
	Notes       string           `json:"Notes"`
	Attachments []*NewAttachment `json:"Attachments"`
}

type ReceiptSearchInput struct {
	SearchText     string         `json:"SearchText"`
	ContractId     int            `json:"ContractID"`
	PaymentType    PaymentType    `json:"PaymentType"`
	PaymentStatus  PaymentStatus  `json:"PaymentStatus"`
	ApprovalStatus ApprovalStatus `json:"ApprovalStatus"`
	DateFrom       *DateString    `json:"DateFrom"`
	DateTo         *DateString    `json:"DateTo"`
	IsPosted       *bool          `json:"IsPosted"`
	PageNumber     int            `json:"PageNumber"`
	PageSize       int            `json:"PageSize"`
}

// ReceiptStatusChange carries the target state plus the fields that state
// requires (deposit, clearance, bounce/cancel reason).
type ReceiptStatusChange struct {
	NewStatus      PaymentStatus `json:"NewStatus" validate:"required"`
	DepositAccount string        `json:"DepositAccount"`
	DepositDate    *DateString   `json:"DepositDate"`
	ClearanceDate  *DateString   `json:"ClearanceDate"`
	Reason         string        `json:"Reason"`
}

// ReceiptClearanceInput settles a batch of deposited cheques in one call.
type ReceiptClearanceInput struct {
	ReceiptIds    []int         `json:"ReceiptIDs" validate:"required,min=1"`
	Outcome       PaymentStatus `json:"Outcome" validate:"required"`
	ClearanceDate DateString    `json:"ClearanceDate" validate:"required"`
	Reason        string        `json:"Reason"`
}

type ReceiptStatusStatistics struct {
	PaymentStatus PaymentStatus   `json:"PaymentStatus"`
	ReceiptCount  int64           `json:"ReceiptCount"`
	TotalAmount   decimal.Decimal `json:"TotalAmount"`
}

type ReceiptMonthlyStatistics struct {
	Month        string          `json:"Month"`
	ReceiptCount int64           `json:"ReceiptCount"`
	TotalAmount  decimal.Decimal `json:"TotalAmount"`
}

type ReceiptStatistics struct {
	ByStatus []*ReceiptStatusStatistics  `json:"byStatus"`
	Monthly  []*ReceiptMonthlyStatistics `json:"monthly"`
}

type ReceiptExcelExport struct {
	FileName    string `json:"FileName"`
	FileContent []byte `json:"FileContent"`
}

func (obj Receipt) GetId() int {
	return obj.ID
}

func (obj Receipt) GetCompanyId() int {
	return obj.CompanyId
}

func (input *NewReceipt) validate(ctx context.Context, companyId int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Contract](ctx, companyId, input.ContractId); err != nil {
		return errors.New("contract not found")
	}
	if !input.Amount.IsPositive() {
		return errors.New("receipt amount must be greater than zero")
	}
	if input.PaymentType != "" && !input.PaymentType.IsValid() {
		return errors.New("invalid payment type")
	}
	if input.PaymentType.IsCheque() {
		if input.ChequeNo == "" || input.ChequeDate == nil || input.BankName == "" {
			return errors.New("cheque number, cheque date and bank name are required for cheque receipts")
		}
	}
	// receipt date must fall in an open period
	if err := validatePeriodLock(ctx, companyId, input.ReceiptDate.Time()); err != nil {
		return err
	}
	return nil
}

func CreateReceipt(ctx context.Context, input *NewReceipt) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if input.PaymentType == "" {
		input.PaymentType = PaymentTypeCash
	}
	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	contract, err := utils.FetchModel[Contract](ctx, companyId, input.ContractId)
	if err != nil {
		return nil, err
	}
	if contract.ContractStatus == ContractStatusDraft || contract.ContractStatus == ContractStatusCancelled {
		return nil, fmt.Errorf("cannot record a receipt against a %s contract", contract.ContractStatus)
	}

	approvalStatus := ApprovalStatusNotRequired
	if config.ReceiptApprovalRequired() {
		approvalStatus = ApprovalStatusPending
	}

	receipt := Receipt{
		CompanyId:      companyId,
		ContractId:     contract.ID,
		ContractNo:     contract.ContractNo,
		TenantName:     contract.TenantName,
		ReceiptDate:    input.ReceiptDate,
		PaymentType:    input.PaymentType,
		Amount:         input.Amount,
		PaymentStatus:  PaymentStatusPending,
		ApprovalStatus: approvalStatus,
		ChequeNo:       input.ChequeNo,
		ChequeDate:     input.ChequeDate,
		BankName:       input.BankName,
		IsPosted:       utils.NewFalse(),
		Notes:          input.Notes,
	}

	seqNo, err := utils.GetSequence[Receipt](ctx, companyId)
	if err != nil {
		return nil, err
	}
	receipt.SequenceNo = decimal.NewFromInt(seqNo)
	receipt.ReceiptNo = formatDocumentNumber(ReceiptNumberPrefix, seqNo)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "receipts", receipt.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "CREATE", receipt.ID, "receipts", nil, &receipt,
		"created receipt "+receipt.ReceiptNo); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &receipt, nil
}

// editableReceiptStatuses are the only payment states in which the document
// fields may still change.
func receiptIsEditable(status PaymentStatus) bool {
	return status == PaymentStatusPending || status == PaymentStatusReceived
}

func UpdateReceipt(ctx context.Context, id int, input *NewReceipt) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if input.PaymentType == "" {
		input.PaymentType = PaymentTypeCash
	}
	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	receipt, err := utils.FetchModel[Receipt](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if receipt.IsPosted != nil && *receipt.IsPosted {
		return nil, fmt.Errorf("receipt %s has been posted and can no longer be edited", receipt.ReceiptNo)
	}
	if !receiptIsEditable(receipt.PaymentStatus) {
		return nil, fmt.Errorf("receipt %s is %s and can no longer be edited", receipt.ReceiptNo, receipt.PaymentStatus)
	}
	if receipt.ApprovalStatus == ApprovalStatusApproved {
		return nil, fmt.Errorf("receipt %s has been approved and can no longer be edited", receipt.ReceiptNo)
	}
	// the period holding the current date must be open as well
	if err := validatePeriodLock(ctx, companyId, receipt.ReceiptDate.Time()); err != nil {
		return nil, err
	}

	contract, err := utils.FetchModel[Contract](ctx, companyId, input.ContractId)
	if err != nil {
		return nil, err
	}
	if contract.ContractStatus == ContractStatusDraft || contract.ContractStatus == ContractStatusCancelled {
		return nil, fmt.Errorf("cannot record a receipt against a %s contract", contract.ContractStatus)
	}

	oldReceipt := *receipt

	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&receipt).Updates(map[string]interface{}{
		"ContractId":  contract.ID,
		"ContractNo":  contract.ContractNo,
		"TenantName":  contract.TenantName,
		"ReceiptDate": input.ReceiptDate,
		"PaymentType": input.PaymentType,
		"Amount":      input.Amount,
		"ChequeNo":    input.ChequeNo,
		"ChequeDate":  input.ChequeDate,
		"BankName":    input.BankName,
		"Notes":       input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "receipts", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	receipt.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "UPDATE", id, "receipts", &oldReceipt, receipt,
		"updated receipt "+receipt.ReceiptNo); err != nil {
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

func DeleteReceipt(ctx context.Context, id int) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Receipt](ctx, companyId, id, "Attachments")
	if err != nil {
		return nil, err
	}
	if result.IsPosted != nil && *result.IsPosted {
		return nil, fmt.Errorf("receipt %s has been posted and cannot be deleted", result.ReceiptNo)
	}
	if result.PaymentStatus != PaymentStatusPending && result.PaymentStatus != PaymentStatusCancelled {
		return nil, fmt.Errorf("receipt %s is %s and cannot be deleted", result.ReceiptNo, result.PaymentStatus)
	}
	if err := validatePeriodLock(ctx, companyId, result.ReceiptDate.Time()); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := deleteAttachments(ctx, tx, result.Attachments); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "DELETE", id, "receipts", result, nil,
		"deleted receipt "+result.ReceiptNo); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := result.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return result, nil
}

func GetReceipt(ctx context.Context, id int) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Receipt](ctx, companyId, id, "Attachments")
}

func GetReceipts(ctx context.Context) ([]*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var results []*Receipt
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Order("receipt_date DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func buildReceiptSearchQuery(ctx context.Context, companyId int, input *ReceiptSearchInput) *gorm.DB {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Receipt{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		like := "%" + input.SearchText + "%"
		dbCtx = dbCtx.Where("receipt_no LIKE ? OR contract_no LIKE ? OR tenant_name LIKE ? OR cheque_no LIKE ?",
			like, like, like, like)
	}
	if input.ContractId > 0 {
		dbCtx = dbCtx.Where("contract_id = ?", input.ContractId)
	}
	if input.PaymentType != "" {
		dbCtx = dbCtx.Where("payment_type = ?", input.PaymentType)
	}
	if input.PaymentStatus != "" {
		dbCtx = dbCtx.Where("payment_status = ?", input.PaymentStatus)
	}
	if input.ApprovalStatus != "" {
		dbCtx = dbCtx.Where("approval_status = ?", input.ApprovalStatus)
	}
	if input.DateFrom != nil {
		dbCtx = dbCtx.Where("receipt_date >= ?", input.DateFrom.Time())
	}
	if input.DateTo != nil {
		dbCtx = dbCtx.Where("receipt_date <= ?", input.DateTo.Time())
	}
	if input.IsPosted != nil {
		dbCtx = dbCtx.Where("is_posted = ?", *input.IsPosted)
	}
	return dbCtx
}

func SearchReceipts(ctx context.Context, input *ReceiptSearchInput) (*SearchPage[Receipt], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	dbCtx := buildReceiptSearchQuery(ctx, companyId, input)
	return FetchPageOffset[Receipt](dbCtx, input.PageNumber, input.PageSize, "receipt_date DESC", "id DESC")
}

func joinPaymentStatuses(statuses []PaymentStatus) string {
	if len(statuses) == 0 {
		return "none"
	}
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

// ChangeReceiptPaymentStatus walks the receipt through the payment lifecycle.
// The adjacency and the cheque-only deposit flow are enforced here, the
// client-side check is advisory only.
func ChangeReceiptPaymentStatus(ctx context.Context, id int, input *ReceiptStatusChange) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := utils.FetchModel[Receipt](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := validatePeriodLock(ctx, companyId, receipt.ReceiptDate.Time()); err != nil {
		return nil, err
	}

	oldStatus := receipt.PaymentStatus
	newStatus := input.NewStatus
	if !CanTransitionPaymentStatus(oldStatus, newStatus, receipt.PaymentType) {
		return nil, fmt.Errorf("receipt %s cannot move from %s to %s (allowed: %s)",
			receipt.ReceiptNo, oldStatus, newStatus,
			joinPaymentStatuses(AllowedNextPaymentStatuses(oldStatus, receipt.PaymentType)))
	}

	updates := map[string]interface{}{
		"PaymentStatus": newStatus,
	}

	switch newStatus {
	case PaymentStatusDeposited:
		if input.DepositDate == nil || input.DepositAccount == "" {
			return nil, errors.New("deposit date and deposit account are required to deposit a cheque")
		}
		updates["DepositDate"] = *input.DepositDate
		updates["DepositAccount"] = input.DepositAccount
	case PaymentStatusCleared:
		if input.ClearanceDate == nil {
			return nil, errors.New("clearance date is required to clear a receipt")
		}
		updates["ClearanceDate"] = *input.ClearanceDate
	case PaymentStatusBounced:
		if input.Reason == "" {
			return nil, errors.New("a reason is required to bounce a receipt")
		}
	case PaymentStatusCancelled:
		if receipt.IsPosted != nil && *receipt.IsPosted {
			return nil, fmt.Errorf("receipt %s has been posted, reverse the posting instead", receipt.ReceiptNo)
		}
		if input.Reason == "" {
			return nil, errors.New("a reason is required to cancel a receipt")
		}
	}
	if input.Reason != "" {
		updates["StatusReason"] = input.Reason
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&receipt).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", receipt.ID, "receipts", nil, nil,
		fmt.Sprintf("receipt %s moved from %s to %s", receipt.ReceiptNo, oldStatus, newStatus)); err != nil {
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

func GetReceiptsByPaymentStatus(ctx context.Context, status PaymentStatus) ([]*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, errors.New("invalid payment status")
	}

	var results []*Receipt
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("company_id = ? AND payment_status = ?", companyId, status).
		Order("receipt_date DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetReceiptsPendingClearance lists the cheques sitting at the bank.
func GetReceiptsPendingClearance(ctx context.Context) ([]*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var results []*Receipt
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("company_id = ? AND payment_type = ? AND payment_status IN ?",
			companyId, PaymentTypeCheque,
			[]PaymentStatus{PaymentStatusDeposited, PaymentStatusPendingClearance}).
		Order("deposit_date ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateReceiptClearance settles a batch of deposited cheques as cleared or
// bounced in one transaction.
func UpdateReceiptClearance(ctx context.Context, input *ReceiptClearanceInput) ([]*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if input.Outcome != PaymentStatusCleared && input.Outcome != PaymentStatusBounced {
		return nil, errors.New("clearance outcome must be Cleared or Bounced")
	}
	if input.Outcome == PaymentStatusBounced && input.Reason == "" {
		return nil, errors.New("a reason is required to bounce a receipt")
	}

	db := config.GetDB()
	tx := db.Begin()

	var results []*Receipt
	for _, id := range input.ReceiptIds {
		receipt, err := utils.FetchModel[Receipt](ctx, companyId, id)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		if !receipt.PaymentType.IsCheque() {
			tx.Rollback()
			return nil, fmt.Errorf("receipt %s is not a cheque receipt", receipt.ReceiptNo)
		}
		if !CanTransitionPaymentStatus(receipt.PaymentStatus, input.Outcome, receipt.PaymentType) {
			tx.Rollback()
			return nil, fmt.Errorf("receipt %s cannot move from %s to %s",
				receipt.ReceiptNo, receipt.PaymentStatus, input.Outcome)
		}
		if err := validatePeriodLock(ctx, companyId, receipt.ReceiptDate.Time()); err != nil {
			tx.Rollback()
			return nil, err
		}

		oldStatus := receipt.PaymentStatus
		updates := map[string]interface{}{
			"PaymentStatus": input.Outcome,
			"ClearanceDate": input.ClearanceDate,
		}
		if input.Reason != "" {
			updates["StatusReason"] = input.Reason
		}
		if err := tx.WithContext(ctx).Model(&receipt).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := createHistory(tx.WithContext(ctx), "UPDATE", receipt.ID, "receipts", nil, nil,
			fmt.Sprintf("receipt %s moved from %s to %s", receipt.ReceiptNo, oldStatus, input.Outcome)); err != nil {
			tx.Rollback()
			return nil, err
		}
		results = append(results, receipt)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	for _, receipt := range results {
		if err := receipt.RemoveInstanceRedis(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// ChangeReceiptApprovalStatus moves the approval machine, Pending to
// Approved or Rejected only. Receipts have no approval reset.
func ChangeReceiptApprovalStatus(ctx context.Context, id int, newStatus ApprovalStatus) (*Receipt, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	receipt, err := utils.FetchModel[Receipt](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := validatePeriodLock(ctx, companyId, receipt.ReceiptDate.Time()); err != nil {
		return nil, err
	}

	oldStatus := receipt.ApprovalStatus
	if !oldStatus.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("receipt %s approval cannot move from %s to %s",
			receipt.ReceiptNo, oldStatus, newStatus)
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&receipt).
		Update("ApprovalStatus", newStatus).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", receipt.ID, "receipts", nil, nil,
		fmt.Sprintf("receipt %s approval moved from %s to %s", receipt.ReceiptNo, oldStatus, newStatus)); err != nil {
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

// GetReceiptStatistics returns the count and amount per payment status plus
// collected totals for the last twelve months.
func GetReceiptStatistics(ctx context.Context) (*ReceiptStatistics, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stats := ReceiptStatistics{
		ByStatus: []*ReceiptStatusStatistics{},
		Monthly:  []*ReceiptMonthlyStatistics{},
	}

	if err := db.WithContext(ctx).Model(&Receipt{}).
		Select("payment_status, count(*) AS receipt_count, sum(amount) AS total_amount").
		Where("company_id = ?", companyId).
		Group("payment_status").
		Order("payment_status").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	collectable := []PaymentStatus{
		PaymentStatusReceived, PaymentStatusDeposited,
		PaymentStatusPendingClearance, PaymentStatusCleared,
	}
	if err := db.WithContext(ctx).Model(&Receipt{}).
		Select("DATE_FORMAT(receipt_date, '%Y-%m') AS month, count(*) AS receipt_count, sum(amount) AS total_amount").
		Where("company_id = ? AND receipt_date >= ? AND payment_status IN ?", companyId, monthStart, collectable).
		Group("month").
		Order("month").
		Scan(&stats.Monthly).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

// ExportReceiptsExcel renders the receipts matching the filter into a
// workbook, returned inline for the envelope and the download route.
func ExportReceiptsExcel(ctx context.Context, input *ReceiptSearchInput) (*ReceiptExcelExport, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var receipts []*Receipt
	if err := buildReceiptSearchQuery(ctx, companyId, input).
		Order("receipt_date ASC, id ASC").
		Find(&receipts).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Receipts"
	f.SetSheetName("Sheet1", sheet)

	headings := []string{
		"ReceiptNo", "ReceiptDate", "ContractNo", "TenantName", "PaymentType",
		"Amount", "PaymentStatus", "ApprovalStatus", "ChequeNo", "BankName", "VoucherNo",
	}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheet, string(col)+"1", h)
		col++
	}

	for i, receipt := range receipts {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, receipt.ReceiptNo)
		f.SetCellValue(sheet, "B"+row, receipt.ReceiptDate.Format())
		f.SetCellValue(sheet, "C"+row, receipt.ContractNo)
		f.SetCellValue(sheet, "D"+row, receipt.TenantName)
		f.SetCellValue(sheet, "E"+row, string(receipt.PaymentType))
		f.SetCellValue(sheet, "F"+row, receipt.Amount.InexactFloat64())
		f.SetCellValue(sheet, "G"+row, string(receipt.PaymentStatus))
		f.SetCellValue(sheet, "H"+row, string(receipt.ApprovalStatus))
		f.SetCellValue(sheet, "I"+row, receipt.ChequeNo)
		f.SetCellValue(sheet, "J"+row, receipt.BankName)
		f.SetCellValue(sheet, "K"+row, receipt.VoucherNo)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return &ReceiptExcelExport{
		FileName:    "receipts_" + time.Now().Format("20060102_150405") + ".xlsx",
		FileContent: buf.Bytes(),
	}, nil
}
