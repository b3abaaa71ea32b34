package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type Invoice struct {
	ID             int             `gorm:"primary_key" json:"InvoiceID"`
	CompanyId      int             `gorm:"index;not null" json:"CompanyID"`
	InvoiceNo      string          `gorm:"size:255;not null" json:"InvoiceNo"`
	SequenceNo     decimal.Decimal `gorm:"type:decimal(15);not null" json:"SequenceNo"`
	ContractId     int             `gorm:"index;not null" json:"ContractID"`
	ContractNo     string          `gorm:"size:255" json:"ContractNo"`
	TenantName     string          `gorm:"size:100" json:"TenantName"`
	InvoiceDate    DateString      `gorm:"type:date;not null" json:"InvoiceDate"`
	DueDate        *DateString     `gorm:"type:date" json:"DueDate"`
	PaymentTerms   PaymentTerms    `gorm:"size:20;default:'Net30'" json:"PaymentTerms"`
	CustomDays     int             `gorm:"default:0" json:"CustomDays"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"SubTotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"TaxAmount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"TotalAmount"`
	InvoiceStatus  InvoiceStatus   `gorm:"type:enum('Draft','Issued','PartiallyPaid','Paid','Overdue','Void');default:'Draft';not null" json:"InvoiceStatus"`
	ApprovalStatus ApprovalStatus  `gorm:"type:enum('Pending','Approved','Rejected','NotRequired');default:'Pending';not null" json:"ApprovalStatus"`
	StatusReason   string          `gorm:"type:text" json:"StatusReason"`
	IsPosted       *bool           `gorm:"not null;default:false" json:"IsPosted"`
	PostingId      int             `gorm:"default:null" json:"PostingID"`
	VoucherNo      string          `gorm:"size:50" json:"VoucherNo"`
	Notes          string          `gorm:"type:text" json:"Notes"`
	Lines          []*InvoiceLine  `gorm:"foreignKey:InvoiceId" json:"Lines,omitempty"`
	Attachments    []*Attachment   `gorm:"polymorphic:Reference" json:"Attachments,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type InvoiceLineType string

const (
	InvoiceLineTypeRent   InvoiceLineType = "Rent"
	InvoiceLineTypeCharge InvoiceLineType = "Charge"
)

type InvoiceLine struct {
	ID          int             `gorm:"primary_key" json:"InvoiceLineID"`
	InvoiceId   int             `gorm:"index;not null" json:"InvoiceID"`
	LineType    InvoiceLineType `gorm:"type:enum('Rent','Charge');default:'Rent';not null" json:"LineType"`
	ChargeId    int             `gorm:"default:null" json:"ChargeID"`
	Description string          `gorm:"size:255;not null" json:"Description"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"Amount"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"TaxRate"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"TaxAmount"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"LineTotal"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewInvoice struct {
	ContractId   int               `json:"ContractID" validate:"required"`
	InvoiceDate  DateString        `json:"InvoiceDate" validate:"required"`
	PaymentTerms PaymentTerms      `json:"PaymentTerms"`
	CustomDays   int               `json:"CustomDays"`
	Notes        string            `json:"Notes"`
	Lines        []*NewInvoiceLine `json:"Lines"`
	Attachments  []*NewAttachment  `json:"Attachments"`
}

// NewInvoiceLine with zero Amount on a Charge line falls back to the
// contract's agreed charge amount.
type NewInvoiceLine struct {
	LineType    InvoiceLineType `json:"LineType"`
	ChargeId    int             `json:"ChargeID"`
	Description string          `json:"Description"`
	Amount      decimal.Decimal `json:"Amount"`
	TaxRate     decimal.Decimal `json:"TaxRate"`
}

type InvoiceSearchInput struct {
	SearchText     string         `json:"SearchText"`
	ContractId     int            `json:"ContractID"`
	InvoiceStatus  InvoiceStatus  `json:"InvoiceStatus"`
	ApprovalStatus ApprovalStatus `json:"ApprovalStatus"`
	DateFrom       *DateString    `json:"DateFrom"`
	DateTo         *DateString    `json:"DateTo"`
	IsPosted       *bool          `json:"IsPosted"`
	PageNumber     int            `json:"PageNumber"`
	PageSize       int            `json:"PageSize"`
}

type InvoiceStatusStatistics struct {
	InvoiceStatus InvoiceStatus   `json:"InvoiceStatus"`
	InvoiceCount  int64           `json:"InvoiceCount"`
	TotalAmount   decimal.Decimal `json:"TotalAmount"`
}

type InvoiceMonthlyStatistics struct {
	Month        string          `json:"Month"`
	InvoiceCount int64           `json:"InvoiceCount"`
	TotalAmount  decimal.Decimal `json:"TotalAmount"`
}

type InvoiceStatistics struct {
	ByStatus []*InvoiceStatusStatistics  `json:"byStatus"`
	Monthly  []*InvoiceMonthlyStatistics `json:"monthly"`
}

type InvoiceExcelExport struct {
	FileName    string `json:"FileName"`
	FileContent []byte `json:"FileContent"`
}

func (obj Invoice) GetId() int {
	return obj.ID
}

func (obj Invoice) GetCompanyId() int {
	return obj.CompanyId
}

func (input *NewInvoice) validate(ctx context.Context, companyId int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Contract](ctx, companyId, input.ContractId); err != nil {
		return errors.New("contract not found")
	}
	if input.PaymentTerms != "" && !input.PaymentTerms.IsValid() {
		return errors.New("invalid payment terms")
	}
	if input.PaymentTerms == PaymentTermsCustom && input.CustomDays <= 0 {
		return errors.New("custom payment terms require the number of days")
	}
	if err := validatePeriodLock(ctx, companyId, input.InvoiceDate.Time()); err != nil {
		return err
	}
	return nil
}

// buildInvoiceLines resolves the line inputs against the contract. An empty
// input builds the default rent-plus-charges set from the contract itself.
func buildInvoiceLines(ctx context.Context, contract *Contract, input []*NewInvoiceLine) ([]*InvoiceLine, error) {

	if len(input) == 0 {
		input = append(input, &NewInvoiceLine{
			LineType:    InvoiceLineTypeRent,
			Description: "Rent for unit " + contract.UnitNumber,
			Amount:      contract.RentAmount,
		})
		for _, charge := range contract.Charges {
			input = append(input, &NewInvoiceLine{
				LineType:    InvoiceLineTypeCharge,
				ChargeId:    charge.ChargeId,
				Description: charge.ChargeName,
				Amount:      charge.Amount,
			})
		}
	}

	chargeMap, err := MapAllCharges(ctx)
	if err != nil {
		return nil, err
	}
	contractCharges := make(map[int]*ContractCharge, len(contract.Charges))
	for _, charge := range contract.Charges {
		contractCharges[charge.ChargeId] = charge
	}

	var lines []*InvoiceLine
	for _, lineInput := range input {
		if lineInput.LineType == "" {
			lineInput.LineType = InvoiceLineTypeRent
		}
		line := InvoiceLine{
			LineType:    lineInput.LineType,
			ChargeId:    lineInput.ChargeId,
			Description: lineInput.Description,
			Amount:      lineInput.Amount,
			TaxRate:     lineInput.TaxRate,
		}

		switch lineInput.LineType {
		case InvoiceLineTypeRent:
			if line.Amount.IsZero() {
				line.Amount = contract.RentAmount
			}
			if line.Description == "" {
				line.Description = "Rent"
			}
		case InvoiceLineTypeCharge:
			master, ok := chargeMap[lineInput.ChargeId]
			if !ok {
				return nil, fmt.Errorf("charge %d not found", lineInput.ChargeId)
			}
			if line.Amount.IsZero() {
				if agreed, ok := contractCharges[lineInput.ChargeId]; ok {
					line.Amount = agreed.Amount
				} else {
					line.Amount = master.DefaultAmount
				}
			}
			if line.Description == "" {
				line.Description = master.ChargeName
			}
			if line.TaxRate.IsZero() && master.IsTaxable {
				resource, err := GetResource[Charge](ctx, lineInput.ChargeId)
				if err != nil {
					return nil, err
				}
				line.TaxRate = resource.TaxRate
			}
		default:
			return nil, fmt.Errorf("invalid invoice line type %q", string(lineInput.LineType))
		}

		if !line.Amount.IsPositive() {
			return nil, errors.New("line amount must be greater than zero for " + line.Description)
		}
		if line.TaxRate.IsNegative() {
			return nil, errors.New("tax rate cannot be negative for " + line.Description)
		}
		line.TaxAmount = utils.CalculateTaxAmount(line.TaxRate, line.Amount, false)
		line.LineTotal = line.Amount.Add(line.TaxAmount)
		lines = append(lines, &line)
	}
	return lines, nil
}

func sumInvoiceLines(invoice *Invoice, lines []*InvoiceLine) {
	invoice.SubTotal = decimal.Zero
	invoice.TaxAmount = decimal.Zero
	for _, line := range lines {
		invoice.SubTotal = invoice.SubTotal.Add(line.Amount)
		invoice.TaxAmount = invoice.TaxAmount.Add(line.TaxAmount)
	}
	invoice.TotalAmount = invoice.SubTotal.Add(invoice.TaxAmount)
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if input.PaymentTerms == "" {
		input.PaymentTerms = PaymentTermsNet30
	}
	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	contract, err := utils.FetchModel[Contract](ctx, companyId, input.ContractId, "Charges")
	if err != nil {
		return nil, err
	}
	if contract.ContractStatus == ContractStatusDraft || contract.ContractStatus == ContractStatusCancelled {
		return nil, fmt.Errorf("cannot raise an invoice against a %s contract", contract.ContractStatus)
	}

	lines, err := buildInvoiceLines(ctx, contract, input.Lines)
	if err != nil {
		return nil, err
	}

	dueDate := DateString(*calculateDueDate(input.InvoiceDate.Time(), input.PaymentTerms, input.CustomDays))
	invoice := Invoice{
		CompanyId:      companyId,
		ContractId:     contract.ID,
		ContractNo:     contract.ContractNo,
		TenantName:     contract.TenantName,
		InvoiceDate:    input.InvoiceDate,
		DueDate:        &dueDate,
		PaymentTerms:   input.PaymentTerms,
		CustomDays:     input.CustomDays,
		InvoiceStatus:  InvoiceStatusDraft,
		ApprovalStatus: ApprovalStatusPending,
		IsPosted:       utils.NewFalse(),
		Notes:          input.Notes,
		Lines:          lines,
	}
	sumInvoiceLines(&invoice, lines)

	seqNo, err := utils.GetSequence[Invoice](ctx, companyId)
	if err != nil {
		return nil, err
	}
	invoice.SequenceNo = decimal.NewFromInt(seqNo)
	invoice.InvoiceNo = formatDocumentNumber(InvoiceNumberPrefix, seqNo)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "invoices", invoice.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	invoice.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "CREATE", invoice.ID, "invoices", nil, &invoice,
		"created invoice "+invoice.InvoiceNo); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

func UpdateInvoice(ctx context.Context, id int, input *NewInvoice) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if input.PaymentTerms == "" {
		input.PaymentTerms = PaymentTermsNet30
	}
	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	invoice, err := utils.FetchModel[Invoice](ctx, companyId, id, "Lines")
	if err != nil {
		return nil, err
	}
	if invoice.IsPosted != nil && *invoice.IsPosted {
		return nil, fmt.Errorf("invoice %s has been posted and can no longer be edited", invoice.InvoiceNo)
	}
	if invoice.InvoiceStatus != InvoiceStatusDraft {
		return nil, fmt.Errorf("invoice %s is %s and can no longer be edited", invoice.InvoiceNo, invoice.InvoiceStatus)
	}
	if invoice.ApprovalStatus == ApprovalStatusApproved {
		return nil, fmt.Errorf("invoice %s has been approved and can no longer be edited", invoice.InvoiceNo)
	}
	if err := validatePeriodLock(ctx, companyId, invoice.InvoiceDate.Time()); err != nil {
		return nil, err
	}

	contract, err := utils.FetchModel[Contract](ctx, companyId, input.ContractId, "Charges")
	if err != nil {
		return nil, err
	}
	if contract.ContractStatus == ContractStatusDraft || contract.ContractStatus == ContractStatusCancelled {
		return nil, fmt.Errorf("cannot raise an invoice against a %s contract", contract.ContractStatus)
	}

	lines, err := buildInvoiceLines(ctx, contract, input.Lines)
	if err != nil {
		return nil, err
	}

	oldInvoice := *invoice
	dueDate := DateString(*calculateDueDate(input.InvoiceDate.Time(), input.PaymentTerms, input.CustomDays))

	invoice.ContractId = contract.ID
	invoice.ContractNo = contract.ContractNo
	invoice.TenantName = contract.TenantName
	invoice.InvoiceDate = input.InvoiceDate
	invoice.DueDate = &dueDate
	invoice.PaymentTerms = input.PaymentTerms
	invoice.CustomDays = input.CustomDays
	invoice.Notes = input.Notes
	sumInvoiceLines(invoice, lines)

	db := config.GetDB()
	tx := db.Begin()

	// line rows are replaced wholesale
	if err := tx.WithContext(ctx).Where("invoice_id = ?", id).Delete(&InvoiceLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, line := range lines {
		line.InvoiceId = id
	}
	invoice.Lines = lines

	if err := tx.WithContext(ctx).Save(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "invoices", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	invoice.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "UPDATE", id, "invoices", &oldInvoice, invoice,
		"updated invoice "+invoice.InvoiceNo); err != nil {
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

func DeleteInvoice(ctx context.Context, id int) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Invoice](ctx, companyId, id, "Attachments")
	if err != nil {
		return nil, err
	}
	if result.IsPosted != nil && *result.IsPosted {
		return nil, fmt.Errorf("invoice %s has been posted and cannot be deleted", result.InvoiceNo)
	}
	if result.InvoiceStatus != InvoiceStatusDraft {
		return nil, fmt.Errorf("invoice %s is %s, only draft invoices can be deleted", result.InvoiceNo, result.InvoiceStatus)
	}
	if err := validatePeriodLock(ctx, companyId, result.InvoiceDate.Time()); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("invoice_id = ?", id).Delete(&InvoiceLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := deleteAttachments(ctx, tx, result.Attachments); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "DELETE", id, "invoices", result, nil,
		"deleted invoice "+result.InvoiceNo); err != nil {
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

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Invoice](ctx, companyId, id, "Lines", "Attachments")
}

func GetInvoices(ctx context.Context) ([]*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var results []*Invoice
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("company_id = ?", companyId).
		Preload("Lines").
		Order("invoice_date DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func buildInvoiceSearchQuery(ctx context.Context, companyId int, input *InvoiceSearchInput) *gorm.DB {

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Invoice{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		like := "%" + input.SearchText + "%"
		dbCtx = dbCtx.Where("invoice_no LIKE ? OR contract_no LIKE ? OR tenant_name LIKE ?", like, like, like)
	}
	if input.ContractId > 0 {
		dbCtx = dbCtx.Where("contract_id = ?", input.ContractId)
	}
	if input.InvoiceStatus != "" {
		dbCtx = dbCtx.Where("invoice_status = ?", input.InvoiceStatus)
	}
	if input.ApprovalStatus != "" {
		dbCtx = dbCtx.Where("approval_status = ?", input.ApprovalStatus)
	}
	if input.DateFrom != nil {
		dbCtx = dbCtx.Where("invoice_date >= ?", input.DateFrom.Time())
	}
	if input.DateTo != nil {
		dbCtx = dbCtx.Where("invoice_date <= ?", input.DateTo.Time())
	}
	if input.IsPosted != nil {
		dbCtx = dbCtx.Where("is_posted = ?", *input.IsPosted)
	}
	return dbCtx
}

func SearchInvoices(ctx context.Context, input *InvoiceSearchInput) (*SearchPage[Invoice], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	dbCtx := buildInvoiceSearchQuery(ctx, companyId, input)
	return FetchPageOffset[Invoice](dbCtx, input.PageNumber, input.PageSize, "invoice_date DESC", "id DESC")
}

// ChangeInvoiceApprovalStatus moves the approval machine. Approval also
// issues a draft invoice; rejection leaves it in draft for rework.
func ChangeInvoiceApprovalStatus(ctx context.Context, id int, newStatus ApprovalStatus) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	invoice, err := utils.FetchModel[Invoice](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if err := validatePeriodLock(ctx, companyId, invoice.InvoiceDate.Time()); err != nil {
		return nil, err
	}

	oldStatus := invoice.ApprovalStatus
	if !oldStatus.CanTransitionTo(newStatus) {
		return nil, fmt.Errorf("invoice %s approval cannot move from %s to %s",
			invoice.InvoiceNo, oldStatus, newStatus)
	}

	updates := map[string]interface{}{
		"ApprovalStatus": newStatus,
	}
	if newStatus == ApprovalStatusApproved && invoice.InvoiceStatus.CanTransitionTo(InvoiceStatusIssued) {
		updates["InvoiceStatus"] = InvoiceStatusIssued
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&invoice).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", invoice.ID, "invoices", nil, nil,
		fmt.Sprintf("invoice %s approval moved from %s to %s", invoice.InvoiceNo, oldStatus, newStatus)); err != nil {
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

// ResetInvoiceApproval returns an approved or rejected invoice to Pending.
// Admin only, and never once the invoice reached the ledger.
func ResetInvoiceApproval(ctx context.Context, id int, reason string) (*Invoice, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	isAdmin, _ := utils.GetIsAdminFromContext(ctx)
	if !isAdmin {
		return nil, errors.New("only an administrator can reset invoice approval")
	}
	if reason == "" {
		return nil, errors.New("a reason is required to reset invoice approval")
	}

	invoice, err := utils.FetchModel[Invoice](ctx, companyId, id)
	if err != nil {
		return nil, err
	}
	if invoice.IsPosted != nil && *invoice.IsPosted {
		return nil, fmt.Errorf("invoice %s has been posted, approval can no longer be reset", invoice.InvoiceNo)
	}
	if invoice.ApprovalStatus != ApprovalStatusApproved && invoice.ApprovalStatus != ApprovalStatusRejected {
		return nil, fmt.Errorf("invoice %s approval is %s, nothing to reset", invoice.InvoiceNo, invoice.ApprovalStatus)
	}
	if err := validatePeriodLock(ctx, companyId, invoice.InvoiceDate.Time()); err != nil {
		return nil, err
	}

	oldStatus := invoice.ApprovalStatus

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&invoice).Updates(map[string]interface{}{
		"ApprovalStatus": ApprovalStatusPending,
		"StatusReason":   reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", invoice.ID, "invoices", nil, nil,
		fmt.Sprintf("invoice %s approval reset from %s to Pending: %s", invoice.InvoiceNo, oldStatus, reason)); err != nil {
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

// GetInvoiceStatistics returns the count and amount per invoice status plus
// issued totals for the last twelve months.
func GetInvoiceStatistics(ctx context.Context) (*InvoiceStatistics, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stats := InvoiceStatistics{
		ByStatus: []*InvoiceStatusStatistics{},
		Monthly:  []*InvoiceMonthlyStatistics{},
	}

	if err := db.WithContext(ctx).Model(&Invoice{}).
		Select("invoice_status, count(*) AS invoice_count, sum(total_amount) AS total_amount").
		Where("company_id = ?", companyId).
		Group("invoice_status").
		Order("invoice_status").
		Scan(&stats.ByStatus).Error; err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Select("DATE_FORMAT(invoice_date, '%Y-%m') AS month, count(*) AS invoice_count, sum(total_amount) AS total_amount").
		Where("company_id = ? AND invoice_date >= ? AND invoice_status <> ?", companyId, monthStart, InvoiceStatusVoid).
		Group("month").
		Order("month").
		Scan(&stats.Monthly).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}

func ExportInvoicesExcel(ctx context.Context, input *InvoiceSearchInput) (*InvoiceExcelExport, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var invoices []*Invoice
	if err := buildInvoiceSearchQuery(ctx, companyId, input).
		Order("invoice_date ASC, id ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Invoices"
	f.SetSheetName("Sheet1", sheet)

	headings := []string{
		"InvoiceNo", "InvoiceDate", "DueDate", "ContractNo", "TenantName",
		"SubTotal", "TaxAmount", "TotalAmount", "InvoiceStatus", "ApprovalStatus", "VoucherNo",
	}
	col := 'A'
	for _, h := range headings {
		f.SetCellValue(sheet, string(col)+"1", h)
		col++
	}

	for i, invoice := range invoices {
		row := fmt.Sprint(i + 2)
		dueDate := ""
		if invoice.DueDate != nil {
			dueDate = invoice.DueDate.Format()
		}
		f.SetCellValue(sheet, "A"+row, invoice.InvoiceNo)
		f.SetCellValue(sheet, "B"+row, invoice.InvoiceDate.Format())
		f.SetCellValue(sheet, "C"+row, dueDate)
		f.SetCellValue(sheet, "D"+row, invoice.ContractNo)
		f.SetCellValue(sheet, "E"+row, invoice.TenantName)
		f.SetCellValue(sheet, "F"+row, invoice.SubTotal.InexactFloat64())
		f.SetCellValue(sheet, "G"+row, invoice.TaxAmount.InexactFloat64())
		f.SetCellValue(sheet, "H"+row, invoice.TotalAmount.InexactFloat64())
		f.SetCellValue(sheet, "I"+row, string(invoice.InvoiceStatus))
		f.SetCellValue(sheet, "J"+row, string(invoice.ApprovalStatus))
		f.SetCellValue(sheet, "K"+row, invoice.VoucherNo)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return &InvoiceExcelExport{
		FileName:    "invoices_" + time.Now().Format("20060102_150405") + ".xlsx",
		FileContent: buf.Bytes(),
	}, nil
}
