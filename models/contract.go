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
)

type Contract struct {
	ID               int             `gorm:"primary_key" json:"ContractID"`
	CompanyId        int             `gorm:"index;not null" json:"CompanyID"`
	ContractNo       string          `gorm:"size:255;not null" json:"ContractNo"`
	SequenceNo       decimal.Decimal `gorm:"type:decimal(15);not null" json:"SequenceNo"`
	PropertyId       int             `gorm:"index;not null" json:"PropertyID"`
	PropertyName     string          `gorm:"size:100" json:"PropertyName"`
	SupplierId       int             `gorm:"index;not null" json:"SupplierID"`
	SupplierName     string          `gorm:"size:100" json:"SupplierName"`
	UnitNumber       string          `gorm:"size:50" json:"UnitNumber"`
	TenantName       string          `gorm:"index;size:100;not null" json:"TenantName"`
	TenantEmail      string          `gorm:"size:100" json:"TenantEmail"`
	TenantPhone      string          `gorm:"size:20" json:"TenantPhone"`
	StartDate        DateString      `gorm:"type:date;not null" json:"StartDate"`
	EndDate          DateString      `gorm:"type:date;not null" json:"EndDate"`
	RentAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"RentAmount"`
	DepositAmount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"DepositAmount"`
	PaymentFrequency ChargeFrequency `gorm:"type:enum('OneTime','Monthly','Quarterly','Yearly');default:'Monthly';not null" json:"PaymentFrequency"`
	ContractStatus   ContractStatus  `gorm:"type:enum('Draft','Pending','Active','Expired','Completed','Terminated','Cancelled');default:'Draft';not null" json:"ContractStatus"`
	StatusReason     string          `gorm:"type:text" json:"StatusReason"`
	Notes            string          `gorm:"type:text" json:"Notes"`
	Charges          []*ContractCharge `gorm:"foreignKey:ContractId" json:"Charges,omitempty"`
	Attachments      []*Attachment   `gorm:"polymorphic:Reference" json:"Attachments,omitempty"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type ContractCharge struct {
	ID         int             `gorm:"primary_key" json:"ContractChargeID"`
	ContractId int             `gorm:"index;not null" json:"ContractID"`
	ChargeId   int             `gorm:"index;not null" json:"ChargeID"`
	ChargeName string          `gorm:"size:100" json:"ChargeName"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"Amount"`
	Notes      string          `gorm:"type:text" json:"Notes"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewContract struct {
	PropertyId       int                  `json:"PropertyID" validate:"required"`
	SupplierId       int                  `json:"SupplierID" validate:"required"`
	UnitNumber       string               `json:"UnitNumber"`
	TenantName       string               `json:"TenantName" validate:"required"`
	TenantEmail      string               `json:"TenantEmail"`
	TenantPhone      string               `json:"TenantPhone"`
	StartDate        DateString           `json:"StartDate" validate:"required"`
	EndDate          DateString           `json:"EndDate" validate:"required"`
	RentAmount       decimal.Decimal      `json:"RentAmount" validate:"required"`
	DepositAmount    decimal.Decimal      `json:"DepositAmount"`
	PaymentFrequency ChargeFrequency      `json:"PaymentFrequency"`
	Notes            string               `json:"Notes"`
	Charges          []*NewContractCharge `json:"Charges"`
	Attachments      []*NewAttachment     `json:"Attachments"`
}

type NewContractCharge struct {
	ChargeId int             `json:"ChargeID" validate:"required"`
	Amount   decimal.Decimal `json:"Amount"`
	Notes    string          `json:"Notes"`
}

type ContractSearchInput struct {
	SearchText     string         `json:"SearchText"`
	PropertyId     int            `json:"PropertyID"`
	SupplierId     int            `json:"SupplierID"`
	ContractStatus ContractStatus `json:"ContractStatus"`
	StartDateFrom  *DateString    `json:"StartDateFrom"`
	StartDateTo    *DateString    `json:"StartDateTo"`
	EndDateFrom    *DateString    `json:"EndDateFrom"`
	EndDateTo      *DateString    `json:"EndDateTo"`
	PageNumber     int            `json:"PageNumber"`
	PageSize       int            `json:"PageSize"`
}

type ContractStatistics struct {
	TotalContracts    int64           `json:"TotalContracts"`
	DraftCount        int64           `json:"DraftCount"`
	PendingCount      int64           `json:"PendingCount"`
	ActiveCount       int64           `json:"ActiveCount"`
	ExpiredCount      int64           `json:"ExpiredCount"`
	CompletedCount    int64           `json:"CompletedCount"`
	TerminatedCount   int64           `json:"TerminatedCount"`
	CancelledCount    int64           `json:"CancelledCount"`
	ActiveMonthlyRent decimal.Decimal `json:"ActiveMonthlyRent"`
}

func (obj Contract) GetId() int {
	return obj.ID
}

func (obj Contract) GetCompanyId() int {
	return obj.CompanyId
}

func (input *NewContract) validate(ctx context.Context, companyId int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	// exists property
	if err := utils.ValidateResourceId[Property](ctx, companyId, input.PropertyId); err != nil {
		return errors.New("property not found")
	}
	// exists supplier
	if err := utils.ValidateResourceId[Supplier](ctx, companyId, input.SupplierId); err != nil {
		return errors.New("supplier not found")
	}
	if !input.EndDate.Time().After(input.StartDate.Time()) {
		return errors.New("end date must be after start date")
	}
	if !input.RentAmount.IsPositive() {
		return errors.New("rent amount must be positive")
	}
	if input.DepositAmount.IsNegative() {
		return errors.New("deposit amount cannot be negative")
	}
	if input.TenantEmail != "" && !utils.IsValidEmail(input.TenantEmail) {
		return errors.New("invalid tenant email address")
	}
	return nil
}

// mapContractCharges resolves charge rows against the charge master,
// falling back to the master default when no amount is given.
func mapContractCharges(ctx context.Context, input []*NewContractCharge) ([]*ContractCharge, error) {

	chargeMap, err := MapAllCharges(ctx)
	if err != nil {
		return nil, err
	}

	var charges []*ContractCharge
	for _, chargeInput := range input {
		master, ok := chargeMap[chargeInput.ChargeId]
		if !ok {
			return nil, fmt.Errorf("charge %d not found", chargeInput.ChargeId)
		}
		amount := chargeInput.Amount
		if amount.IsZero() {
			amount = master.DefaultAmount
		}
		if amount.IsNegative() {
			return nil, errors.New("charge amount cannot be negative for " + master.ChargeName)
		}
		charges = append(charges, &ContractCharge{
			ChargeId:   chargeInput.ChargeId,
			ChargeName: master.ChargeName,
			Amount:     amount,
			Notes:      chargeInput.Notes,
		})
	}
	return charges, nil
}

func CreateContract(ctx context.Context, input *NewContract) (*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	if input.PaymentFrequency == "" {
		input.PaymentFrequency = ChargeFrequencyMonthly
	}

	propertyMap, err := MapAllProperties(ctx)
	if err != nil {
		return nil, err
	}
	supplierMap, err := MapAllSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	charges, err := mapContractCharges(ctx, input.Charges)
	if err != nil {
		return nil, err
	}

	contract := Contract{
		CompanyId:        companyId,
		PropertyId:       input.PropertyId,
		SupplierId:       input.SupplierId,
		UnitNumber:       input.UnitNumber,
		TenantName:       input.TenantName,
		TenantEmail:      input.TenantEmail,
		TenantPhone:      input.TenantPhone,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		RentAmount:       input.RentAmount,
		DepositAmount:    input.DepositAmount,
		PaymentFrequency: input.PaymentFrequency,
		ContractStatus:   ContractStatusDraft,
		Notes:            input.Notes,
		Charges:          charges,
	}
	if property, ok := propertyMap[input.PropertyId]; ok {
		contract.PropertyName = property.PropertyName
	}
	if supplier, ok := supplierMap[input.SupplierId]; ok {
		contract.SupplierName = supplier.SupplierName
	}

	seqNo, err := utils.GetSequence[Contract](ctx, companyId)
	if err != nil {
		return nil, err
	}
	contract.SequenceNo = decimal.NewFromInt(seqNo)
	contract.ContractNo = formatDocumentNumber(ContractNumberPrefix, seqNo)

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&contract).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "contracts", contract.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	contract.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "CREATE", contract.ID, "contracts", nil, &contract,
		"contract "+contract.ContractNo+" created for "+contract.TenantName); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &contract, nil
}

func UpdateContract(ctx context.Context, id int, input *NewContract) (*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId); err != nil {
		return nil, err
	}

	oldContract, err := utils.FetchModel[Contract](ctx, companyId, id, "Charges")
	if err != nil {
		return nil, err
	}
	if oldContract.ContractStatus != ContractStatusDraft && oldContract.ContractStatus != ContractStatusPending {
		return nil, errors.New("contract " + oldContract.ContractNo + " is " + string(oldContract.ContractStatus) + " and can no longer be edited")
	}
	var existingContract Contract = *oldContract

	propertyMap, err := MapAllProperties(ctx)
	if err != nil {
		return nil, err
	}
	supplierMap, err := MapAllSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	charges, err := mapContractCharges(ctx, input.Charges)
	if err != nil {
		return nil, err
	}

	if input.PaymentFrequency == "" {
		input.PaymentFrequency = ChargeFrequencyMonthly
	}

	existingContract.PropertyId = input.PropertyId
	existingContract.SupplierId = input.SupplierId
	existingContract.UnitNumber = input.UnitNumber
	existingContract.TenantName = input.TenantName
	existingContract.TenantEmail = input.TenantEmail
	existingContract.TenantPhone = input.TenantPhone
	existingContract.StartDate = input.StartDate
	existingContract.EndDate = input.EndDate
	existingContract.RentAmount = input.RentAmount
	existingContract.DepositAmount = input.DepositAmount
	existingContract.PaymentFrequency = input.PaymentFrequency
	existingContract.Notes = input.Notes
	if property, ok := propertyMap[input.PropertyId]; ok {
		existingContract.PropertyName = property.PropertyName
	}
	if supplier, ok := supplierMap[input.SupplierId]; ok {
		existingContract.SupplierName = supplier.SupplierName
	}

	db := config.GetDB()
	tx := db.Begin()

	// charge rows are replaced wholesale
	if err := tx.WithContext(ctx).Where("contract_id = ?", id).Delete(&ContractCharge{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, charge := range charges {
		charge.ContractId = id
	}
	existingContract.Charges = charges

	if err := tx.WithContext(ctx).Save(&existingContract).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "contracts", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	existingContract.Attachments = attachments

	if err := createHistory(tx.WithContext(ctx), "UPDATE", id, "contracts", oldContract, &existingContract,
		"contract "+existingContract.ContractNo+" updated"); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := existingContract.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return &existingContract, nil
}

func DeleteContract(ctx context.Context, id int) (*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Contract](ctx, companyId, id, "Charges", "Attachments")
	if err != nil {
		return nil, err
	}
	if result.ContractStatus != ContractStatusDraft {
		return nil, errors.New("contract " + result.ContractNo + " is " + string(result.ContractStatus) + ", only draft contracts can be deleted")
	}

	db := config.GetDB()

	// a contract with receipts or invoices must not disappear
	var count int64
	if err := db.WithContext(ctx).Model(&Receipt{}).
		Where(&Receipt{ContractId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("contract has receipts")
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Where(&Invoice{ContractId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("contract has invoices")
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("contract_id = ?", id).Delete(&ContractCharge{}).Error; err != nil {
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
	if err := createHistory(tx.WithContext(ctx), "DELETE", id, "contracts", result, nil,
		"contract "+result.ContractNo+" deleted"); err != nil {
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

func GetContract(ctx context.Context, id int) (*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Contract](ctx, companyId, id, "Charges", "Attachments")
}

func GetContracts(ctx context.Context) ([]*Contract, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[Contract](ctx, companyId, "Charges")
}

// ChangeContractStatus moves the contract along its lifecycle. Illegal
// hops are refused with the allowed set in the message. Activation
// additionally requires every mandatory document type to be attached.
func ChangeContractStatus(ctx context.Context, id int, newStatus ContractStatus, reason string) (*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if !newStatus.IsValid() {
		return nil, fmt.Errorf("invalid contract status %q", string(newStatus))
	}

	contract, err := utils.FetchModel[Contract](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	if !contract.ContractStatus.CanTransitionTo(newStatus) {
		allowed := AllowedNextContractStatuses(contract.ContractStatus)
		return nil, fmt.Errorf("contract %s cannot move from %s to %s (allowed: %s)",
			contract.ContractNo, contract.ContractStatus, newStatus, joinContractStatuses(allowed))
	}

	if newStatus == ContractStatusActive {
		if err := validateMandatoryAttachments(ctx, companyId, contract.ID); err != nil {
			return nil, err
		}
	}

	oldStatus := contract.ContractStatus

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Model(&contract).Updates(map[string]interface{}{
		"ContractStatus": newStatus,
		"StatusReason":   reason,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := createHistory(tx.WithContext(ctx), "UPDATE", contract.ID, "contracts", nil, nil,
		fmt.Sprintf("contract %s moved from %s to %s", contract.ContractNo, oldStatus, newStatus)); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	contract.ContractStatus = newStatus
	contract.StatusReason = reason

	if err := contract.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return contract, nil
}

// validateMandatoryAttachments requires an attachment for every active
// mandatory doc type before a contract can go Active.
func validateMandatoryAttachments(ctx context.Context, companyId int, contractId int) error {

	db := config.GetDB()

	var mandatoryTypes []*DocType
	if err := db.WithContext(ctx).
		Where("company_id = ? AND is_mandatory = ? AND is_active = ?", companyId, true, true).
		Find(&mandatoryTypes).Error; err != nil {
		return err
	}
	if len(mandatoryTypes) == 0 {
		return nil
	}

	var attachments []*Attachment
	if err := db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", "contracts", contractId).
		Find(&attachments).Error; err != nil {
		return err
	}
	attached := make(map[int]bool)
	for _, attachment := range attachments {
		attached[attachment.DocTypeId] = true
	}

	var missing []string
	for _, docType := range mandatoryTypes {
		if !attached[docType.ID] {
			missing = append(missing, docType.DocTypeName)
		}
	}
	if len(missing) > 0 {
		return errors.New("cannot activate contract, missing mandatory documents: " + strings.Join(missing, ", "))
	}
	return nil
}

func joinContractStatuses(statuses []ContractStatus) string {
	if len(statuses) == 0 {
		return "none"
	}
	parts := make([]string, len(statuses))
	for i, status := range statuses {
		parts[i] = string(status)
	}
	return strings.Join(parts, ", ")
}

func SearchContracts(ctx context.Context, input *ContractSearchInput) (*SearchPage[Contract], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Contract{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		dbCtx = dbCtx.Where("contract_no LIKE ? OR tenant_name LIKE ? OR unit_number LIKE ?",
			"%"+input.SearchText+"%", "%"+input.SearchText+"%", "%"+input.SearchText+"%")
	}
	if input.PropertyId > 0 {
		dbCtx = dbCtx.Where("property_id = ?", input.PropertyId)
	}
	if input.SupplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", input.SupplierId)
	}
	if input.ContractStatus != "" {
		dbCtx = dbCtx.Where("contract_status = ?", input.ContractStatus)
	}
	if input.StartDateFrom != nil && input.StartDateTo != nil {
		dbCtx = dbCtx.Where("start_date BETWEEN ? AND ?", input.StartDateFrom.Time(), input.StartDateTo.Time())
	}
	if input.EndDateFrom != nil && input.EndDateTo != nil {
		dbCtx = dbCtx.Where("end_date BETWEEN ? AND ?", input.EndDateFrom.Time(), input.EndDateTo.Time())
	}

	return FetchPageOffset[Contract](dbCtx, input.PageNumber, input.PageSize, "created_at DESC")
}

func GetContractStatistics(ctx context.Context) (*ContractStatistics, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var stats ContractStatistics

	type statusCount struct {
		ContractStatus ContractStatus
		Count          int64
	}
	var counts []statusCount
	if err := db.WithContext(ctx).Model(&Contract{}).
		Select("contract_status, count(*) as count").
		Where("company_id = ?", companyId).
		Group("contract_status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, row := range counts {
		stats.TotalContracts += row.Count
		switch row.ContractStatus {
		case ContractStatusDraft:
			stats.DraftCount = row.Count
		case ContractStatusPending:
			stats.PendingCount = row.Count
		case ContractStatusActive:
			stats.ActiveCount = row.Count
		case ContractStatusExpired:
			stats.ExpiredCount = row.Count
		case ContractStatusCompleted:
			stats.CompletedCount = row.Count
		case ContractStatusTerminated:
			stats.TerminatedCount = row.Count
		case ContractStatusCancelled:
			stats.CancelledCount = row.Count
		}
	}

	var activeRent *decimal.Decimal
	if err := db.WithContext(ctx).Model(&Contract{}).
		Select("sum(rent_amount)").
		Where("company_id = ? AND contract_status = ?", companyId, ContractStatusActive).
		Scan(&activeRent).Error; err != nil {
		return nil, err
	}
	if activeRent != nil {
		stats.ActiveMonthlyRent = *activeRent
	}

	return &stats, nil
}

// GetExpiringContracts lists active contracts ending within the window.
// withinDays defaults to 30.
func GetExpiringContracts(ctx context.Context, withinDays int) ([]*Contract, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if withinDays <= 0 {
		withinDays = 30
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	horizon := today.AddDate(0, 0, withinDays)

	db := config.GetDB()
	var results []*Contract
	err = db.WithContext(ctx).
		Where("company_id = ? AND contract_status = ?", companyId, ContractStatusActive).
		Where("end_date BETWEEN ? AND ?", today, horizon).
		Order("end_date ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ExpireOverdueContracts flips active contracts past their end date to
// Expired. The expiry worker calls this with company scoping bypassed.
func ExpireOverdueContracts(ctx context.Context) (int, error) {

	db := config.GetDB()
	today := time.Now().UTC().Truncate(24 * time.Hour)

	var contracts []*Contract
	if err := db.WithContext(ctx).
		Where("contract_status = ? AND end_date < ?", ContractStatusActive, today).
		Find(&contracts).Error; err != nil {
		return 0, err
	}

	expired := 0
	for _, contract := range contracts {
		if !contract.ContractStatus.CanTransitionTo(ContractStatusExpired) {
			continue
		}
		if err := db.WithContext(ctx).Model(&contract).
			UpdateColumn("ContractStatus", ContractStatusExpired).Error; err != nil {
			return expired, err
		}
		if err := contract.RemoveInstanceRedis(); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
