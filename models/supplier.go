package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"gorm.io/gorm"
)

type Supplier struct {
	ID                      int          `gorm:"primary_key" json:"SupplierID"`
	CompanyId               int          `gorm:"index;not null" json:"CompanyID"`
	SupplierName            string       `gorm:"index;size:100;not null" json:"SupplierName"`
	ContactName             string       `gorm:"size:100" json:"ContactName"`
	Email                   string       `gorm:"size:100" json:"Email"`
	Phone                   string       `gorm:"size:20" json:"Phone"`
	TaxRegistrationNo       string       `gorm:"size:100" json:"TaxRegistrationNo"`
	Address                 string       `gorm:"type:text" json:"Address"`
	Country                 string       `gorm:"size:100" json:"Country"`
	PaymentTerms            PaymentTerms `gorm:"type:enum('DueOnReceipt','Net15','Net30','Net45','Net60','DueEndOfMonth','Custom');not null;default:'DueOnReceipt'" json:"PaymentTerms"`
	PaymentTermsCustomDays  int          `gorm:"default:0" json:"PaymentTermsCustomDays"`
	Notes                   string        `gorm:"type:text" json:"Notes"`
	IsActive                *bool         `gorm:"not null;default:true" json:"IsActive"`
	Attachments             []*Attachment `gorm:"polymorphic:Reference" json:"Attachments,omitempty"`
	CreatedAt               time.Time     `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt               time.Time     `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewSupplier struct {
	SupplierName           string       `json:"SupplierName" validate:"required"`
	ContactName            string       `json:"ContactName"`
	Email                  string       `json:"Email"`
	Phone                  string       `json:"Phone"`
	TaxRegistrationNo      string       `json:"TaxRegistrationNo"`
	Address                string       `json:"Address"`
	Country                string       `json:"Country"`
	PaymentTerms           PaymentTerms     `json:"PaymentTerms"`
	PaymentTermsCustomDays int              `json:"PaymentTermsCustomDays"`
	Notes                  string           `json:"Notes"`
	Attachments            []*NewAttachment `json:"Attachments"`
}

type SupplierSearchInput struct {
	SearchText string `json:"SearchText"`
	Country    string `json:"Country"`
	IsActive   *bool  `json:"IsActive"`
	PageNumber int    `json:"PageNumber"`
	PageSize   int    `json:"PageSize"`
}

type SupplierStatistics struct {
	TotalSuppliers  int64 `json:"TotalSuppliers"`
	ActiveSuppliers int64 `json:"ActiveSuppliers"`
	WithContracts   int64 `json:"WithContracts"`
}

func (obj Supplier) GetId() int {
	return obj.ID
}

func (obj Supplier) GetCompanyId() int {
	return obj.CompanyId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewSupplier) validate(ctx context.Context, companyId int, id int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Supplier](ctx, companyId, id); err != nil {
			return err
		}
	}
	// validate unique name
	if err := utils.ValidateUnique[Supplier](ctx, companyId, "supplier_name", input.SupplierName, id); err != nil {
		return err
	}
	// validate email
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("invalid email address")
	}
	// validate phone
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.PhoneRegion()); err != nil {
			return err
		}
	}
	if input.PaymentTerms != "" && !input.PaymentTerms.IsValid() {
		return errors.New("invalid payment terms")
	}
	return nil
}

func CreateSupplier(ctx context.Context, input *NewSupplier) (*Supplier, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	if input.PaymentTerms == "" {
		input.PaymentTerms = PaymentTermsDueOnReceipt
	}

	supplier := Supplier{
		CompanyId:              companyId,
		SupplierName:           input.SupplierName,
		ContactName:            input.ContactName,
		Email:                  input.Email,
		Phone:                  input.Phone,
		TaxRegistrationNo:      input.TaxRegistrationNo,
		Address:                input.Address,
		Country:                input.Country,
		PaymentTerms:           input.PaymentTerms,
		PaymentTermsCustomDays: input.PaymentTermsCustomDays,
		Notes:                  input.Notes,
		IsActive:               utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&supplier).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "suppliers", supplier.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	supplier.Attachments = attachments

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := supplier.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &supplier, nil
}

func UpdateSupplier(ctx context.Context, id int, input *NewSupplier) (*Supplier, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	supplier, err := utils.FetchModel[Supplier](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&supplier).Updates(map[string]interface{}{
		"SupplierName":           input.SupplierName,
		"ContactName":            input.ContactName,
		"Email":                  input.Email,
		"Phone":                  input.Phone,
		"TaxRegistrationNo":      input.TaxRegistrationNo,
		"Address":                input.Address,
		"Country":                input.Country,
		"PaymentTerms":           input.PaymentTerms,
		"PaymentTermsCustomDays": input.PaymentTermsCustomDays,
		"Notes":                  input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "suppliers", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	supplier.Attachments = attachments

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*supplier); err != nil {
		return nil, err
	}

	return supplier, nil
}

func DeleteSupplier(ctx context.Context, id int) (*Supplier, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Supplier](ctx, companyId, id, "Attachments")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// check if the supplier is used
	var count int64
	if err := db.WithContext(ctx).Model(&Contract{}).
		Where(&Contract{SupplierId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("supplier has been used in contract")
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).
		Where(&Invoice{SupplierId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("supplier has been used in invoice")
	}

	// db action
	tx := db.Begin()
	if err := deleteAttachments(ctx, tx, result.Attachments); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&result).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}

	return result, nil
}

func GetSupplier(ctx context.Context, id int) (*Supplier, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Supplier](ctx, companyId, id, "Attachments")
}

func GetSuppliers(ctx context.Context) ([]*Supplier, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[Supplier](ctx, companyId)
}

func SearchSuppliers(ctx context.Context, input *SupplierSearchInput) (*SearchPage[Supplier], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Supplier{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		dbCtx = dbCtx.Where("supplier_name LIKE ? OR contact_name LIKE ? OR email LIKE ?",
			"%"+input.SearchText+"%", "%"+input.SearchText+"%", "%"+input.SearchText+"%")
	}
	if input.Country != "" {
		dbCtx = dbCtx.Where("country = ?", input.Country)
	}
	if input.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *input.IsActive)
	}

	return FetchPageOffset[Supplier](dbCtx, input.PageNumber, input.PageSize, "supplier_name ASC")
}

func GetSupplierStatistics(ctx context.Context) (*SupplierStatistics, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var stats SupplierStatistics

	base := func() *gorm.DB {
		return db.WithContext(ctx).Model(&Supplier{}).Where("company_id = ?", companyId)
	}

	if err := base().Count(&stats.TotalSuppliers).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ?", true).Count(&stats.ActiveSuppliers).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Supplier{}).
		Where("suppliers.company_id = ?", companyId).
		Where("EXISTS (SELECT 1 FROM contracts WHERE contracts.supplier_id = suppliers.id)").
		Count(&stats.WithContracts).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
