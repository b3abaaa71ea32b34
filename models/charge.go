package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
)

type Charge struct {
	ID              int             `gorm:"primary_key" json:"ChargeID"`
	CompanyId       int             `gorm:"index;not null" json:"CompanyID"`
	ChargeName      string          `gorm:"index;size:100;not null" json:"ChargeName"`
	Description     string          `gorm:"type:text" json:"Description"`
	ChargeFrequency ChargeFrequency `gorm:"type:enum('OneTime','Monthly','Quarterly','Yearly');default:'OneTime';not null" json:"ChargeFrequency"`
	DefaultAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"DefaultAmount"`
	TaxRate         decimal.Decimal `gorm:"type:decimal(10,4);default:0" json:"TaxRate"`
	IsTaxable       *bool           `gorm:"not null;default:false" json:"IsTaxable"`
	IsActive        *bool           `gorm:"not null;default:true" json:"IsActive"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewCharge struct {
	ChargeName      string          `json:"ChargeName" validate:"required"`
	Description     string          `json:"Description"`
	ChargeFrequency ChargeFrequency `json:"ChargeFrequency" validate:"required"`
	DefaultAmount   decimal.Decimal `json:"DefaultAmount"`
	TaxRate         decimal.Decimal `json:"TaxRate"`
	IsTaxable       *bool           `json:"IsTaxable"`
}

type ChargeSearchInput struct {
	SearchText      string          `json:"SearchText"`
	ChargeFrequency ChargeFrequency `json:"ChargeFrequency"`
	IsActive        *bool           `json:"IsActive"`
	PageNumber      int             `json:"PageNumber"`
	PageSize        int             `json:"PageSize"`
}

func (obj Charge) GetId() int {
	return obj.ID
}

func (obj Charge) GetCompanyId() int {
	return obj.CompanyId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewCharge) validate(ctx context.Context, companyId int, id int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Charge](ctx, companyId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Charge](ctx, companyId, "charge_name", input.ChargeName, id); err != nil {
		return err
	}
	if input.DefaultAmount.IsNegative() {
		return errors.New("default amount cannot be negative")
	}
	if input.TaxRate.IsNegative() {
		return errors.New("tax rate cannot be negative")
	}
	return nil
}

func CreateCharge(ctx context.Context, input *NewCharge) (*Charge, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	if input.IsTaxable == nil {
		input.IsTaxable = utils.NewFalse()
	}

	charge := Charge{
		CompanyId:       companyId,
		ChargeName:      input.ChargeName,
		Description:     input.Description,
		ChargeFrequency: input.ChargeFrequency,
		DefaultAmount:   input.DefaultAmount,
		TaxRate:         input.TaxRate,
		IsTaxable:       input.IsTaxable,
		IsActive:        utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Create(&charge).Error
	if err != nil {
		return nil, err
	}

	if err := charge.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &charge, nil
}

func UpdateCharge(ctx context.Context, id int, input *NewCharge) (*Charge, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	charge, err := utils.FetchModel[Charge](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&charge).Updates(map[string]interface{}{
		"ChargeName":      input.ChargeName,
		"Description":     input.Description,
		"ChargeFrequency": input.ChargeFrequency,
		"DefaultAmount":   input.DefaultAmount,
		"TaxRate":         input.TaxRate,
		"IsTaxable":       input.IsTaxable,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*charge); err != nil {
		return nil, err
	}

	return charge, nil
}

func DeleteCharge(ctx context.Context, id int) (*Charge, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Charge](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// check if the charge is used
	var count int64
	if err := db.WithContext(ctx).Model(&ContractCharge{}).
		Where(&ContractCharge{ChargeId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("charge has been used in contract")
	}
	if err := db.WithContext(ctx).Model(&InvoiceLine{}).
		Where(&InvoiceLine{ChargeId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("charge has been used in invoice")
	}

	// db action
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}

	return result, nil
}

func GetCharge(ctx context.Context, id int) (*Charge, error) {

	return GetResource[Charge](ctx, id)
}

func GetCharges(ctx context.Context) ([]*Charge, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[Charge](ctx, companyId)
}

func SearchCharges(ctx context.Context, input *ChargeSearchInput) (*SearchPage[Charge], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Charge{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		dbCtx = dbCtx.Where("charge_name LIKE ?", "%"+input.SearchText+"%")
	}
	if input.ChargeFrequency != "" {
		dbCtx = dbCtx.Where("charge_frequency = ?", input.ChargeFrequency)
	}
	if input.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *input.IsActive)
	}

	return FetchPageOffset[Charge](dbCtx, input.PageNumber, input.PageSize, "charge_name ASC")
}
