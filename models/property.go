package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
)

type Property struct {
	ID           int           `gorm:"primary_key" json:"PropertyID"`
	CompanyId    int           `gorm:"index;not null" json:"CompanyID"`
	PropertyName string        `gorm:"index;size:100;not null" json:"PropertyName"`
	PropertyType PropertyType  `gorm:"type:enum('Residential','Commercial','Mixed');default:'Residential';not null" json:"PropertyType"`
	Address      string        `gorm:"type:text" json:"Address"`
	City         string        `gorm:"size:100" json:"City"`
	Country      string        `gorm:"size:100" json:"Country"`
	TotalUnits   int           `gorm:"not null;default:1" json:"TotalUnits"`
	YearBuilt    int           `gorm:"default:null" json:"YearBuilt"`
	Notes        string        `gorm:"type:text" json:"Notes"`
	IsActive     *bool         `gorm:"not null;default:true" json:"IsActive"`
	Attachments  []*Attachment `gorm:"polymorphic:Reference" json:"Attachments,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewProperty struct {
	PropertyName string           `json:"PropertyName" validate:"required"`
	PropertyType PropertyType     `json:"PropertyType" validate:"required"`
	Address      string           `json:"Address"`
	City         string           `json:"City"`
	Country      string           `json:"Country"`
	TotalUnits   int              `json:"TotalUnits" validate:"omitempty,min=1"`
	YearBuilt    int              `json:"YearBuilt"`
	Notes        string           `json:"Notes"`
	Attachments  []*NewAttachment `json:"Attachments"`
}

type PropertySearchInput struct {
	SearchText   string       `json:"SearchText"`
	PropertyType PropertyType `json:"PropertyType"`
	City         string       `json:"City"`
	IsActive     *bool        `json:"IsActive"`
	PageNumber   int          `json:"PageNumber"`
	PageSize     int          `json:"PageSize"`
}

type PropertyTypeStatistics struct {
	PropertyType  PropertyType `json:"PropertyType"`
	PropertyCount int64        `json:"PropertyCount"`
	ActiveCount   int64        `json:"ActiveCount"`
	TotalUnits    int64        `json:"TotalUnits"`
}

type TopPropertyStatistics struct {
	PropertyId      int    `json:"PropertyID"`
	PropertyName    string `json:"PropertyName"`
	ActiveContracts int64  `json:"ActiveContracts"`
}

type PropertyStatistics struct {
	ByType        []*PropertyTypeStatistics `json:"byType"`
	TopProperties []*TopPropertyStatistics  `json:"topProperties"`
}

func (obj Property) GetId() int {
	return obj.ID
}

func (obj Property) GetCompanyId() int {
	return obj.CompanyId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProperty) validate(ctx context.Context, companyId int, id int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[Property](ctx, companyId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[Property](ctx, companyId, "property_name", input.PropertyName, id); err != nil {
		return err
	}
	return nil
}

func CreateProperty(ctx context.Context, input *NewProperty) (*Property, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	if input.TotalUnits == 0 {
		input.TotalUnits = 1
	}

	property := Property{
		CompanyId:    companyId,
		PropertyName: input.PropertyName,
		PropertyType: input.PropertyType,
		Address:      input.Address,
		City:         input.City,
		Country:      input.Country,
		TotalUnits:   input.TotalUnits,
		YearBuilt:    input.YearBuilt,
		Notes:        input.Notes,
		IsActive:     utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&property).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "properties", property.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	property.Attachments = attachments

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := property.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &property, nil
}

func UpdateProperty(ctx context.Context, id int, input *NewProperty) (*Property, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	property, err := utils.FetchModel[Property](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	tx := db.Begin()
	err = tx.WithContext(ctx).Model(&property).Updates(map[string]interface{}{
		"PropertyName": input.PropertyName,
		"PropertyType": input.PropertyType,
		"Address":      input.Address,
		"City":         input.City,
		"Country":      input.Country,
		"TotalUnits":   input.TotalUnits,
		"YearBuilt":    input.YearBuilt,
		"Notes":        input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	attachments, err := upsertAttachments(ctx, tx, input.Attachments, "properties", id)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	property.Attachments = attachments

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*property); err != nil {
		return nil, err
	}

	return property, nil
}

func DeleteProperty(ctx context.Context, id int) (*Property, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[Property](ctx, companyId, id, "Attachments")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// check if the property is used
	var count int64
	if err := db.WithContext(ctx).Model(&Contract{}).
		Where(&Contract{PropertyId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("property has been used in contract")
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

func GetProperty(ctx context.Context, id int) (*Property, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[Property](ctx, companyId, id, "Attachments")
}

func GetProperties(ctx context.Context) ([]*Property, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[Property](ctx, companyId)
}

func SearchProperties(ctx context.Context, input *PropertySearchInput) (*SearchPage[Property], error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Property{}).Where("company_id = ?", companyId)
	if input.SearchText != "" {
		dbCtx = dbCtx.Where("property_name LIKE ? OR city LIKE ?",
			"%"+input.SearchText+"%", "%"+input.SearchText+"%")
	}
	if input.PropertyType != "" {
		dbCtx = dbCtx.Where("property_type = ?", input.PropertyType)
	}
	if input.City != "" {
		dbCtx = dbCtx.Where("city = ?", input.City)
	}
	if input.IsActive != nil {
		dbCtx = dbCtx.Where("is_active = ?", *input.IsActive)
	}

	return FetchPageOffset[Property](dbCtx, input.PageNumber, input.PageSize, "property_name ASC")
}

// GetPropertyStatistics returns counts per property type plus the
// properties carrying the most active contracts.
func GetPropertyStatistics(ctx context.Context) (*PropertyStatistics, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stats := PropertyStatistics{
		ByType:        []*PropertyTypeStatistics{},
		TopProperties: []*TopPropertyStatistics{},
	}

	if err := db.WithContext(ctx).Model(&Property{}).
		Select("property_type, count(*) AS property_count, sum(is_active) AS active_count, sum(total_units) AS total_units").
		Where("company_id = ?", companyId).
		Group("property_type").
		Order("property_type").
		Scan(&stats.ByType).Error; err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(&Contract{}).
		Select("contracts.property_id, contracts.property_name, count(*) AS active_contracts").
		Where("contracts.company_id = ? AND contracts.contract_status = ?", companyId, ContractStatusActive).
		Group("contracts.property_id, contracts.property_name").
		Order("active_contracts DESC").
		Limit(5).
		Scan(&stats.TopProperties).Error; err != nil {
		return nil, err
	}

	return &stats, nil
}
