package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
)

type DocType struct {
	ID                int       `gorm:"primary_key" json:"DocTypeID"`
	CompanyId         int       `gorm:"index;not null" json:"CompanyID"`
	DocTypeName       string    `gorm:"index;size:100;not null" json:"DocTypeName"`
	Description       string    `gorm:"type:text" json:"Description"`
	IsMandatory       *bool     `gorm:"not null;default:false" json:"IsMandatory"`
	MaxSizeMB         int       `gorm:"default:10" json:"MaxSizeMB"`
	AllowedExtensions string    `gorm:"size:255" json:"AllowedExtensions"`
	IsActive          *bool     `gorm:"not null;default:true" json:"IsActive"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewDocType struct {
	DocTypeName       string `json:"DocTypeName" validate:"required"`
	Description       string `json:"Description"`
	IsMandatory       *bool  `json:"IsMandatory"`
	MaxSizeMB         int    `json:"MaxSizeMB" validate:"omitempty,min=1"`
	AllowedExtensions string `json:"AllowedExtensions"`
}

func (obj DocType) GetId() int {
	return obj.ID
}

func (obj DocType) GetCompanyId() int {
	return obj.CompanyId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewDocType) validate(ctx context.Context, companyId int, id int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[DocType](ctx, companyId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[DocType](ctx, companyId, "doc_type_name", input.DocTypeName, id); err != nil {
		return err
	}
	return nil
}

func CreateDocType(ctx context.Context, input *NewDocType) (*DocType, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	if input.IsMandatory == nil {
		input.IsMandatory = utils.NewFalse()
	}
	if input.MaxSizeMB == 0 {
		input.MaxSizeMB = 10
	}

	docType := DocType{
		CompanyId:         companyId,
		DocTypeName:       input.DocTypeName,
		Description:       input.Description,
		IsMandatory:       input.IsMandatory,
		MaxSizeMB:         input.MaxSizeMB,
		AllowedExtensions: input.AllowedExtensions,
		IsActive:          utils.NewTrue(),
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Create(&docType).Error
	if err != nil {
		return nil, err
	}

	if err := docType.RemoveAllRedis(); err != nil {
		return nil, err
	}

	return &docType, nil
}

func UpdateDocType(ctx context.Context, id int, input *NewDocType) (*DocType, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	docType, err := utils.FetchModel[DocType](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&docType).Updates(map[string]interface{}{
		"DocTypeName":       input.DocTypeName,
		"Description":       input.Description,
		"IsMandatory":       input.IsMandatory,
		"MaxSizeMB":         input.MaxSizeMB,
		"AllowedExtensions": input.AllowedExtensions,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*docType); err != nil {
		return nil, err
	}

	return docType, nil
}

func DeleteDocType(ctx context.Context, id int) (*DocType, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	result, err := utils.FetchModel[DocType](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	// check if the doc type is used
	var count int64
	if err := db.WithContext(ctx).Model(&Attachment{}).
		Where(&Attachment{DocTypeId: id}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errors.New("doc type has been used in attachment")
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

func GetDocType(ctx context.Context, id int) (*DocType, error) {

	return GetResource[DocType](ctx, id)
}

func GetDocTypes(ctx context.Context) ([]*DocType, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchAllModels[DocType](ctx, companyId)
}
