package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
)

type Company struct {
	ID                   int       `gorm:"primary_key" json:"CompanyID"`
	CompanyName          string    `gorm:"index;size:100;not null" json:"CompanyName"`
	LegalName            string    `gorm:"size:255" json:"LegalName"`
	TaxRegistrationNo    string    `gorm:"size:100" json:"TaxRegistrationNo"`
	Email                string    `gorm:"size:255" json:"Email"`
	Phone                string    `gorm:"size:20" json:"Phone"`
	Address              string    `gorm:"type:text" json:"Address"`
	Country              string    `gorm:"size:100" json:"Country"`
	City                 string    `gorm:"size:100" json:"City"`
	Timezone             string    `gorm:"size:50" json:"Timezone"`
	FiscalYearStartMonth int       `gorm:"not null;default:1" json:"FiscalYearStartMonth"`
	BaseCurrencyCode     string    `gorm:"size:3;not null;default:'AED'" json:"BaseCurrencyCode"`
	IsActive             *bool     `gorm:"not null;default:true" json:"IsActive"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"UpdatedAt"`
}

type NewCompany struct {
	CompanyName          string `json:"CompanyName" validate:"required"`
	LegalName            string `json:"LegalName"`
	TaxRegistrationNo    string `json:"TaxRegistrationNo"`
	Email                string `json:"Email"`
	Phone                string `json:"Phone"`
	Address              string `json:"Address"`
	Country              string `json:"Country"`
	City                 string `json:"City"`
	Timezone             string `json:"Timezone"`
	FiscalYearStartMonth int    `json:"FiscalYearStartMonth" validate:"omitempty,min=1,max=12"`
	BaseCurrencyCode     string `json:"BaseCurrencyCode"`
}

func (obj Company) GetId() int {
	return obj.ID
}

func (obj Company) GetCompanyId() int {
	return obj.ID
}

func CreateCompany(ctx context.Context, input *NewCompany) (*Company, error) {

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if input.Timezone == "" {
		input.Timezone = "Asia/Dubai"
	}
	if input.FiscalYearStartMonth == 0 {
		input.FiscalYearStartMonth = 1
	}
	if input.BaseCurrencyCode == "" {
		input.BaseCurrencyCode = "AED"
	}

	company := Company{
		CompanyName:          input.CompanyName,
		LegalName:            input.LegalName,
		TaxRegistrationNo:    input.TaxRegistrationNo,
		Email:                input.Email,
		Phone:                input.Phone,
		Address:              input.Address,
		Country:              input.Country,
		City:                 input.City,
		Timezone:             input.Timezone,
		FiscalYearStartMonth: input.FiscalYearStartMonth,
		BaseCurrencyCode:     input.BaseCurrencyCode,
		IsActive:             utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&company).Error
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func GetCompanyById(ctx context.Context, id int) (*Company, error) {

	// find in redis
	result, err := utils.RetrieveRedis[Company](id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		db := config.GetDB()
		var company Company
		if err := db.WithContext(ctx).First(&company, id).Error; err != nil {
			return nil, utils.ErrorRecordNotFound
		}
		result = &company

		if err := utils.StoreRedis[Company](result, id); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// GetCompany resolves the caller's company from context.
func GetCompany(ctx context.Context) (*Company, error) {
	companyId, ok := utils.GetCompanyIdFromContext(ctx)
	if !ok || companyId <= 0 {
		return nil, errors.New("company id is required")
	}
	return GetCompanyById(ctx, companyId)
}

func UpdateCompany(ctx context.Context, id int, input *NewCompany) (*Company, error) {

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	company, err := GetCompanyById(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&company).Updates(map[string]interface{}{
		"CompanyName":          input.CompanyName,
		"LegalName":            input.LegalName,
		"TaxRegistrationNo":    input.TaxRegistrationNo,
		"Email":                input.Email,
		"Phone":                input.Phone,
		"Address":              input.Address,
		"Country":              input.Country,
		"City":                 input.City,
		"Timezone":             input.Timezone,
		"FiscalYearStartMonth": input.FiscalYearStartMonth,
		"BaseCurrencyCode":     input.BaseCurrencyCode,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*company); err != nil {
		return nil, err
	}

	return company, nil
}
