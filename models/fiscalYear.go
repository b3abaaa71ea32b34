package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
)

type FiscalYear struct {
	ID             int        `gorm:"primary_key" json:"FiscalYearID"`
	CompanyId      int        `gorm:"index;not null" json:"CompanyID"`
	FiscalYearName string     `gorm:"index;size:100;not null" json:"FiscalYearName"`
	StartDate      DateString `gorm:"type:date;not null" json:"StartDate"`
	EndDate        DateString `gorm:"type:date;not null" json:"EndDate"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"CreatedAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"UpdatedAt"`

	Periods []*AccountingPeriod `gorm:"foreignKey:FiscalYearId" json:"Periods,omitempty"`
}

type NewFiscalYear struct {
	FiscalYearName string     `json:"FiscalYearName" validate:"required"`
	StartDate      DateString `json:"StartDate" validate:"required"`
	EndDate        DateString `json:"EndDate" validate:"required"`
}

func (obj FiscalYear) GetId() int {
	return obj.ID
}

func (obj FiscalYear) GetCompanyId() int {
	return obj.CompanyId
}

// validate input for both create & update. (id = 0 for create)
func (input *NewFiscalYear) validate(ctx context.Context, companyId int, id int) error {
	if err := validateStruct(input); err != nil {
		return err
	}
	if id > 0 {
		if err := utils.ValidateResourceId[FiscalYear](ctx, companyId, id); err != nil {
			return err
		}
	}
	// name
	if err := utils.ValidateUnique[FiscalYear](ctx, companyId, "fiscal_year_name", input.FiscalYearName, id); err != nil {
		return err
	}

	start := input.StartDate.Time()
	end := input.EndDate.Time()
	if !end.After(start) {
		return errors.New("end date must be after start date")
	}

	// no overlap with other fiscal years
	db := config.GetDB()
	var count int64
	dbCtx := db.WithContext(ctx).Model(&FiscalYear{}).
		Where("company_id = ?", companyId).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if id > 0 {
		dbCtx = dbCtx.Where("id <> ?", id)
	}
	if err := dbCtx.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errors.New("fiscal year overlaps an existing fiscal year")
	}

	return nil
}

func CreateFiscalYear(ctx context.Context, input *NewFiscalYear) (*FiscalYear, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := input.validate(ctx, companyId, 0); err != nil {
		return nil, err
	}

	fiscalYear := FiscalYear{
		CompanyId:      companyId,
		FiscalYearName: input.FiscalYearName,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Create(&fiscalYear).Error
	if err != nil {
		return nil, err
	}
	return &fiscalYear, nil
}

func UpdateFiscalYear(ctx context.Context, id int, input *NewFiscalYear) (*FiscalYear, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	fiscalYear, err := utils.FetchModel[FiscalYear](ctx, companyId, id)
	if err != nil {
		return nil, err
	}

	// dates are frozen once periods have been generated
	exists, err := PeriodsExist(ctx, id)
	if err != nil {
		return nil, err
	}
	datesChanged := !fiscalYear.StartDate.Time().Equal(input.StartDate.Time()) ||
		!fiscalYear.EndDate.Time().Equal(input.EndDate.Time())
	if exists && datesChanged {
		return nil, errors.New("cannot change dates of fiscal year " + fiscalYear.FiscalYearName + " after periods have been generated")
	}

	if err := input.validate(ctx, companyId, id); err != nil {
		return nil, err
	}

	// db action
	db := config.GetDB()
	err = db.WithContext(ctx).Model(&fiscalYear).Updates(map[string]interface{}{
		"FiscalYearName": input.FiscalYearName,
		"StartDate":      input.StartDate,
		"EndDate":        input.EndDate,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := fiscalYear.RemoveInstanceRedis(); err != nil {
		return nil, err
	}

	return fiscalYear, nil
}

func GetFiscalYear(ctx context.Context, id int) (*FiscalYear, error) {

	return GetResource[FiscalYear](ctx, id)
}

func GetFiscalYears(ctx context.Context) ([]*FiscalYear, error) {
	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var results []*FiscalYear
	err = db.WithContext(ctx).Where("company_id = ?", companyId).
		Order("start_date ASC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
