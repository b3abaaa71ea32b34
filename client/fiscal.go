package client

import (
	"context"
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
)

/* fiscal years */

type FiscalYearClient struct {
	c *Client
}

func (c *Client) FiscalYears() *FiscalYearClient {
	return &FiscalYearClient{c: c}
}

func (f *FiscalYearClient) Create(ctx context.Context, input *models.NewFiscalYear) (*models.FiscalYear, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := f.c.execute(ctx, PathFiscalYear, dispatch.FiscalYearModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var fiscalYear models.FiscalYear
	if err := resp.DecodeField("data", &fiscalYear); err != nil {
		return nil, err
	}
	return &fiscalYear, nil
}

func (f *FiscalYearClient) Update(ctx context.Context, id int, input *models.NewFiscalYear) (*models.FiscalYear, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["FiscalYearID"] = id
	resp, err := f.c.execute(ctx, PathFiscalYear, dispatch.FiscalYearModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var fiscalYear models.FiscalYear
	if err := resp.DecodeField("data", &fiscalYear); err != nil {
		return nil, err
	}
	return &fiscalYear, nil
}

func (f *FiscalYearClient) GetAll(ctx context.Context) ([]*models.FiscalYear, error) {
	resp, err := f.c.execute(ctx, PathFiscalYear, dispatch.FiscalYearModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var fiscalYears []*models.FiscalYear
	if err := resp.DecodeField("data", &fiscalYears); err != nil {
		return nil, err
	}
	return fiscalYears, nil
}

func (f *FiscalYearClient) GetById(ctx context.Context, id int) (*models.FiscalYear, error) {
	resp, err := f.c.execute(ctx, PathFiscalYear, dispatch.FiscalYearModes, dispatch.OpGetById,
		dispatch.Params{"FiscalYearID": id})
	if err != nil {
		return nil, err
	}
	var fiscalYear models.FiscalYear
	if err := resp.DecodeField("data", &fiscalYear); err != nil {
		return nil, err
	}
	return &fiscalYear, nil
}

/* accounting periods */

type AccountingPeriodClient struct {
	c *Client
}

func (c *Client) AccountingPeriods() *AccountingPeriodClient {
	return &AccountingPeriodClient{c: c}
}

// GeneratePeriods creates the twelve monthly periods for a fiscal year.
// The server refuses when periods already exist; use PeriodsExist first to
// avoid offering the action at all.
func (a *AccountingPeriodClient) GeneratePeriods(ctx context.Context, fiscalYearId int) ([]*models.AccountingPeriod, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpGeneratePeriods,
		dispatch.Params{"FiscalYearID": fiscalYearId})
	if err != nil {
		return nil, err
	}
	var periods []*models.AccountingPeriod
	if err := resp.DecodeField("data", &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (a *AccountingPeriodClient) PeriodsExist(ctx context.Context, fiscalYearId int) (bool, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpPeriodsExist,
		dispatch.Params{"FiscalYearID": fiscalYearId})
	if err != nil {
		return false, err
	}
	var exists bool
	if err := resp.DecodeField("exists", &exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (a *AccountingPeriodClient) GetByFiscalYear(ctx context.Context, fiscalYearId int) ([]*models.AccountingPeriod, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpGetByFiscalYear,
		dispatch.Params{"FiscalYearID": fiscalYearId})
	if err != nil {
		return nil, err
	}
	var periods []*models.AccountingPeriod
	if err := resp.DecodeField("data", &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

func (a *AccountingPeriodClient) GetById(ctx context.Context, id int) (*models.AccountingPeriod, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpGetById,
		dispatch.Params{"PeriodID": id})
	if err != nil {
		return nil, err
	}
	var period models.AccountingPeriod
	if err := resp.DecodeField("data", &period); err != nil {
		return nil, err
	}
	return &period, nil
}

func (a *AccountingPeriodClient) GetOpen(ctx context.Context) ([]*models.AccountingPeriod, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpGetOpen, nil)
	if err != nil {
		return nil, err
	}
	var periods []*models.AccountingPeriod
	if err := resp.DecodeField("data", &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// ValidateClose is the read-only preflight for period close.
func (a *AccountingPeriodClient) ValidateClose(ctx context.Context, id int) (*models.PeriodCloseValidation, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpValidateClose,
		dispatch.Params{"PeriodID": id})
	if err != nil {
		return nil, err
	}
	var validation models.PeriodCloseValidation
	if err := resp.DecodeField("canClose", &validation.CanClose); err != nil {
		return nil, err
	}
	_ = resp.DecodeField("validationMessages", &validation.ValidationMessages)
	return &validation, nil
}

func (a *AccountingPeriodClient) Close(ctx context.Context, id int, comment string) (*models.AccountingPeriod, error) {
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpClose,
		dispatch.Params{"PeriodID": id, "Comment": comment})
	if err != nil {
		return nil, err
	}
	var period models.AccountingPeriod
	if err := resp.DecodeField("data", &period); err != nil {
		return nil, err
	}
	return &period, nil
}

// CloseWithValidation only sends the close after a clean preflight, so the
// user sees every blocker at once instead of one server error at a time.
func (a *AccountingPeriodClient) CloseWithValidation(ctx context.Context, id int, comment string) (*models.AccountingPeriod, error) {
	validation, err := a.ValidateClose(ctx, id)
	if err != nil {
		return nil, err
	}
	if !validation.CanClose {
		return nil, &ValidationError{Messages: validation.ValidationMessages}
	}
	return a.Close(ctx, id, comment)
}

func (a *AccountingPeriodClient) Reopen(ctx context.Context, id int, reason string) (*models.AccountingPeriod, error) {
	if reason == "" {
		return nil, newValidationError(fmt.Sprintf("a reason is required to reopen period %d", id))
	}
	resp, err := a.c.execute(ctx, PathAccountingPeriod, dispatch.AccountingPeriodModes, dispatch.OpReopen,
		dispatch.Params{"PeriodID": id, "Reason": reason})
	if err != nil {
		return nil, err
	}
	var period models.AccountingPeriod
	if err := resp.DecodeField("data", &period); err != nil {
		return nil, err
	}
	return &period, nil
}
