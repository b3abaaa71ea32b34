package main

import (
	"context"
	"fmt"
	"net/http"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"bitbucket.org/terrafocus/lease_backend/workflow"
	"github.com/gin-gonic/gin"
)

// Dispatch paths. One POST endpoint per entity family; the mode integer in
// the envelope selects the operation.
const (
	pathProperty         = "/Master/property"
	pathSupplier         = "/Master/supplier"
	pathCharge           = "/Master/additionalcharges"
	pathDocType          = "/Master/doctype"
	pathFiscalYear       = "/Master/fiscalyear"
	pathAccountingPeriod = "/Master/accountingperiod"
	pathContract         = "/LeaseManagement/contract"
	pathReceipt          = "/LeaseManagement/receipt"
	pathReceiptLegacy    = "/Master/receipt"
	pathInvoice          = "/LeaseManagement/invoice"
)

func requireInt(params dispatch.Params, key string) (int, error) {
	id, ok := params.Int(key)
	if !ok || id <= 0 {
		return 0, fmt.Errorf("%s parameter is required", key)
	}
	return id, nil
}

func requireString(params dispatch.Params, key string) (string, error) {
	s, ok := params.String(key)
	if !ok || s == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return s, nil
}

func registerRoutes(r gin.IRoutes) {
	dispatch.RegisterFamily(r, pathProperty, dispatch.PropertyModes, propertyHandlers())
	dispatch.RegisterFamily(r, pathSupplier, dispatch.SupplierModes, supplierHandlers())
	dispatch.RegisterFamily(r, pathCharge, dispatch.ChargeModes, chargeHandlers())
	dispatch.RegisterFamily(r, pathDocType, dispatch.DocTypeModes, docTypeHandlers())
	dispatch.RegisterFamily(r, pathFiscalYear, dispatch.FiscalYearModes, fiscalYearHandlers())
	dispatch.RegisterFamily(r, pathAccountingPeriod, dispatch.AccountingPeriodModes, accountingPeriodHandlers())
	dispatch.RegisterFamily(r, pathContract, dispatch.ContractModes, contractHandlers())

	receiptFamily := receiptHandlers()
	dispatch.RegisterFamily(r, pathReceipt, dispatch.ReceiptModes, receiptFamily)
	// older UI builds still post receipts under /Master
	dispatch.RegisterFamily(r, pathReceiptLegacy, dispatch.ReceiptModes, receiptFamily)

	dispatch.RegisterFamily(r, pathInvoice, dispatch.InvoiceModes, invoiceHandlers())

	r.POST("/auth/login", loginHandler)
	r.POST("/auth/logout", logoutHandler)
	r.POST("/auth/changepassword", changePasswordHandler)

	r.POST("/export/receipts", receiptExportDownloadHandler)
	r.POST("/export/invoices", invoiceExportDownloadHandler)
}

/* masters */

func propertyHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewProperty
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			property, err := models.CreateProperty(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Property", property.ID).WithData(property), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PropertyID")
			if err != nil {
				return nil, err
			}
			var input models.NewProperty
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			property, err := models.UpdateProperty(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(property), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			properties, err := models.GetProperties(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(properties), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PropertyID")
			if err != nil {
				return nil, err
			}
			property, err := models.GetProperty(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(property), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PropertyID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteProperty(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.PropertySearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchProperties(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
		dispatch.OpStatistics: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			stats, err := models.GetPropertyStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithTable1(stats.ByType).WithTable2(stats.TopProperties), nil
		},
	}
}

func supplierHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewSupplier
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			supplier, err := models.CreateSupplier(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Supplier", supplier.ID).WithData(supplier), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "SupplierID")
			if err != nil {
				return nil, err
			}
			var input models.NewSupplier
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			supplier, err := models.UpdateSupplier(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(supplier), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			suppliers, err := models.GetSuppliers(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(suppliers), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "SupplierID")
			if err != nil {
				return nil, err
			}
			supplier, err := models.GetSupplier(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(supplier), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "SupplierID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteSupplier(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.SupplierSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchSuppliers(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
		dispatch.OpStatistics: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			stats, err := models.GetSupplierStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(stats), nil
		},
	}
}

func chargeHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewCharge
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			charge, err := models.CreateCharge(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Charge", charge.ID).WithData(charge), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ChargeID")
			if err != nil {
				return nil, err
			}
			var input models.NewCharge
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			charge, err := models.UpdateCharge(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(charge), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			charges, err := models.GetCharges(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(charges), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ChargeID")
			if err != nil {
				return nil, err
			}
			charge, err := models.GetCharge(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(charge), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ChargeID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteCharge(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.ChargeSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchCharges(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
	}
}

func docTypeHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewDocType
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			docType, err := models.CreateDocType(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("DocType", docType.ID).WithData(docType), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "DocTypeID")
			if err != nil {
				return nil, err
			}
			var input models.NewDocType
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			docType, err := models.UpdateDocType(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(docType), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			docTypes, err := models.GetDocTypes(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(docTypes), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "DocTypeID")
			if err != nil {
				return nil, err
			}
			docType, err := models.GetDocType(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(docType), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "DocTypeID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteDocType(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
	}
}

/* accounting calendar */

func fiscalYearHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewFiscalYear
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			fiscalYear, err := models.CreateFiscalYear(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("FiscalYear", fiscalYear.ID).WithData(fiscalYear), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "FiscalYearID")
			if err != nil {
				return nil, err
			}
			var input models.NewFiscalYear
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			fiscalYear, err := models.UpdateFiscalYear(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(fiscalYear), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			fiscalYears, err := models.GetFiscalYears(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(fiscalYears), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "FiscalYearID")
			if err != nil {
				return nil, err
			}
			fiscalYear, err := models.GetFiscalYear(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(fiscalYear), nil
		},
	}
}

func accountingPeriodHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpGeneratePeriods: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			fiscalYearId, err := requireInt(params, "FiscalYearID")
			if err != nil {
				return nil, err
			}
			periods, err := models.GenerateAccountingPeriods(ctx, fiscalYearId)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(periods), nil
		},
		dispatch.OpGetByFiscalYear: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			fiscalYearId, err := requireInt(params, "FiscalYearID")
			if err != nil {
				return nil, err
			}
			periods, err := models.GetPeriodsByFiscalYear(ctx, fiscalYearId)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(periods), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PeriodID")
			if err != nil {
				return nil, err
			}
			period, err := models.GetAccountingPeriod(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(period), nil
		},
		dispatch.OpValidateClose: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PeriodID")
			if err != nil {
				return nil, err
			}
			validation, err := models.ValidatePeriodClose(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().
				WithField("canClose", validation.CanClose).
				WithField("validationMessages", validation.ValidationMessages), nil
		},
		dispatch.OpClose: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "PeriodID")
			if err != nil {
				return nil, err
			}
			period, err := models.CloseAccountingPeriod(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(period), nil
		},
		dispatch.OpReopen: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			if isAdmin, ok := utils.GetIsAdminFromContext(ctx); !ok || !isAdmin {
				return nil, fmt.Errorf("only an administrator can reopen an accounting period")
			}
			id, err := requireInt(params, "PeriodID")
			if err != nil {
				return nil, err
			}
			reason, err := requireString(params, "Reason")
			if err != nil {
				return nil, err
			}
			period, err := models.ReopenAccountingPeriod(ctx, id, reason)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(period), nil
		},
		dispatch.OpPeriodsExist: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			fiscalYearId, err := requireInt(params, "FiscalYearID")
			if err != nil {
				return nil, err
			}
			exists, err := models.PeriodsExist(ctx, fiscalYearId)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithField("exists", exists), nil
		},
		dispatch.OpGetOpen: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			periods, err := models.GetOpenPeriods(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(periods), nil
		},
	}
}

/* lease management */

func contractHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewContract
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			contract, err := models.CreateContract(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Contract", contract.ID).WithData(contract), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ContractID")
			if err != nil {
				return nil, err
			}
			var input models.NewContract
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			contract, err := models.UpdateContract(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(contract), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			contracts, err := models.GetContracts(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(contracts), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ContractID")
			if err != nil {
				return nil, err
			}
			contract, err := models.GetContract(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(contract), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ContractID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteContract(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.ContractSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchContracts(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
		dispatch.OpChangeStatus: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ContractID")
			if err != nil {
				return nil, err
			}
			newStatus, err := requireString(params, "NewStatus")
			if err != nil {
				return nil, err
			}
			reason, _ := params.String("Reason")
			contract, err := models.ChangeContractStatus(ctx, id, models.ContractStatus(newStatus), reason)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(contract), nil
		},
		dispatch.OpStatistics: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			stats, err := models.GetContractStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(stats), nil
		},
		dispatch.OpGetExpiring: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			withinDays, ok := params.Int("WithinDays")
			if !ok || withinDays <= 0 {
				withinDays = 30
			}
			contracts, err := models.GetExpiringContracts(ctx, withinDays)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(contracts), nil
		},
	}
}

func receiptHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewReceipt
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			receipt, err := models.CreateReceipt(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Receipt", receipt.ID).WithData(receipt), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			var input models.NewReceipt
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			receipt, err := models.UpdateReceipt(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			receipts, err := models.GetReceipts(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipts), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			receipt, err := models.GetReceipt(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteReceipt(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.ReceiptSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchReceipts(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
		dispatch.OpChangePaymentStatus: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			var change models.ReceiptStatusChange
			if err := params.Bind(&change); err != nil {
				return nil, err
			}
			receipt, err := models.ChangeReceiptPaymentStatus(ctx, id, &change)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpGetByPaymentStatus: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			status, err := requireString(params, "PaymentStatus")
			if err != nil {
				return nil, err
			}
			receipts, err := models.GetReceiptsByPaymentStatus(ctx, models.PaymentStatus(status))
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipts), nil
		},
		dispatch.OpGetPendingClearance: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			receipts, err := models.GetReceiptsPendingClearance(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipts), nil
		},
		dispatch.OpUpdateClearance: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.ReceiptClearanceInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			receipts, err := models.UpdateReceiptClearance(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipts), nil
		},
		dispatch.OpValidatePosting: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			validation, err := workflow.ValidateReceiptForPosting(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().
				WithField("isValid", validation.IsValid).
				WithField("validationMessages", validation.ValidationMessages), nil
		},
		dispatch.OpPostToGL: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			receipt, err := workflow.PostReceiptToGL(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpReversePosting: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			reason, err := requireString(params, "Reason")
			if err != nil {
				return nil, err
			}
			receipt, err := workflow.ReverseReceiptPosting(ctx, id, reason)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpChangeApprovalStatus: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "ReceiptID")
			if err != nil {
				return nil, err
			}
			newStatus, err := requireString(params, "NewStatus")
			if err != nil {
				return nil, err
			}
			receipt, err := models.ChangeReceiptApprovalStatus(ctx, id, models.ApprovalStatus(newStatus))
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(receipt), nil
		},
		dispatch.OpStatistics: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			stats, err := models.GetReceiptStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithTable1(stats.ByStatus).WithTable2(stats.Monthly), nil
		},
		dispatch.OpExportExcel: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.ReceiptSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			export, err := models.ExportReceiptsExcel(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(export), nil
		},
	}
}

func invoiceHandlers() map[dispatch.Op]dispatch.HandlerFunc {
	return map[dispatch.Op]dispatch.HandlerFunc{
		dispatch.OpCreate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.NewInvoice
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			invoice, err := models.CreateInvoice(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithNewID("Invoice", invoice.ID).WithData(invoice), nil
		},
		dispatch.OpUpdate: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			var input models.NewInvoice
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			invoice, err := models.UpdateInvoice(ctx, id, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpGetAll: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			invoices, err := models.GetInvoices(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoices), nil
		},
		dispatch.OpGetById: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			invoice, err := models.GetInvoice(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpDelete: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			if _, err := models.DeleteInvoice(ctx, id); err != nil {
				return nil, err
			}
			return dispatch.OK(), nil
		},
		dispatch.OpSearch: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.InvoiceSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			page, err := models.SearchInvoices(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(page.Rows).WithField("totalCount", page.TotalCount), nil
		},
		dispatch.OpChangeApprovalStatus: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			newStatus, err := requireString(params, "NewStatus")
			if err != nil {
				return nil, err
			}
			invoice, err := models.ChangeInvoiceApprovalStatus(ctx, id, models.ApprovalStatus(newStatus))
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpResetApproval: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			reason, err := requireString(params, "Reason")
			if err != nil {
				return nil, err
			}
			invoice, err := models.ResetInvoiceApproval(ctx, id, reason)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpValidatePosting: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			validation, err := workflow.ValidateInvoiceForPosting(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().
				WithField("isValid", validation.IsValid).
				WithField("validationMessages", validation.ValidationMessages), nil
		},
		dispatch.OpPostToGL: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			invoice, err := workflow.PostInvoiceToGL(ctx, id)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpReversePosting: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			id, err := requireInt(params, "InvoiceID")
			if err != nil {
				return nil, err
			}
			reason, err := requireString(params, "Reason")
			if err != nil {
				return nil, err
			}
			invoice, err := workflow.ReverseInvoicePosting(ctx, id, reason)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(invoice), nil
		},
		dispatch.OpStatistics: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			stats, err := models.GetInvoiceStatistics(ctx)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithTable1(stats.ByStatus).WithTable2(stats.Monthly), nil
		},
		dispatch.OpExportExcel: func(ctx context.Context, params dispatch.Params) (*dispatch.Response, error) {
			var input models.InvoiceSearchInput
			if err := params.Bind(&input); err != nil {
				return nil, err
			}
			export, err := models.ExportInvoicesExcel(ctx, &input)
			if err != nil {
				return nil, err
			}
			return dispatch.OK().WithData(export), nil
		},
	}
}

/* auth */

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	info, err := models.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

func logoutHandler(c *gin.Context) {
	ok, err := models.Logout(c.Request.Context())
	if err != nil || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func changePasswordHandler(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "oldPassword and newPassword are required"})
		return
	}
	ok, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword)
	if err != nil || !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

/* excel downloads; the dispatch exportExcel ops return the same bytes
   base64-wrapped for envelope clients */

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func receiptExportDownloadHandler(c *gin.Context) {
	var input models.ReceiptSearchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search input"})
		return
	}
	export, err := models.ExportReceiptsExcel(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, xlsxContentType, export.FileContent)
}

func invoiceExportDownloadHandler(c *gin.Context) {
	var input models.InvoiceSearchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search input"})
		return
	}
	export, err := models.ExportInvoicesExcel(c.Request.Context(), &input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName))
	c.Data(http.StatusOK, xlsxContentType, export.FileContent)
}
