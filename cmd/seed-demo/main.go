// seed-demo loads a small demo dataset into the first company: masters,
// a fiscal year with generated periods, contracts in assorted lifecycle
// states and receipts in assorted payment states. Intended for local
// development against an empty database; it refuses to run when the
// company already has properties.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func main() {
	_ = godotenv.Load()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	db := config.GetDB()
	models.MigrateTable()

	var company models.Company
	if err := db.Order("id asc").Take(&company).Error; err != nil {
		fail("no company found; run seed-admin first: " + err.Error())
	}
	var admin models.User
	if err := db.Where("company_id = ? AND role = ?", company.ID, models.UserRoleAdmin).
		Order("id asc").Take(&admin).Error; err != nil {
		fail("no admin user found; run seed-admin first: " + err.Error())
	}

	ctx := utils.SetCompanyIdInContext(context.Background(), company.ID)
	ctx = utils.SetUserIdInContext(ctx, admin.ID)
	ctx = utils.SetUserNameInContext(ctx, admin.Name)
	ctx = utils.SetIsAdminInContext(ctx, true)

	var propertyCount int64
	if err := db.Model(&models.Property{}).Where("company_id = ?", company.ID).Count(&propertyCount).Error; err != nil {
		fail(err.Error())
	}
	if propertyCount > 0 {
		fail(fmt.Sprintf("company %d already has %d properties; refusing to seed", company.ID, propertyCount))
	}

	if err := seed(ctx); err != nil {
		fail(err.Error())
	}
	fmt.Println("demo data seeded for company", company.ID)
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "seed-demo: "+msg)
	os.Exit(1)
}

func seed(ctx context.Context) error {
	marina, err := models.CreateProperty(ctx, &models.NewProperty{
		PropertyName: "Marina Heights",
		PropertyType: models.PropertyTypeResidential,
		Address:      "Dubai Marina, Plot 12",
		City:         "Dubai",
		Country:      "United Arab Emirates",
		TotalUnits:   48,
		YearBuilt:    2018,
	})
	if err != nil {
		return err
	}
	plaza, err := models.CreateProperty(ctx, &models.NewProperty{
		PropertyName: "Al Quoz Business Plaza",
		PropertyType: models.PropertyTypeCommercial,
		Address:      "Al Quoz Industrial Area 3",
		City:         "Dubai",
		Country:      "United Arab Emirates",
		TotalUnits:   16,
		YearBuilt:    2012,
	})
	if err != nil {
		return err
	}

	broker, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierName: "Gulf Gate Brokerage",
		ContactName:  "Imran Qureshi",
		Email:        "leasing@gulfgate.example",
		Phone:        "+97142223344",
		Country:      "United Arab Emirates",
		PaymentTerms: models.PaymentTermsNet30,
	})
	if err != nil {
		return err
	}

	parking, err := models.CreateCharge(ctx, &models.NewCharge{
		ChargeName:      "Covered Parking",
		ChargeFrequency: models.ChargeFrequencyMonthly,
		DefaultAmount:   decimal.NewFromInt(350),
	})
	if err != nil {
		return err
	}
	serviceFee, err := models.CreateCharge(ctx, &models.NewCharge{
		ChargeName:      "Service Charge",
		ChargeFrequency: models.ChargeFrequencyMonthly,
		DefaultAmount:   decimal.NewFromInt(500),
		TaxRate:         decimal.NewFromInt(5),
		IsTaxable:       utils.NewTrue(),
	})
	if err != nil {
		return err
	}

	if _, err := models.CreateDocType(ctx, &models.NewDocType{
		DocTypeName:       "Tenancy Contract",
		IsMandatory:       utils.NewTrue(),
		MaxSizeMB:         10,
		AllowedExtensions: ".pdf",
	}); err != nil {
		return err
	}
	if _, err := models.CreateDocType(ctx, &models.NewDocType{
		DocTypeName:       "Emirates ID",
		MaxSizeMB:         5,
		AllowedExtensions: ".pdf,.jpg,.png",
	}); err != nil {
		return err
	}

	year := time.Now().Year()
	fiscalYear, err := models.CreateFiscalYear(ctx, &models.NewFiscalYear{
		FiscalYearName: fmt.Sprintf("FY %d", year),
		StartDate:      models.NewDateString(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:        models.NewDateString(time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		return err
	}
	if _, err := models.GenerateAccountingPeriods(ctx, fiscalYear.ID); err != nil {
		return err
	}

	today := time.Now().UTC()
	active, err := models.CreateContract(ctx, &models.NewContract{
		PropertyId:       marina.ID,
		SupplierId:       broker.ID,
		UnitNumber:       "1204",
		TenantName:       "Sara Haddad",
		TenantEmail:      "sara.haddad@example.com",
		TenantPhone:      "+971501112233",
		StartDate:        models.NewDateString(today.AddDate(0, -2, 0)),
		EndDate:          models.NewDateString(today.AddDate(1, -2, 0)),
		RentAmount:       decimal.NewFromInt(7500),
		DepositAmount:    decimal.NewFromInt(7500),
		PaymentFrequency: models.ChargeFrequencyMonthly,
		Charges: []*models.NewContractCharge{
			{ChargeId: parking.ID, Amount: decimal.NewFromInt(350)},
			{ChargeId: serviceFee.ID},
		},
	})
	if err != nil {
		return err
	}
	if _, err := models.ChangeContractStatus(ctx, active.ID, models.ContractStatusActive, ""); err != nil {
		return err
	}

	// a second contract left in Draft so the lifecycle screens have one of each
	if _, err := models.CreateContract(ctx, &models.NewContract{
		PropertyId:       plaza.ID,
		SupplierId:       broker.ID,
		UnitNumber:       "G-07",
		TenantName:       "Nimbus Trading LLC",
		StartDate:        models.NewDateString(today.AddDate(0, 1, 0)),
		EndDate:          models.NewDateString(today.AddDate(2, 1, 0)),
		RentAmount:       decimal.NewFromInt(18000),
		DepositAmount:    decimal.NewFromInt(18000),
		PaymentFrequency: models.ChargeFrequencyQuarterly,
	}); err != nil {
		return err
	}

	cash, err := models.CreateReceipt(ctx, &models.NewReceipt{
		ContractId:  active.ID,
		ReceiptDate: models.NewDateString(today.AddDate(0, -1, 0)),
		PaymentType: models.PaymentTypeCash,
		Amount:      decimal.NewFromInt(7850),
		Notes:       "first month rent plus parking",
	})
	if err != nil {
		return err
	}
	cash, err = models.ChangeReceiptPaymentStatus(ctx, cash.ID, &models.ReceiptStatusChange{
		NewStatus: models.PaymentStatusReceived,
	})
	if err != nil {
		return err
	}
	if cash.ApprovalStatus == models.ApprovalStatusPending {
		if _, err := models.ChangeReceiptApprovalStatus(ctx, cash.ID, models.ApprovalStatusApproved); err != nil {
			return err
		}
	}

	chequeDate := models.NewDateString(today)
	cheque, err := models.CreateReceipt(ctx, &models.NewReceipt{
		ContractId:  active.ID,
		ReceiptDate: chequeDate,
		PaymentType: models.PaymentTypeCheque,
		Amount:      decimal.NewFromInt(7850),
		ChequeNo:    "100241",
		ChequeDate:  &chequeDate,
		BankName:    "Emirates NBD",
	})
	if err != nil {
		return err
	}
	if _, err := models.ChangeReceiptPaymentStatus(ctx, cheque.ID, &models.ReceiptStatusChange{
		NewStatus: models.PaymentStatusReceived,
	}); err != nil {
		return err
	}
	depositDate := models.NewDateString(today)
	if _, err := models.ChangeReceiptPaymentStatus(ctx, cheque.ID, &models.ReceiptStatusChange{
		NewStatus:      models.PaymentStatusDeposited,
		DepositAccount: "ENBD-001-CURRENT",
		DepositDate:    &depositDate,
	}); err != nil {
		return err
	}

	invoice, err := models.CreateInvoice(ctx, &models.NewInvoice{
		ContractId:   active.ID,
		InvoiceDate:  models.NewDateString(today),
		PaymentTerms: models.PaymentTermsNet30,
	})
	if err != nil {
		return err
	}
	if _, err := models.ChangeInvoiceApprovalStatus(ctx, invoice.ID, models.ApprovalStatusApproved); err != nil {
		return err
	}

	return nil
}
