package models_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"bitbucket.org/terrafocus/lease_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestAccountingPeriodCloseOrderingAndReopenAgainstDatabase(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "lease_test")
	// New receipts start NotRequired so they count as approved for posting.
	t.Setenv("RECEIPT_APPROVAL_REQUIRED", "")
	// Hard reopen ordering guard.
	t.Setenv("PERIOD_REOPEN_GUARD", "")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	company, err := models.CreateCompany(ctx, &models.NewCompany{
		CompanyName: "Gulf Gate Estates",
		Country:     "UAE",
		City:        "Dubai",
	})
	if err != nil {
		t.Fatalf("CreateCompany: %v", err)
	}
	ctx = utils.SetCompanyIdInContext(ctx, company.ID)

	property, err := models.CreateProperty(ctx, &models.NewProperty{
		PropertyName: "Palm Court",
		PropertyType: models.PropertyTypeCommercial,
		City:         "Dubai",
		Country:      "UAE",
		TotalUnits:   12,
	})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierName: "Palm Court Management",
		Country:      "UAE",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	contract, err := models.CreateContract(ctx, &models.NewContract{
		PropertyId: property.ID,
		SupplierId: supplier.ID,
		UnitNumber: "G-02",
		TenantName: "Omar Farouk",
		StartDate:  models.NewDateString(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:    models.NewDateString(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
		RentAmount: decimal.NewFromInt(84000),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if _, err := models.ChangeContractStatus(ctx, contract.ID, models.ContractStatusActive, ""); err != nil {
		t.Fatalf("ChangeContractStatus(Active): %v", err)
	}

	fiscalYear, err := models.CreateFiscalYear(ctx, &models.NewFiscalYear{
		FiscalYearName: "FY2026",
		StartDate:      models.NewDateString(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:        models.NewDateString(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("CreateFiscalYear: %v", err)
	}

	periods, err := models.GenerateAccountingPeriods(ctx, fiscalYear.ID)
	if err != nil {
		t.Fatalf("GenerateAccountingPeriods: %v", err)
	}
	if len(periods) != 12 {
		t.Fatalf("expected 12 periods for a calendar year; got %d", len(periods))
	}
	for _, p := range periods {
		if !p.IsOpen || p.IsClosed {
			t.Fatalf("generated period %s must be open: IsOpen=%v IsClosed=%v", p.PeriodName, p.IsOpen, p.IsClosed)
		}
	}
	if _, err := models.GenerateAccountingPeriods(ctx, fiscalYear.ID); err == nil {
		t.Fatalf("expected second generation for the same fiscal year to fail")
	}
	open, err := models.GetOpenPeriods(ctx)
	if err != nil {
		t.Fatalf("GetOpenPeriods: %v", err)
	}
	if len(open) != 12 {
		t.Fatalf("expected 12 open periods; got %d", len(open))
	}

	january, february, march := periods[0], periods[1], periods[2]

	// A cash receipt in January: approved (NotRequired) but unsettled and
	// unposted, so January must refuse to close.
	receipt, err := models.CreateReceipt(ctx, &models.NewReceipt{
		ContractId:  contract.ID,
		ReceiptDate: models.NewDateString(time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)),
		PaymentType: models.PaymentTypeCash,
		Amount:      decimal.NewFromInt(7000),
	})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if receipt.ApprovalStatus != models.ApprovalStatusNotRequired {
		t.Fatalf("expected approval NotRequired; got %s", receipt.ApprovalStatus)
	}

	validation, err := models.ValidatePeriodClose(ctx, january.ID)
	if err != nil {
		t.Fatalf("ValidatePeriodClose: %v", err)
	}
	if validation.CanClose {
		t.Fatalf("expected January close to be blocked by the pending receipt")
	}
	if _, err := models.CloseAccountingPeriod(ctx, january.ID); err == nil {
		t.Fatalf("expected CloseAccountingPeriod to refuse January")
	}
	// A blocked close must leave the status pair untouched.
	january, err = models.GetAccountingPeriod(ctx, january.ID)
	if err != nil {
		t.Fatalf("GetAccountingPeriod(january): %v", err)
	}
	if !january.IsOpen || january.IsClosed {
		t.Fatalf("blocked close changed period status: IsOpen=%v IsClosed=%v", january.IsOpen, january.IsClosed)
	}

	// Settle and post the receipt, then January can close.
	if _, err := models.ChangeReceiptPaymentStatus(ctx, receipt.ID, &models.ReceiptStatusChange{
		NewStatus: models.PaymentStatusReceived,
	}); err != nil {
		t.Fatalf("move receipt to Received: %v", err)
	}
	if _, err := workflow.PostReceiptToGL(ctx, receipt.ID); err != nil {
		t.Fatalf("PostReceiptToGL: %v", err)
	}

	// Oldest first: February cannot close while January is open.
	if _, err := models.CloseAccountingPeriod(ctx, february.ID); err == nil {
		t.Fatalf("expected February close to fail while January is open")
	}

	january, err = models.CloseAccountingPeriod(ctx, january.ID)
	if err != nil {
		t.Fatalf("CloseAccountingPeriod(january): %v", err)
	}
	if january.IsOpen || !january.IsClosed {
		t.Fatalf("closed period status pair wrong: IsOpen=%v IsClosed=%v", january.IsOpen, january.IsClosed)
	}
	if january.ClosedBy != "Test" || january.ClosedAt == nil {
		t.Fatalf("close audit fields not stamped: %+v", january)
	}
	if _, err := models.CloseAccountingPeriod(ctx, january.ID); err == nil {
		t.Fatalf("expected second close of January to fail")
	}
	open, err = models.GetOpenPeriods(ctx)
	if err != nil {
		t.Fatalf("GetOpenPeriods: %v", err)
	}
	if len(open) != 11 {
		t.Fatalf("expected 11 open periods after closing January; got %d", len(open))
	}

	// The closed period is locked against new documents.
	if _, err := models.CreateReceipt(ctx, &models.NewReceipt{
		ContractId:  contract.ID,
		ReceiptDate: models.NewDateString(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)),
		PaymentType: models.PaymentTypeCash,
		Amount:      decimal.NewFromInt(100),
	}); err == nil {
		t.Fatalf("expected receipt dated in closed January to be refused")
	}

	if _, err := models.CloseAccountingPeriod(ctx, february.ID); err != nil {
		t.Fatalf("CloseAccountingPeriod(february): %v", err)
	}
	// Not adjacent-skipping: March may close now, but don't; reopen instead.

	// Reopen newest first: January stays shut while February is closed.
	if _, err := models.ReopenAccountingPeriod(ctx, january.ID, "wrong cutoff"); err == nil {
		t.Fatalf("expected reopen of January to fail while February is closed")
	}
	if _, err := models.ReopenAccountingPeriod(ctx, february.ID, ""); err == nil {
		t.Fatalf("expected reopen without a reason to fail")
	}
	february, err = models.ReopenAccountingPeriod(ctx, february.ID, "late bank statement")
	if err != nil {
		t.Fatalf("ReopenAccountingPeriod(february): %v", err)
	}
	if !february.IsOpen || february.IsClosed {
		t.Fatalf("reopened period status pair wrong: IsOpen=%v IsClosed=%v", february.IsOpen, february.IsClosed)
	}
	if february.ReopenReason != "late bank statement" || february.ReopenedBy != "Test" {
		t.Fatalf("reopen audit fields not stamped: %+v", february)
	}

	// January is now the newest closed period and may reopen.
	january, err = models.ReopenAccountingPeriod(ctx, january.ID, "rebooking receipt")
	if err != nil {
		t.Fatalf("ReopenAccountingPeriod(january): %v", err)
	}
	if !january.IsOpen || january.IsClosed {
		t.Fatalf("reopened January status pair wrong: IsOpen=%v IsClosed=%v", january.IsOpen, january.IsClosed)
	}

	// March never moved.
	march, err = models.GetAccountingPeriod(ctx, march.ID)
	if err != nil {
		t.Fatalf("GetAccountingPeriod(march): %v", err)
	}
	if !march.IsOpen || march.IsClosed {
		t.Fatalf("march status pair drifted: IsOpen=%v IsClosed=%v", march.IsOpen, march.IsClosed)
	}
}
