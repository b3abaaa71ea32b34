package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/models"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"bitbucket.org/terrafocus/lease_backend/workflow"
	"github.com/shopspring/decimal"
)

func TestReceiptChequeLifecyclePostsBalancedVoucherAndReversalIsTerminal(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "lease_test")
	// Exercise the full approval machine, not the NotRequired shortcut.
	t.Setenv("RECEIPT_APPROVAL_REQUIRED", "true")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// History rows require user context.
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
		PropertyName: "Marina Heights",
		PropertyType: models.PropertyTypeResidential,
		City:         "Dubai",
		Country:      "UAE",
		TotalUnits:   40,
	})
	if err != nil {
		t.Fatalf("CreateProperty: %v", err)
	}
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{
		SupplierName: "Harbor Facilities LLC",
		Country:      "UAE",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	contract, err := models.CreateContract(ctx, &models.NewContract{
		PropertyId: property.ID,
		SupplierId: supplier.ID,
		UnitNumber: "1204",
		TenantName: "Sara Haddad",
		StartDate:  models.NewDateString(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:    models.NewDateString(time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)),
		RentAmount: decimal.NewFromInt(60000),
	})
	if err != nil {
		t.Fatalf("CreateContract: %v", err)
	}
	if contract, err = models.ChangeContractStatus(ctx, contract.ID, models.ContractStatusActive, ""); err != nil {
		t.Fatalf("ChangeContractStatus(Active): %v", err)
	}

	chequeDate := models.NewDateString(time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC))
	receipt, err := models.CreateReceipt(ctx, &models.NewReceipt{
		ContractId:  contract.ID,
		ReceiptDate: models.NewDateString(time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)),
		PaymentType: models.PaymentTypeCheque,
		Amount:      decimal.NewFromInt(5000),
		ChequeNo:    "CHQ-889021",
		ChequeDate:  &chequeDate,
		BankName:    "Emirates NBD",
	})
	if err != nil {
		t.Fatalf("CreateReceipt: %v", err)
	}
	if !strings.HasPrefix(receipt.ReceiptNo, models.ReceiptNumberPrefix) {
		t.Fatalf("expected receipt number with %s prefix; got %s", models.ReceiptNumberPrefix, receipt.ReceiptNo)
	}
	if receipt.PaymentStatus != models.PaymentStatusPending {
		t.Fatalf("expected new receipt Pending; got %s", receipt.PaymentStatus)
	}
	if receipt.ApprovalStatus != models.ApprovalStatusPending {
		t.Fatalf("expected approval Pending under RECEIPT_APPROVAL_REQUIRED; got %s", receipt.ApprovalStatus)
	}

	// Preflight must refuse an unapproved, unsettled receipt.
	preflight, err := workflow.ValidateReceiptForPosting(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("ValidateReceiptForPosting: %v", err)
	}
	if preflight.IsValid || len(preflight.ValidationMessages) == 0 {
		t.Fatalf("expected posting preflight to fail; got %+v", preflight)
	}
	if _, err := workflow.PostReceiptToGL(ctx, receipt.ID); err == nil {
		t.Fatalf("expected PostReceiptToGL to refuse an unapproved receipt")
	}

	if _, err := models.ChangeReceiptApprovalStatus(ctx, receipt.ID, models.ApprovalStatusApproved); err != nil {
		t.Fatalf("approve receipt: %v", err)
	}

	// Pending -> Received -> Deposited -> Cleared.
	if _, err := models.ChangeReceiptPaymentStatus(ctx, receipt.ID, &models.ReceiptStatusChange{
		NewStatus: models.PaymentStatusReceived,
	}); err != nil {
		t.Fatalf("move to Received: %v", err)
	}
	depositDate := models.NewDateString(time.Date(2026, 2, 6, 0, 0, 0, 0, time.UTC))
	if _, err := models.ChangeReceiptPaymentStatus(ctx, receipt.ID, &models.ReceiptStatusChange{
		NewStatus:      models.PaymentStatusDeposited,
		DepositAccount: "ENBD-001",
		DepositDate:    &depositDate,
	}); err != nil {
		t.Fatalf("deposit cheque: %v", err)
	}
	clearanceDate := models.NewDateString(time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC))
	if _, err := models.ChangeReceiptPaymentStatus(ctx, receipt.ID, &models.ReceiptStatusChange{
		NewStatus:     models.PaymentStatusCleared,
		ClearanceDate: &clearanceDate,
	}); err != nil {
		t.Fatalf("clear cheque: %v", err)
	}

	posted, err := workflow.PostReceiptToGL(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("PostReceiptToGL: %v", err)
	}
	posted, err = models.GetReceipt(ctx, posted.ID)
	if err != nil {
		t.Fatalf("GetReceipt(posted): %v", err)
	}
	if posted.IsPosted == nil || !*posted.IsPosted {
		t.Fatalf("expected receipt to be posted; got %+v", posted)
	}
	if !strings.HasPrefix(posted.VoucherNo, models.ReceiptVoucherPrefix) {
		t.Fatalf("expected voucher with %s prefix; got %s", models.ReceiptVoucherPrefix, posted.VoucherNo)
	}

	postings, err := models.GetPostingsForReference(ctx, models.PostingReferenceTypeReceipt, receipt.ID)
	if err != nil {
		t.Fatalf("GetPostingsForReference: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected one posting after posting; got %d", len(postings))
	}
	original := postings[0]
	if original.TotalDebit.Cmp(decimal.NewFromInt(5000)) != 0 || !original.TotalDebit.Equal(original.TotalCredit) {
		t.Fatalf("expected balanced 5000/5000 voucher; got debit=%s credit=%s",
			original.TotalDebit.String(), original.TotalCredit.String())
	}
	// Cheques settle through bank clearing, never the cash account.
	foundClearing := false
	for _, entry := range original.Entries {
		if entry.AccountCode == models.AccountCodeBankClearing && entry.Debit.Cmp(decimal.NewFromInt(5000)) == 0 {
			foundClearing = true
		}
		if entry.AccountCode == models.AccountCodeCash {
			t.Fatalf("cheque receipt must not touch the cash account")
		}
	}
	if !foundClearing {
		t.Fatalf("expected a 5000 debit on %s; entries: %+v", models.AccountCodeBankClearing, original.Entries)
	}

	// Posting is one-way.
	if _, err := workflow.PostReceiptToGL(ctx, receipt.ID); err == nil {
		t.Fatalf("expected second PostReceiptToGL to fail")
	}

	if _, err := workflow.ReverseReceiptPosting(ctx, receipt.ID, ""); err == nil {
		t.Fatalf("expected reversal without a reason to fail")
	}
	if _, err := workflow.ReverseReceiptPosting(ctx, receipt.ID, "cheque recalled by bank"); err != nil {
		t.Fatalf("ReverseReceiptPosting: %v", err)
	}

	reversed, err := models.GetReceipt(ctx, receipt.ID)
	if err != nil {
		t.Fatalf("GetReceipt(reversed): %v", err)
	}
	if reversed.PaymentStatus != models.PaymentStatusReversed {
		t.Fatalf("expected receipt Reversed after reversal; got %s", reversed.PaymentStatus)
	}

	postings, err = models.GetPostingsForReference(ctx, models.PostingReferenceTypeReceipt, receipt.ID)
	if err != nil {
		t.Fatalf("GetPostingsForReference(after reversal): %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected original + reversal vouchers; got %d", len(postings))
	}
	original, reversal := postings[0], postings[1]
	if reversal.IsReversal == nil || !*reversal.IsReversal {
		t.Fatalf("expected second voucher to be a reversal; got %+v", reversal)
	}
	if !strings.HasPrefix(reversal.VoucherNo, models.ReversalNumberPrefix) {
		t.Fatalf("expected reversal voucher with %s prefix; got %s", models.ReversalNumberPrefix, reversal.VoucherNo)
	}
	if reversal.ReversesPostingId == nil || *reversal.ReversesPostingId != original.ID {
		t.Fatalf("reversal does not point back at the original: %+v", reversal)
	}
	if original.ReversedByPostingId == nil || *original.ReversedByPostingId != reversal.ID {
		t.Fatalf("original is not linked to its reversal: %+v", original)
	}
	if !reversal.TotalDebit.Equal(original.TotalCredit) || !reversal.TotalCredit.Equal(original.TotalDebit) {
		t.Fatalf("reversal does not mirror the original: %+v vs %+v", reversal, original)
	}

	// Reversed is terminal: no further payment status moves, no second reversal.
	if _, err := models.ChangeReceiptPaymentStatus(ctx, receipt.ID, &models.ReceiptStatusChange{
		NewStatus: models.PaymentStatusReceived,
	}); err == nil {
		t.Fatalf("expected status change out of Reversed to fail")
	}
	if _, err := workflow.ReverseReceiptPosting(ctx, receipt.ID, "again"); err == nil {
		t.Fatalf("expected second reversal to fail")
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("lease-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("lease-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=lease_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
