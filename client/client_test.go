package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPrincipal = Principal{
	CompanyID: 3,
	UserID:    12,
	UserName:  "sara",
	Token:     "test-token",
}

// stubDispatch wraps an httptest server that decodes the envelope and lets
// the test inspect what went over the wire.
type stubDispatch struct {
	server   *httptest.Server
	calls    atomic.Int64
	lastPath string
	lastReq  dispatch.Request
	lastHdr  http.Header
	respond  func(req dispatch.Request) *dispatch.Response
}

func newStubDispatch(t *testing.T, respond func(req dispatch.Request) *dispatch.Response) *stubDispatch {
	t.Helper()
	stub := &stubDispatch{respond: respond}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.calls.Add(1)
		stub.lastPath = r.URL.Path
		stub.lastHdr = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&stub.lastReq))

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(stub.respond(stub.lastReq)))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *stubDispatch) client(opts ...Option) *Client {
	return New(s.server.URL, testPrincipal, opts...)
}

func chequeReceipt(status models.PaymentStatus) *models.Receipt {
	return &models.Receipt{
		ID:            42,
		ReceiptNo:     "RCT-000042",
		PaymentType:   models.PaymentTypeCheque,
		PaymentStatus: status,
		Amount:        decimal.NewFromInt(7850),
	}
}

func TestChangePaymentStatusSendsEnvelopeForLegalHop(t *testing.T) {
	stub := newStubDispatch(t, func(req dispatch.Request) *dispatch.Response {
		return dispatch.OK().WithData(chequeReceipt(models.PaymentStatusDeposited))
	})

	depositDate := models.NewDateString(time.Now())
	updated, err := stub.client().Receipts().ChangePaymentStatus(context.Background(),
		chequeReceipt(models.PaymentStatusReceived),
		&models.ReceiptStatusChange{
			NewStatus:      models.PaymentStatusDeposited,
			DepositAccount: "ENBD-001-CURRENT",
			DepositDate:    &depositDate,
		})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDeposited, updated.PaymentStatus)

	assert.Equal(t, int64(1), stub.calls.Load())
	assert.Equal(t, PathReceipt, stub.lastPath)
	assert.Equal(t, dispatch.ReceiptModes.MustMode(dispatch.OpChangePaymentStatus), stub.lastReq.Mode)
	assert.Equal(t, "test-token", stub.lastHdr.Get("token"))

	id, ok := stub.lastReq.Parameters.Int("ReceiptID")
	require.True(t, ok)
	assert.Equal(t, 42, id)
	companyId, ok := stub.lastReq.Parameters.Int("CompanyID")
	require.True(t, ok)
	assert.Equal(t, 3, companyId)
	userName, _ := stub.lastReq.Parameters.String("CurrentUserName")
	assert.Equal(t, "sara", userName)
}

func TestChangePaymentStatusRejectsIllegalHopBeforeNetwork(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("illegal hop must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	_, err := stub.client().Receipts().ChangePaymentStatus(context.Background(),
		chequeReceipt(models.PaymentStatusDeposited),
		&models.ReceiptStatusChange{NewStatus: models.PaymentStatusReceived})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Messages[0], "RCT-000042")
	assert.Equal(t, int64(0), stub.calls.Load())
}

func TestChangePaymentStatusRequiresDepositFields(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("incomplete change must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	_, err := stub.client().Receipts().ChangePaymentStatus(context.Background(),
		chequeReceipt(models.PaymentStatusReceived),
		&models.ReceiptStatusChange{NewStatus: models.PaymentStatusDeposited})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Messages, 2)
	assert.Equal(t, int64(0), stub.calls.Load())
}

func TestCreateReceiptRequiresChequeFields(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("invalid input must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	_, err := stub.client().Receipts().Create(context.Background(), &models.NewReceipt{
		ContractId:  1,
		ReceiptDate: models.NewDateString(time.Now()),
		PaymentType: models.PaymentTypeCheque,
		Amount:      decimal.Zero,
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	// cheque number, cheque date, bank name, non-positive amount
	assert.Len(t, validationErr.Messages, 4)
	assert.Equal(t, int64(0), stub.calls.Load())
}

func TestGeneratePeriodsDuplicateBecomesDomainError(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		return dispatch.Fail("accounting periods already exist for fiscal year 5")
	})

	_, err := stub.client().AccountingPeriods().GeneratePeriods(context.Background(), 5)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, dispatch.OpGeneratePeriods, domainErr.Op)
	assert.Contains(t, domainErr.Message, "already exist")
}

func TestFailureWithValidationMessagesBecomesValidationError(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		return dispatch.Fail("receipt is not ready for posting").
			WithField("isValid", false).
			WithField("validationMessages", []string{
				"receipt RCT-000042 approval status is Pending",
				"receipt RCT-000042 payment status is Pending",
			})
	})

	_, err := stub.client().Receipts().PostToGL(context.Background(), 42)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Messages, 2)
}

func TestPostToGLAlreadyPostedBecomesDomainError(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		return dispatch.Fail("receipt RCT-000042 is already posted under voucher RV-000007")
	})

	_, err := stub.client().Receipts().PostToGL(context.Background(), 42)

	var domainErr *DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Contains(t, domainErr.Message, "RV-000007")
}

func TestReversePostingRequiresReason(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("reversal without a reason must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	_, err := stub.client().Receipts().ReversePosting(context.Background(), 42, "")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int64(0), stub.calls.Load())
}

func TestNon200BecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := New(server.URL, testPrincipal)
	_, err := c.Receipts().GetById(context.Background(), 1)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Contains(t, transportErr.Error(), "502")
}

func TestConnectionFailureBecomesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	c := New(server.URL, testPrincipal)
	_, err := c.Receipts().GetAll(context.Background())

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	require.NotNil(t, transportErr.Unwrap())
}

func TestUpdateClearanceRejectsBadOutcome(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("bad outcome must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	_, err := stub.client().Receipts().UpdateClearance(context.Background(), &models.ReceiptClearanceInput{
		ReceiptIds:    []int{1, 2},
		Outcome:       models.PaymentStatusCancelled,
		ClearanceDate: models.NewDateString(time.Now()),
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int64(0), stub.calls.Load())
}

func TestCloseWithValidationStopsOnBlockedPreflight(t *testing.T) {
	stub := newStubDispatch(t, func(req dispatch.Request) *dispatch.Response {
		op, _ := dispatch.AccountingPeriodModes.OpFor(req.Mode)
		assert.Equal(t, dispatch.OpValidateClose, op, "only the preflight may be sent")
		return dispatch.OK().
			WithField("canClose", false).
			WithField("validationMessages", []string{"2 unposted receipts dated inside the period"})
	})

	_, err := stub.client().AccountingPeriods().CloseWithValidation(context.Background(), 8, "month end")

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int64(1), stub.calls.Load())
}

func TestChangeApprovalStatusRejectsTerminalHop(t *testing.T) {
	stub := newStubDispatch(t, func(dispatch.Request) *dispatch.Response {
		t.Error("terminal approval hop must not reach the server")
		return dispatch.Fail("unexpected call")
	})

	receipt := chequeReceipt(models.PaymentStatusReceived)
	receipt.ApprovalStatus = models.ApprovalStatusApproved

	_, err := stub.client().Receipts().ChangeApprovalStatus(context.Background(), receipt, models.ApprovalStatusRejected)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, int64(0), stub.calls.Load())
}
