package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractStatusTransitions(t *testing.T) {
	allowed := map[ContractStatus][]ContractStatus{
		ContractStatusDraft:   {ContractStatusPending, ContractStatusActive, ContractStatusCancelled},
		ContractStatusPending: {ContractStatusActive, ContractStatusCancelled},
		ContractStatusActive:  {ContractStatusExpired, ContractStatusCompleted, ContractStatusTerminated},
		ContractStatusExpired: {ContractStatusCompleted, ContractStatusTerminated},
	}
	all := []ContractStatus{
		ContractStatusDraft, ContractStatusPending, ContractStatusActive,
		ContractStatusExpired, ContractStatusCompleted, ContractStatusTerminated,
		ContractStatusCancelled,
	}

	for _, from := range all {
		allowedSet := map[ContractStatus]bool{}
		for _, to := range allowed[from] {
			allowedSet[to] = true
		}
		for _, to := range all {
			got := from.CanTransitionTo(to)
			assert.Equalf(t, allowedSet[to], got, "%s -> %s", from, to)
		}
	}
}

func TestContractStatusTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []ContractStatus{ContractStatusCompleted, ContractStatusTerminated, ContractStatusCancelled} {
		assert.Emptyf(t, AllowedNextContractStatuses(terminal), "%s must be terminal", terminal)
	}
}

func TestPaymentStatusTransitionsForCheque(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusPending, PaymentStatusReceived, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusPending, PaymentStatusDeposited, false},
		{PaymentStatusReceived, PaymentStatusDeposited, true},
		{PaymentStatusReceived, PaymentStatusCleared, true},
		{PaymentStatusReceived, PaymentStatusBounced, true},
		{PaymentStatusReceived, PaymentStatusCancelled, true},
		{PaymentStatusReceived, PaymentStatusPending, false},
		{PaymentStatusDeposited, PaymentStatusCleared, true},
		{PaymentStatusDeposited, PaymentStatusPendingClearance, true},
		{PaymentStatusDeposited, PaymentStatusBounced, true},
		{PaymentStatusDeposited, PaymentStatusReceived, false},
		{PaymentStatusPendingClearance, PaymentStatusCleared, true},
		{PaymentStatusPendingClearance, PaymentStatusBounced, true},
		{PaymentStatusCleared, PaymentStatusBounced, true},
		{PaymentStatusCleared, PaymentStatusReceived, false},
		{PaymentStatusBounced, PaymentStatusReceived, true},
		{PaymentStatusBounced, PaymentStatusDeposited, false},
		{PaymentStatusCancelled, PaymentStatusReceived, false},
		{PaymentStatusReversed, PaymentStatusReceived, false},
	}
	for _, tc := range tests {
		got := CanTransitionPaymentStatus(tc.from, tc.to, PaymentTypeCheque)
		assert.Equalf(t, tc.want, got, "cheque %s -> %s", tc.from, tc.to)
	}
}

func TestDepositFlowUnreachableForNonCheque(t *testing.T) {
	for _, pt := range []PaymentType{PaymentTypeCash, PaymentTypeBankTransfer, PaymentTypeCard} {
		assert.Falsef(t, CanTransitionPaymentStatus(PaymentStatusReceived, PaymentStatusDeposited, pt),
			"%s must not reach Deposited", pt)
		assert.Falsef(t, CanTransitionPaymentStatus(PaymentStatusDeposited, PaymentStatusPendingClearance, pt),
			"%s must not reach PendingClearance", pt)
		// the straight Received -> Cleared hop stays open
		assert.Truef(t, CanTransitionPaymentStatus(PaymentStatusReceived, PaymentStatusCleared, pt),
			"%s must clear directly from Received", pt)
	}
}

func TestReversedOnlyEnteredByReversal(t *testing.T) {
	all := []PaymentStatus{
		PaymentStatusPending, PaymentStatusReceived, PaymentStatusDeposited,
		PaymentStatusPendingClearance, PaymentStatusCleared, PaymentStatusBounced,
		PaymentStatusCancelled, PaymentStatusReversed,
	}
	for _, from := range all {
		assert.Falsef(t, CanTransitionPaymentStatus(from, PaymentStatusReversed, PaymentTypeCheque),
			"%s -> Reversed must be refused", from)
	}
	assert.True(t, PaymentStatusReversed.IsTerminal())
	assert.True(t, PaymentStatusCancelled.IsTerminal())
	assert.False(t, PaymentStatusBounced.IsTerminal())
}

func TestAllowedNextPaymentStatusesFiltersByType(t *testing.T) {
	cheque := AllowedNextPaymentStatuses(PaymentStatusReceived, PaymentTypeCheque)
	assert.ElementsMatch(t, []PaymentStatus{
		PaymentStatusDeposited, PaymentStatusCleared, PaymentStatusBounced, PaymentStatusCancelled,
	}, cheque)

	cash := AllowedNextPaymentStatuses(PaymentStatusReceived, PaymentTypeCash)
	assert.ElementsMatch(t, []PaymentStatus{
		PaymentStatusCleared, PaymentStatusBounced, PaymentStatusCancelled,
	}, cash)

	assert.Empty(t, AllowedNextPaymentStatuses(PaymentStatusReversed, PaymentTypeCheque))
}

func TestApprovalStatusTransitions(t *testing.T) {
	assert.True(t, ApprovalStatusPending.CanTransitionTo(ApprovalStatusApproved))
	assert.True(t, ApprovalStatusPending.CanTransitionTo(ApprovalStatusRejected))
	assert.False(t, ApprovalStatusPending.CanTransitionTo(ApprovalStatusNotRequired))

	// Approved/Rejected come back to Pending only through the admin reset
	for _, terminal := range []ApprovalStatus{ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusNotRequired} {
		for _, to := range []ApprovalStatus{ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected, ApprovalStatusNotRequired} {
			assert.Falsef(t, terminal.CanTransitionTo(to), "%s -> %s", terminal, to)
		}
	}
}

func TestIsApprovedForPosting(t *testing.T) {
	assert.True(t, ApprovalStatusApproved.IsApprovedForPosting())
	assert.True(t, ApprovalStatusNotRequired.IsApprovedForPosting())
	assert.False(t, ApprovalStatusPending.IsApprovedForPosting())
	assert.False(t, ApprovalStatusRejected.IsApprovedForPosting())
}

func TestInvoiceStatusTransitions(t *testing.T) {
	tests := []struct {
		from InvoiceStatus
		to   InvoiceStatus
		want bool
	}{
		{InvoiceStatusDraft, InvoiceStatusIssued, true},
		{InvoiceStatusDraft, InvoiceStatusVoid, true},
		{InvoiceStatusDraft, InvoiceStatusPaid, false},
		{InvoiceStatusIssued, InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusIssued, InvoiceStatusPaid, true},
		{InvoiceStatusIssued, InvoiceStatusOverdue, true},
		{InvoiceStatusIssued, InvoiceStatusVoid, true},
		{InvoiceStatusIssued, InvoiceStatusDraft, false},
		{InvoiceStatusPartiallyPaid, InvoiceStatusPaid, true},
		{InvoiceStatusPartiallyPaid, InvoiceStatusOverdue, true},
		{InvoiceStatusPartiallyPaid, InvoiceStatusVoid, false},
		{InvoiceStatusOverdue, InvoiceStatusPartiallyPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusVoid, true},
		{InvoiceStatusPaid, InvoiceStatusOverdue, false},
		{InvoiceStatusVoid, InvoiceStatusIssued, false},
	}
	for _, tc := range tests {
		assert.Equalf(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEnumUnmarshalRejectsUnknownValues(t *testing.T) {
	var cs ContractStatus
	require.Error(t, json.Unmarshal([]byte(`"Frozen"`), &cs))
	require.Error(t, json.Unmarshal([]byte(`42`), &cs))
	require.NoError(t, json.Unmarshal([]byte(`"Active"`), &cs))
	assert.Equal(t, ContractStatusActive, cs)

	var ps PaymentStatus
	require.Error(t, json.Unmarshal([]byte(`"Refunded"`), &ps))
	require.NoError(t, json.Unmarshal([]byte(`"PendingClearance"`), &ps))
	assert.Equal(t, PaymentStatusPendingClearance, ps)

	var pt PaymentType
	require.Error(t, json.Unmarshal([]byte(`"Crypto"`), &pt))
	require.NoError(t, json.Unmarshal([]byte(`"BankTransfer"`), &pt))
	assert.Equal(t, PaymentTypeBankTransfer, pt)
}

func TestDateStringRoundTrip(t *testing.T) {
	var d DateString
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-15"`), &d))
	assert.Equal(t, "2026-03-15", d.Format())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-15"`, string(out))

	// older UI builds send full timestamps
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-15T10:30:00"`), &d))
	assert.Equal(t, "2026-03-15", d.Format())

	require.Error(t, json.Unmarshal([]byte(`"15/03/2026"`), &d))
}

func TestNewDateStringTruncatesToDay(t *testing.T) {
	d := NewDateString(time.Date(2026, 7, 4, 17, 45, 12, 999, time.UTC))
	assert.Equal(t, "2026-07-04", d.Format())
	assert.True(t, d.Time().Equal(time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)))
}
