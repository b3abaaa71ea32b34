package config

import (
	"os"
	"strings"
)

// PeriodReopenGuardAdvisory downgrades the reopen-ordering guard from a hard
// refusal to a logged warning. Reopening an accounting period normally fails
// while a later period of the same fiscal year is still closed; data-repair
// sessions can relax that without schema surgery.
//
// Set via env:
// - PERIOD_REOPEN_GUARD=advisory
func PeriodReopenGuardAdvisory() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PERIOD_REOPEN_GUARD")))
	return v == "advisory" || v == "off"
}

// ReceiptApprovalRequired controls whether new receipts start in approval
// state Pending (true) or NotRequired (false). Invoices always start Pending.
//
// Set via env:
// - RECEIPT_APPROVAL_REQUIRED=true
func ReceiptApprovalRequired() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("RECEIPT_APPROVAL_REQUIRED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
