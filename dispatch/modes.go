package dispatch

import "fmt"

// Op is a symbolic operation name. Handlers and clients speak ops; the mode
// integer in the envelope is the wire truth and lives only in the tables.
type Op string

const (
	OpCreate     Op = "create"
	OpUpdate     Op = "update"
	OpGetAll     Op = "getAll"
	OpGetById    Op = "getById"
	OpDelete     Op = "delete"
	OpSearch     Op = "search"
	OpStatistics Op = "statistics"

	OpGeneratePeriods Op = "generatePeriods"
	OpGetByFiscalYear Op = "getByFiscalYear"
	OpValidateClose   Op = "validateClose"
	OpClose           Op = "close"
	OpReopen          Op = "reopen"
	OpPeriodsExist    Op = "periodsExist"
	OpGetOpen         Op = "getOpen"

	OpChangeStatus Op = "changeStatus"
	OpGetExpiring  Op = "getExpiring"

	OpChangePaymentStatus  Op = "changePaymentStatus"
	OpGetByPaymentStatus   Op = "getByPaymentStatus"
	OpGetPendingClearance  Op = "getPendingClearance"
	OpUpdateClearance      Op = "updateClearance"
	OpValidatePosting      Op = "validatePosting"
	OpPostToGL             Op = "postToGL"
	OpReversePosting       Op = "reversePosting"
	OpChangeApprovalStatus Op = "changeApprovalStatus"
	OpExportExcel          Op = "exportExcel"

	OpResetApproval Op = "resetApproval"
)

// ModeTable is the bidirectional Op<->mode map for one entity family.
// Modes are assigned densely from 1 in declaration order, so a table cannot
// have gaps or duplicates by construction.
type ModeTable struct {
	family   string
	ops      []Op
	opToMode map[Op]int
}

func NewModeTable(family string, ops ...Op) *ModeTable {
	table := &ModeTable{
		family:   family,
		ops:      ops,
		opToMode: make(map[Op]int, len(ops)),
	}
	for i, op := range ops {
		if _, dup := table.opToMode[op]; dup {
			panic(fmt.Sprintf("dispatch: duplicate op %q in %s mode table", op, family))
		}
		table.opToMode[op] = i + 1
	}
	return table
}

func (t *ModeTable) Family() string {
	return t.family
}

func (t *ModeTable) Len() int {
	return len(t.ops)
}

// Ops returns the ops in mode order (mode = index + 1).
func (t *ModeTable) Ops() []Op {
	result := make([]Op, len(t.ops))
	copy(result, t.ops)
	return result
}

func (t *ModeTable) ModeFor(op Op) (int, bool) {
	mode, ok := t.opToMode[op]
	return mode, ok
}

// MustMode is for call sites where a missing op is a coding error, caught
// by the coverage tests, never a runtime condition.
func (t *ModeTable) MustMode(op Op) int {
	mode, ok := t.opToMode[op]
	if !ok {
		panic(fmt.Sprintf("dispatch: op %q is not in the %s mode table", op, t.family))
	}
	return mode
}

func (t *ModeTable) OpFor(mode int) (Op, bool) {
	if mode < 1 || mode > len(t.ops) {
		return "", false
	}
	return t.ops[mode-1], true
}

/* family tables, shared by server and client */

var (
	PropertyModes = NewModeTable("property",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch, OpStatistics)

	SupplierModes = NewModeTable("supplier",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch, OpStatistics)

	ChargeModes = NewModeTable("additionalcharges",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch)

	DocTypeModes = NewModeTable("doctype",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete)

	FiscalYearModes = NewModeTable("fiscalyear",
		OpCreate, OpUpdate, OpGetAll, OpGetById)

	AccountingPeriodModes = NewModeTable("accountingperiod",
		OpGeneratePeriods, OpGetByFiscalYear, OpGetById, OpValidateClose,
		OpClose, OpReopen, OpPeriodsExist, OpGetOpen)

	ContractModes = NewModeTable("contract",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch,
		OpChangeStatus, OpStatistics, OpGetExpiring)

	ReceiptModes = NewModeTable("receipt",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch,
		OpChangePaymentStatus, OpGetByPaymentStatus, OpGetPendingClearance,
		OpUpdateClearance, OpValidatePosting, OpPostToGL, OpReversePosting,
		OpChangeApprovalStatus, OpStatistics, OpExportExcel)

	InvoiceModes = NewModeTable("invoice",
		OpCreate, OpUpdate, OpGetAll, OpGetById, OpDelete, OpSearch,
		OpChangeApprovalStatus, OpResetApproval, OpValidatePosting,
		OpPostToGL, OpReversePosting, OpStatistics, OpExportExcel)
)
