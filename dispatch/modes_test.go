package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allFamilyTables = []*ModeTable{
	PropertyModes, SupplierModes, ChargeModes, DocTypeModes, FiscalYearModes,
	AccountingPeriodModes, ContractModes, ReceiptModes, InvoiceModes,
}

func TestModeTablesAreDenseAndBijective(t *testing.T) {
	for _, table := range allFamilyTables {
		ops := table.Ops()
		require.Equalf(t, table.Len(), len(ops), "%s", table.Family())
		for i, op := range ops {
			mode, ok := table.ModeFor(op)
			require.Truef(t, ok, "%s: op %s missing", table.Family(), op)
			assert.Equalf(t, i+1, mode, "%s: op %s", table.Family(), op)

			back, ok := table.OpFor(mode)
			require.Truef(t, ok, "%s: mode %d missing", table.Family(), mode)
			assert.Equalf(t, op, back, "%s: mode %d", table.Family(), mode)
		}
	}
}

func TestModeTableRejectsOutOfRangeModes(t *testing.T) {
	for _, table := range allFamilyTables {
		_, ok := table.OpFor(0)
		assert.Falsef(t, ok, "%s: mode 0", table.Family())
		_, ok = table.OpFor(-3)
		assert.Falsef(t, ok, "%s: negative mode", table.Family())
		_, ok = table.OpFor(table.Len() + 1)
		assert.Falsef(t, ok, "%s: mode past the end", table.Family())
	}
}

func TestMustModePanicsOnUnknownOp(t *testing.T) {
	assert.Panics(t, func() {
		ChargeModes.MustMode(OpPostToGL)
	})
	assert.NotPanics(t, func() {
		assert.Equal(t, 1, ChargeModes.MustMode(OpCreate))
	})
}

func TestNewModeTablePanicsOnDuplicateOp(t *testing.T) {
	assert.Panics(t, func() {
		NewModeTable("broken", OpCreate, OpUpdate, OpCreate)
	})
}

func TestWellKnownModeAssignments(t *testing.T) {
	// spot checks pinning the wire contract for callers that hard-code modes
	assert.Equal(t, 1, PropertyModes.MustMode(OpCreate))
	assert.Equal(t, 7, PropertyModes.MustMode(OpStatistics))
	assert.Equal(t, 5, AccountingPeriodModes.MustMode(OpClose))
	assert.Equal(t, 7, ContractModes.MustMode(OpChangeStatus))
	assert.Equal(t, 7, ReceiptModes.MustMode(OpChangePaymentStatus))
	assert.Equal(t, 12, ReceiptModes.MustMode(OpPostToGL))
	assert.Equal(t, 16, ReceiptModes.MustMode(OpExportExcel))
	assert.Equal(t, 8, InvoiceModes.MustMode(OpResetApproval))
}
