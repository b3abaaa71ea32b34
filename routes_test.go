package main

import (
	"testing"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"github.com/stretchr/testify/assert"
)

// Every op in a family's mode table must have a handler, and every handler
// must correspond to a table op. This is what makes MustMode safe on the
// client side.
func TestHandlerMapsCoverModeTables(t *testing.T) {
	families := []struct {
		table    *dispatch.ModeTable
		handlers map[dispatch.Op]dispatch.HandlerFunc
	}{
		{dispatch.PropertyModes, propertyHandlers()},
		{dispatch.SupplierModes, supplierHandlers()},
		{dispatch.ChargeModes, chargeHandlers()},
		{dispatch.DocTypeModes, docTypeHandlers()},
		{dispatch.FiscalYearModes, fiscalYearHandlers()},
		{dispatch.AccountingPeriodModes, accountingPeriodHandlers()},
		{dispatch.ContractModes, contractHandlers()},
		{dispatch.ReceiptModes, receiptHandlers()},
		{dispatch.InvoiceModes, invoiceHandlers()},
	}

	for _, family := range families {
		assert.Equalf(t, family.table.Len(), len(family.handlers),
			"%s: handler count must match the mode table", family.table.Family())
		for _, op := range family.table.Ops() {
			assert.Containsf(t, family.handlers, op,
				"%s: op %s has a mode but no handler", family.table.Family(), op)
		}
	}
}
