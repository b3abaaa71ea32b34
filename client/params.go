package client

import (
	"encoding/json"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
)

// wire paths, shared with the server's route registration
const (
	PathProperty         = "/Master/property"
	PathSupplier         = "/Master/supplier"
	PathCharge           = "/Master/additionalcharges"
	PathDocType          = "/Master/doctype"
	PathFiscalYear       = "/Master/fiscalyear"
	PathAccountingPeriod = "/Master/accountingperiod"
	PathContract         = "/LeaseManagement/contract"
	PathReceipt          = "/LeaseManagement/receipt"
	// legacy alias kept for older UI builds
	PathReceiptLegacy = "/Master/receipt"
	PathInvoice       = "/LeaseManagement/invoice"
)

// structParams flattens a typed input into the parameter bag.
func structParams(input any) (dispatch.Params, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	var params dispatch.Params
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	if params == nil {
		params = dispatch.Params{}
	}
	return params, nil
}
