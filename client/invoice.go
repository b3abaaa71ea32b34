package client

import (
	"context"
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
)

type InvoiceClient struct {
	c *Client
}

func (c *Client) Invoices() *InvoiceClient {
	return &InvoiceClient{c: c}
}

func (ic *InvoiceClient) Create(ctx context.Context, input *models.NewInvoice) (*models.Invoice, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) Update(ctx context.Context, id int, input *models.NewInvoice) (*models.Invoice, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["InvoiceID"] = id
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) GetAll(ctx context.Context) ([]*models.Invoice, error) {
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var invoices []*models.Invoice
	if err := resp.DecodeField("data", &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (ic *InvoiceClient) GetById(ctx context.Context, id int) (*models.Invoice, error) {
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpGetById,
		dispatch.Params{"InvoiceID": id})
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) Delete(ctx context.Context, id int) error {
	_, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpDelete,
		dispatch.Params{"InvoiceID": id})
	return err
}

func (ic *InvoiceClient) Search(ctx context.Context, input *models.InvoiceSearchInput) ([]*models.Invoice, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var invoices []*models.Invoice
	if err := resp.DecodeField("data", &invoices); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return invoices, totalCount, nil
}

// ChangeApprovalStatus guards the approval hop client-side.
func (ic *InvoiceClient) ChangeApprovalStatus(ctx context.Context, invoice *models.Invoice, newStatus models.ApprovalStatus) (*models.Invoice, error) {
	if !invoice.ApprovalStatus.CanTransitionTo(newStatus) {
		return nil, newValidationError(fmt.Sprintf("invoice %s approval cannot move from %s to %s",
			invoice.InvoiceNo, invoice.ApprovalStatus, newStatus))
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpChangeApprovalStatus,
		dispatch.Params{"InvoiceID": invoice.ID, "NewStatus": string(newStatus)})
	if err != nil {
		return nil, err
	}
	var updated models.Invoice
	if err := resp.DecodeField("data", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// ResetApproval is admin-only; the client refuses before any network I/O
// when the principal is not an admin.
func (ic *InvoiceClient) ResetApproval(ctx context.Context, id int, reason string) (*models.Invoice, error) {
	if !ic.c.principal.IsAdmin {
		return nil, newValidationError("only an administrator can reset invoice approval")
	}
	if reason == "" {
		return nil, newValidationError("a reason is required to reset invoice approval")
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpResetApproval,
		dispatch.Params{"InvoiceID": id, "Reason": reason})
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) ValidatePosting(ctx context.Context, id int) (bool, []string, error) {
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpValidatePosting,
		dispatch.Params{"InvoiceID": id})
	if err != nil {
		return false, nil, err
	}
	var isValid bool
	if err := resp.DecodeField("isValid", &isValid); err != nil {
		return false, nil, err
	}
	var messages []string
	_ = resp.DecodeField("validationMessages", &messages)
	return isValid, messages, nil
}

func (ic *InvoiceClient) PostToGL(ctx context.Context, id int) (*models.Invoice, error) {
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpPostToGL,
		dispatch.Params{"InvoiceID": id})
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) ReversePosting(ctx context.Context, id int, reason string) (*models.Invoice, error) {
	if reason == "" {
		return nil, newValidationError("a reason is required to reverse a posting")
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpReversePosting,
		dispatch.Params{"InvoiceID": id, "Reason": reason})
	if err != nil {
		return nil, err
	}
	var invoice models.Invoice
	if err := resp.DecodeField("data", &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (ic *InvoiceClient) Statistics(ctx context.Context) (*models.InvoiceStatistics, error) {
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpStatistics, nil)
	if err != nil {
		return nil, err
	}
	var stats models.InvoiceStatistics
	if err := resp.DecodeField("table1", &stats.ByStatus); err != nil {
		return nil, err
	}
	if err := resp.DecodeField("table2", &stats.Monthly); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (ic *InvoiceClient) ExportExcel(ctx context.Context, input *models.InvoiceSearchInput) (*models.InvoiceExcelExport, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := ic.c.execute(ctx, PathInvoice, dispatch.InvoiceModes, dispatch.OpExportExcel, params)
	if err != nil {
		return nil, err
	}
	var export models.InvoiceExcelExport
	if err := resp.DecodeField("data", &export); err != nil {
		return nil, err
	}
	return &export, nil
}
