package client

import (
	"context"
	"fmt"

	"bitbucket.org/terrafocus/lease_backend/dispatch"
	"bitbucket.org/terrafocus/lease_backend/models"
)

type ReceiptClient struct {
	c *Client
}

func (c *Client) Receipts() *ReceiptClient {
	return &ReceiptClient{c: c}
}

// validateReceiptInput runs the cheque-field requirements before any
// network I/O.
func validateReceiptInput(input *models.NewReceipt) error {
	var messages []string
	if input.PaymentType == models.PaymentTypeCheque {
		if input.ChequeNo == "" {
			messages = append(messages, "cheque number is required for cheque receipts")
		}
		if input.ChequeDate == nil {
			messages = append(messages, "cheque date is required for cheque receipts")
		}
		if input.BankName == "" {
			messages = append(messages, "bank name is required for cheque receipts")
		}
	}
	if !input.Amount.IsPositive() {
		messages = append(messages, "receipt amount must be greater than zero")
	}
	if len(messages) > 0 {
		return &ValidationError{Messages: messages}
	}
	return nil
}

func (rc *ReceiptClient) Create(ctx context.Context, input *models.NewReceipt) (*models.Receipt, error) {
	if err := validateReceiptInput(input); err != nil {
		return nil, err
	}
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpCreate, params)
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := resp.DecodeField("data", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (rc *ReceiptClient) Update(ctx context.Context, id int, input *models.NewReceipt) (*models.Receipt, error) {
	if err := validateReceiptInput(input); err != nil {
		return nil, err
	}
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	params["ReceiptID"] = id
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpUpdate, params)
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := resp.DecodeField("data", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (rc *ReceiptClient) GetAll(ctx context.Context) ([]*models.Receipt, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpGetAll, nil)
	if err != nil {
		return nil, err
	}
	var receipts []*models.Receipt
	if err := resp.DecodeField("data", &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (rc *ReceiptClient) GetById(ctx context.Context, id int) (*models.Receipt, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpGetById,
		dispatch.Params{"ReceiptID": id})
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := resp.DecodeField("data", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (rc *ReceiptClient) Delete(ctx context.Context, id int) error {
	_, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpDelete,
		dispatch.Params{"ReceiptID": id})
	return err
}

func (rc *ReceiptClient) Search(ctx context.Context, input *models.ReceiptSearchInput) ([]*models.Receipt, int64, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, 0, err
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpSearch, params)
	if err != nil {
		return nil, 0, err
	}
	var receipts []*models.Receipt
	if err := resp.DecodeField("data", &receipts); err != nil {
		return nil, 0, err
	}
	var totalCount int64
	_ = resp.DecodeField("totalCount", &totalCount)
	return receipts, totalCount, nil
}

// ChangePaymentStatus guards the hop against the payment machine (including
// the cheque-only deposit sub-states) and the per-target field requirements
// before sending. The server re-checks everything.
func (rc *ReceiptClient) ChangePaymentStatus(ctx context.Context, receipt *models.Receipt, change *models.ReceiptStatusChange) (*models.Receipt, error) {

	if !models.CanTransitionPaymentStatus(receipt.PaymentStatus, change.NewStatus, receipt.PaymentType) {
		return nil, newValidationError(fmt.Sprintf("receipt %s cannot move from %s to %s for %s payment",
			receipt.ReceiptNo, receipt.PaymentStatus, change.NewStatus, receipt.PaymentType))
	}

	var messages []string
	switch change.NewStatus {
	case models.PaymentStatusDeposited:
		if change.DepositAccount == "" {
			messages = append(messages, "deposit account is required to deposit a cheque")
		}
		if change.DepositDate == nil {
			messages = append(messages, "deposit date is required to deposit a cheque")
		}
	case models.PaymentStatusCleared:
		if change.ClearanceDate == nil {
			messages = append(messages, "clearance date is required to clear a receipt")
		}
	case models.PaymentStatusBounced:
		if change.Reason == "" {
			messages = append(messages, "a reason is required to bounce a receipt")
		}
	case models.PaymentStatusCancelled:
		if change.Reason == "" {
			messages = append(messages, "a reason is required to cancel a receipt")
		}
		if receipt.IsPosted != nil && *receipt.IsPosted {
			messages = append(messages, fmt.Sprintf("receipt %s is posted and cannot be cancelled", receipt.ReceiptNo))
		}
	}
	if len(messages) > 0 {
		return nil, &ValidationError{Messages: messages}
	}

	params, err := structParams(change)
	if err != nil {
		return nil, err
	}
	params["ReceiptID"] = receipt.ID
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpChangePaymentStatus, params)
	if err != nil {
		return nil, err
	}
	var updated models.Receipt
	if err := resp.DecodeField("data", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (rc *ReceiptClient) GetByPaymentStatus(ctx context.Context, status models.PaymentStatus) ([]*models.Receipt, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpGetByPaymentStatus,
		dispatch.Params{"PaymentStatus": string(status)})
	if err != nil {
		return nil, err
	}
	var receipts []*models.Receipt
	if err := resp.DecodeField("data", &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

func (rc *ReceiptClient) GetPendingClearance(ctx context.Context) ([]*models.Receipt, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpGetPendingClearance, nil)
	if err != nil {
		return nil, err
	}
	var receipts []*models.Receipt
	if err := resp.DecodeField("data", &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// UpdateClearance settles a batch of deposited cheques in one call.
func (rc *ReceiptClient) UpdateClearance(ctx context.Context, input *models.ReceiptClearanceInput) ([]*models.Receipt, error) {
	if input.Outcome != models.PaymentStatusCleared && input.Outcome != models.PaymentStatusBounced {
		return nil, newValidationError(fmt.Sprintf("clearance outcome must be Cleared or Bounced, not %s", input.Outcome))
	}
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpUpdateClearance, params)
	if err != nil {
		return nil, err
	}
	var receipts []*models.Receipt
	if err := resp.DecodeField("data", &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// ValidatePosting is the read-only preflight for PostToGL.
func (rc *ReceiptClient) ValidatePosting(ctx context.Context, id int) (bool, []string, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpValidatePosting,
		dispatch.Params{"ReceiptID": id})
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

func (rc *ReceiptClient) PostToGL(ctx context.Context, id int) (*models.Receipt, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpPostToGL,
		dispatch.Params{"ReceiptID": id})
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := resp.DecodeField("data", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (rc *ReceiptClient) ReversePosting(ctx context.Context, id int, reason string) (*models.Receipt, error) {
	if reason == "" {
		return nil, newValidationError("a reason is required to reverse a posting")
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpReversePosting,
		dispatch.Params{"ReceiptID": id, "Reason": reason})
	if err != nil {
		return nil, err
	}
	var receipt models.Receipt
	if err := resp.DecodeField("data", &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ChangeApprovalStatus moves receipt approval Pending -> Approved/Rejected.
// Receipts have no approval reset.
func (rc *ReceiptClient) ChangeApprovalStatus(ctx context.Context, receipt *models.Receipt, newStatus models.ApprovalStatus) (*models.Receipt, error) {
	if !receipt.ApprovalStatus.CanTransitionTo(newStatus) {
		return nil, newValidationError(fmt.Sprintf("receipt %s approval cannot move from %s to %s",
			receipt.ReceiptNo, receipt.ApprovalStatus, newStatus))
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpChangeApprovalStatus,
		dispatch.Params{"ReceiptID": receipt.ID, "NewStatus": string(newStatus)})
	if err != nil {
		return nil, err
	}
	var updated models.Receipt
	if err := resp.DecodeField("data", &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (rc *ReceiptClient) Statistics(ctx context.Context) (*models.ReceiptStatistics, error) {
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpStatistics, nil)
	if err != nil {
		return nil, err
	}
	var stats models.ReceiptStatistics
	if err := resp.DecodeField("table1", &stats.ByStatus); err != nil {
		return nil, err
	}
	if err := resp.DecodeField("table2", &stats.Monthly); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (rc *ReceiptClient) ExportExcel(ctx context.Context, input *models.ReceiptSearchInput) (*models.ReceiptExcelExport, error) {
	params, err := structParams(input)
	if err != nil {
		return nil, err
	}
	resp, err := rc.c.execute(ctx, PathReceipt, dispatch.ReceiptModes, dispatch.OpExportExcel, params)
	if err != nil {
		return nil, err
	}
	var export models.ReceiptExcelExport
	if err := resp.DecodeField("data", &export); err != nil {
		return nil, err
	}
	return &export, nil
}
