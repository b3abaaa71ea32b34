package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/terrafocus/lease_backend/config"
	"bitbucket.org/terrafocus/lease_backend/utils"
	"github.com/shopspring/decimal"
)

/* chart of accounts */

// Account codes are fixed; a configurable chart is out of scope for now.
const (
	AccountCodeCash                     = "1010"
	AccountCodeBankClearing             = "1020"
	AccountCodeTenantReceivable         = "1200"
	AccountCodeSecurityDepositLiability = "2100"
	AccountCodeTaxPayable               = "2200"
	AccountCodeRentalIncome             = "4010"
	AccountCodeChargeIncome             = "4020"
)

// GLPosting is a journal voucher header. Entries always balance; a posting
// is never edited or deleted, only reversed by a linked REV- voucher.
type GLPosting struct {
	ID                  int                  `gorm:"primary_key" json:"PostingID"`
	CompanyId           int                  `gorm:"index;not null" json:"CompanyID"`
	VoucherNo           string               `gorm:"size:50;not null" json:"VoucherNo"`
	PostingDate         DateString           `gorm:"type:date;not null" json:"PostingDate"`
	ReferenceType       PostingReferenceType `gorm:"size:10;index:idx_gl_postings_reference" json:"ReferenceType"`
	ReferenceId         int                  `gorm:"index:idx_gl_postings_reference" json:"ReferenceID"`
	Description         string               `gorm:"size:255" json:"Description"`
	TotalDebit          decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"TotalDebit"`
	TotalCredit         decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"TotalCredit"`
	IsReversal          *bool                `gorm:"not null;default:false" json:"IsReversal"`
	ReversesPostingId   *int                 `gorm:"default:null" json:"ReversesPostingID"`
	ReversedByPostingId *int                 `gorm:"default:null" json:"ReversedByPostingID"`
	ReversalReason      string               `gorm:"type:text" json:"ReversalReason"`
	Entries             []*PostingEntry      `gorm:"foreignKey:PostingId" json:"Entries,omitempty"`
	PostedBy            string               `gorm:"size:100" json:"PostedBy"`
	CreatedAt           time.Time            `gorm:"autoCreateTime" json:"CreatedAt"`
}

type PostingEntry struct {
	ID          int             `gorm:"primary_key" json:"PostingEntryID"`
	PostingId   int             `gorm:"index;not null" json:"PostingID"`
	AccountCode string          `gorm:"size:10;not null" json:"AccountCode"`
	AccountName string          `gorm:"size:100" json:"AccountName"`
	Debit       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"Debit"`
	Credit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"Credit"`
	Description string          `gorm:"size:255" json:"Description"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"CreatedAt"`
}

func (obj GLPosting) GetId() int {
	return obj.ID
}

func (obj GLPosting) GetCompanyId() int {
	return obj.CompanyId
}

var accountNames = map[string]string{
	AccountCodeCash:                     "Cash on Hand",
	AccountCodeBankClearing:             "Bank Clearing",
	AccountCodeTenantReceivable:         "Tenant Receivable",
	AccountCodeSecurityDepositLiability: "Security Deposit Liability",
	AccountCodeTaxPayable:               "Tax Payable",
	AccountCodeRentalIncome:             "Rental Income",
	AccountCodeChargeIncome:             "Additional Charge Income",
}

func AccountName(code string) string {
	if name, ok := accountNames[code]; ok {
		return name
	}
	return code
}

// NewPostingEntry fills the account name from the fixed chart.
func NewPostingEntry(accountCode string, debit decimal.Decimal, credit decimal.Decimal, description string) *PostingEntry {
	return &PostingEntry{
		AccountCode: accountCode,
		AccountName: AccountName(accountCode),
		Debit:       debit,
		Credit:      credit,
		Description: description,
	}
}

// Validate checks the double-entry invariant before the voucher is written.
func (p *GLPosting) Validate() error {
	if len(p.Entries) < 2 {
		return errors.New("a posting needs at least two entries")
	}
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, entry := range p.Entries {
		if entry.Debit.IsNegative() || entry.Credit.IsNegative() {
			return fmt.Errorf("negative amount on account %s", entry.AccountCode)
		}
		if entry.Debit.IsPositive() && entry.Credit.IsPositive() {
			return fmt.Errorf("entry on account %s has both debit and credit", entry.AccountCode)
		}
		totalDebit = totalDebit.Add(entry.Debit)
		totalCredit = totalCredit.Add(entry.Credit)
	}
	if !totalDebit.Equal(totalCredit) {
		return fmt.Errorf("posting does not balance: debit %s, credit %s",
			totalDebit.String(), totalCredit.String())
	}
	p.TotalDebit = totalDebit
	p.TotalCredit = totalCredit
	return nil
}

func GetPosting(ctx context.Context, id int) (*GLPosting, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return utils.FetchModel[GLPosting](ctx, companyId, id, "Entries")
}

// GetPostingsForReference lists the voucher trail of a document, original
// first, reversals after.
func GetPostingsForReference(ctx context.Context, referenceType PostingReferenceType, referenceId int) ([]*GLPosting, error) {

	companyId, err := companyIdFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var results []*GLPosting
	db := config.GetDB()
	if err := db.WithContext(ctx).
		Where("company_id = ? AND reference_type = ? AND reference_id = ?", companyId, referenceType, referenceId).
		Preload("Entries").
		Order("id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
