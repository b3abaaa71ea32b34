package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGLPostingValidateBalancedVoucher(t *testing.T) {
	posting := &GLPosting{
		Entries: []*PostingEntry{
			NewPostingEntry(AccountCodeCash, decimal.NewFromInt(7850), decimal.Zero, "receipt RCT-000042"),
			NewPostingEntry(AccountCodeRentalIncome, decimal.Zero, decimal.NewFromInt(7500), "rent"),
			NewPostingEntry(AccountCodeChargeIncome, decimal.Zero, decimal.NewFromInt(350), "parking"),
		},
	}

	require.NoError(t, posting.Validate())
	assert.True(t, posting.TotalDebit.Equal(decimal.NewFromInt(7850)))
	assert.True(t, posting.TotalCredit.Equal(decimal.NewFromInt(7850)))
}

func TestGLPostingValidateRejectsUnbalanced(t *testing.T) {
	posting := &GLPosting{
		Entries: []*PostingEntry{
			NewPostingEntry(AccountCodeCash, decimal.NewFromInt(100), decimal.Zero, ""),
			NewPostingEntry(AccountCodeRentalIncome, decimal.Zero, decimal.NewFromInt(90), ""),
		},
	}
	err := posting.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not balance")
}

func TestGLPostingValidateRejectsDegenerateEntries(t *testing.T) {
	tooFew := &GLPosting{
		Entries: []*PostingEntry{
			NewPostingEntry(AccountCodeCash, decimal.NewFromInt(100), decimal.Zero, ""),
		},
	}
	require.Error(t, tooFew.Validate())

	negative := &GLPosting{
		Entries: []*PostingEntry{
			NewPostingEntry(AccountCodeCash, decimal.NewFromInt(-100), decimal.Zero, ""),
			NewPostingEntry(AccountCodeRentalIncome, decimal.Zero, decimal.NewFromInt(-100), ""),
		},
	}
	err := negative.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative amount")

	bothSides := &GLPosting{
		Entries: []*PostingEntry{
			{AccountCode: AccountCodeCash, Debit: decimal.NewFromInt(50), Credit: decimal.NewFromInt(50)},
			NewPostingEntry(AccountCodeRentalIncome, decimal.Zero, decimal.Zero, ""),
		},
	}
	err = bothSides.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both debit and credit")
}

func TestAccountNameFallsBackToCode(t *testing.T) {
	assert.Equal(t, "Cash on Hand", AccountName(AccountCodeCash))
	assert.Equal(t, "9999", AccountName("9999"))
}
