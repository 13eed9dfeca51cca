package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

func TestISODate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"2024/03/14", "2024-03-14"},
		{"2024-03-14", "2024-03-14"},
		{"14-03-2024", "2024-03-14"},
		{"March 4, 2024", "2024-03-04"},
		{" 2024-03-14 ", "2024-03-14"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ISODate(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestISODateUnsupported(t *testing.T) {
	for _, input := range []string{"14 Mar", "2024-13-40", "03/14/2024", "", "Sept 4, 2024"} {
		t.Run(input, func(t *testing.T) {
			_, err := ISODate(input)
			assert.ErrorIs(t, err, ErrUnsupportedDate)
		})
	}
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func TestTransactions(t *testing.T) {
	raw := []models.RawTransaction{
		models.CardTransaction{TransactionDate: "2024-03-14", PostingDate: "2024-03-15", Description: "STARBUCKS #1234", Amount: decimal.RequireFromString("-4.75")},
		models.AccountTransaction{Date: "2024-01-05", Description: "Payroll\nDeposit", Deposit: nd("2000.00"), Balance: nd("3000.00")},
		models.AccountTransaction{Date: "2024-01-06", Description: "e-Transfer sent", Withdrawal: nd("50.00")},
		models.AccountTransaction{Date: "2024-01-01", Description: "Opening Balance", Balance: nd("1000.00")},
		models.AccountTransaction{Date: "2024-01-31", Description: "CLOSING BALANCE", Withdrawal: nd("1.00")},
	}

	got, err := Transactions(raw, "statement_a")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "2024-03-14", got[0].Date)
	assert.Equal(t, "statement_a", got[0].File)
	assert.Equal(t, "-4.75", got[0].Amount.StringFixed(2))

	assert.Equal(t, "Payroll Deposit", got[1].Description)
	assert.Equal(t, "2000.00", got[1].Amount.StringFixed(2))

	assert.Equal(t, "-50.00", got[2].Amount.StringFixed(2))
}

func TestAccountAmountIsDepositMinusWithdrawal(t *testing.T) {
	rows := []models.AccountTransaction{
		{Date: "2024-01-01", Description: "a", Deposit: nd("10.50")},
		{Date: "2024-01-01", Description: "b", Withdrawal: nd("3.25")},
		{Date: "2024-01-01", Description: "c", Deposit: nd("5"), Withdrawal: nd("2")},
		{Date: "2024-01-01", Description: "d"},
	}
	raw := make([]models.RawTransaction, len(rows))
	for i, r := range rows {
		raw[i] = r
	}

	got, err := Transactions(raw, "f")
	require.NoError(t, err)
	require.Len(t, got, len(rows))
	for i, r := range rows {
		want := valueOrZero(r.Deposit).Sub(valueOrZero(r.Withdrawal))
		assert.True(t, want.Equal(got[i].Amount), "row %d: want %s got %s", i, want, got[i].Amount)
		if r.Deposit.Valid && !r.Withdrawal.Valid {
			assert.True(t, got[i].Amount.IsPositive())
		}
		if r.Withdrawal.Valid && !r.Deposit.Valid {
			assert.True(t, got[i].Amount.IsNegative())
		}
	}
}

func TestTransactionsIdempotent(t *testing.T) {
	raw := []models.RawTransaction{
		models.CardTransaction{TransactionDate: "2024/03/14", Description: "UBER* TRIP", Amount: decimal.RequireFromString("-26.97")},
		models.AccountTransaction{Date: "14-03-2024", Description: "Deposit", Deposit: nd("100.00")},
	}
	once, err := Transactions(raw, "src")
	require.NoError(t, err)

	again := make([]models.RawTransaction, len(once))
	for i, tx := range once {
		again[i] = tx
	}
	twice, err := Transactions(again, "other")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestTransactionsBadDateFails(t *testing.T) {
	raw := []models.RawTransaction{
		models.AccountTransaction{Date: "2024-01-01", Description: "ok", Deposit: nd("1")},
		models.AccountTransaction{Date: "5 Jan", Description: "bad", Deposit: nd("1")},
	}

	_, err := Transactions(raw, "f")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDate)
	assert.Contains(t, err.Error(), "row 2")
}
