package writer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func null(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amt(s))
}

func TestCSVWriterTransactions(t *testing.T) {
	txns := Transactions{
		{Date: "2024-03-14", File: "visa.pdf", Description: "STARBUCKS #1234", Amount: amt("-4.75")},
		{Date: "2024-03-02", File: "visa.pdf", Description: "PAYMENT, THANK YOU", Amount: amt("500")},
	}

	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, txns))

	assert.Equal(t, "Date,File,Description,Amount\n"+
		"2024-03-14,visa.pdf,STARBUCKS #1234,-4.75\n"+
		"2024-03-02,visa.pdf,\"PAYMENT, THANK YOU\",500.00\n", buf.String())
}

func TestCSVWriterOmitColumns(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{OmitColumns: true}
	require.NoError(t, w.Write(&buf, Transactions{{Date: "2024-01-01", File: "f", Description: "X", Amount: amt("1")}}))
	assert.Equal(t, "2024-01-01,f,X,1.00\n", buf.String())
}

func TestCSVWriterHeader(t *testing.T) {
	w := &CSVWriter{
		IncludeHeader: true,
		Header: Header{
			Metadata: models.AccountMetadata{Use: "personal", Classification: "visa", Numbers: []string{"4516 07** **** 4390"}},
			Period: models.Period{
				Start: time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC),
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, w.Write(&buf, Transactions{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"# Use,personal",
		"# Classification,visa",
		"# Account Number,4516 07** **** 4390",
		"# Statement Period,2024-02-20 to 2024-03-20",
		"Date,File,Description,Amount",
	}, lines)
}

func TestCSVWriterCategorized(t *testing.T) {
	rows := Categorized{
		{Transaction: models.Transaction{Date: "2024-01-05", File: "f", Description: "UBER", Amount: amt("-26.97")}, Category: "Expenses / Travel"},
		{Transaction: models.Transaction{Date: "2024-01-06", File: "f", Description: "MYSTERY", Amount: amt("-1")}},
	}

	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, rows))
	assert.Equal(t, "Date,File,Description,Amount,Category\n"+
		"2024-01-05,f,UBER,-26.97,Expenses / Travel\n"+
		"2024-01-06,f,MYSTERY,-1.00,\n", buf.String())
}

func TestCSVWriterExtracted(t *testing.T) {
	account := Extracted{Kind: models.KindAccount, Rows: []models.RawTransaction{
		models.AccountTransaction{Date: "2024-01-05", Description: "Payroll", Deposit: null("2000"), Balance: null("3000")},
		models.CardTransaction{TransactionDate: "2024-01-01"},
	}}

	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, account.Table()))
	assert.Equal(t, "Date,Description,Withdrawal,Deposit,Balance\n"+
		"2024-01-05,Payroll,,2000.00,3000.00\n", buf.String())

	card := Extracted{Kind: models.KindCard, Rows: []models.RawTransaction{
		models.CardTransaction{TransactionDate: "2024-03-14", PostingDate: "2024-03-15", Description: "STARBUCKS", Amount: amt("-4.75")},
	}}
	buf.Reset()
	require.NoError(t, (&CSVWriter{}).Write(&buf, card.Table()))
	assert.Equal(t, "Transaction Date,Posting Date,Description,Amount\n"+
		"2024-03-14,2024-03-15,STARBUCKS,-4.75\n", buf.String())
}

func TestWriteToFileAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.extracted.csv")
	w := &CSVWriter{IncludeHeader: true, Header: Header{Metadata: models.AccountMetadata{Use: "personal"}}}
	in := Extracted{Kind: models.KindAccount, Rows: []models.RawTransaction{
		models.AccountTransaction{Date: "2024-01-05", Description: "e-Transfer sent", Withdrawal: null("1050.00")},
	}}
	require.NoError(t, w.WriteToFile(path, in.Table()))

	rows, kind, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.KindAccount, kind)
	require.Len(t, rows, 1)

	tx := rows[0].(models.AccountTransaction)
	assert.Equal(t, "e-Transfer sent", tx.Description)
	assert.Equal(t, "1050.00", tx.Withdrawal.Decimal.StringFixed(2))
	assert.False(t, tx.Deposit.Valid)
	assert.False(t, tx.Balance.Valid)
}

func TestReadTransactions(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind models.StatementKind
		want models.RawTransaction
	}{
		{
			name: "card",
			in:   "Transaction Date,Posting Date,Description,Amount\n2024-03-14,2024-03-15,STARBUCKS,-4.75\n",
			kind: models.KindCard,
			want: models.CardTransaction{TransactionDate: "2024-03-14", PostingDate: "2024-03-15", Description: "STARBUCKS", Amount: amt("-4.75")},
		},
		{
			name: "normalized",
			in:   "\ufeffDate,File,Description,Amount,Category\n2024-01-05,f.pdf,UBER,\"$1,026.97\",Travel\n",
			want: models.Transaction{Date: "2024-01-05", File: "f.pdf", Description: "UBER", Amount: amt("1026.97")},
		},
		{
			name: "account with plural column names",
			in:   "Date,Description,Withdrawals,Deposits,Balance\n2024-01-05,e-Transfer sent,50.00,,\"2,950.00\"\n",
			kind: models.KindAccount,
			want: models.AccountTransaction{Date: "2024-01-05", Description: "e-Transfer sent", Withdrawal: null("50.00"), Balance: null("2950.00")},
		},
		{
			name: "normalized without file column",
			in:   "date,description,amount\n2024-01-05,UBER,-3\n",
			want: models.Transaction{Date: "2024-01-05", Description: "UBER", Amount: amt("-3")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, kind, err := ReadTransactions(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0])
		})
	}
}

func TestReadTransactionsErrors(t *testing.T) {
	_, _, err := ReadTransactions(strings.NewReader("Foo,Bar\n1,2\n"))
	assert.ErrorContains(t, err, "unrecognised columns")

	_, _, err = ReadTransactions(strings.NewReader("Date,Description,Amount\n2024-01-01,X,abc\n"))
	assert.ErrorContains(t, err, "line 2")

	rows, _, err := ReadTransactions(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, _, err = ReadFile(filepath.Join(os.TempDir(), "does-not-exist-bsp.csv"))
	assert.Error(t, err)
}
