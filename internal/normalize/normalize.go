// Package normalize converts extractor output into canonical transactions.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// ErrUnsupportedDate is returned when a date matches none of the known formats.
var ErrUnsupportedDate = errors.New("unsupported date format")

// dateLayouts is tried in order; the patterns guard layouts that time.Parse
// would otherwise accept too loosely.
var dateLayouts = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/01/02"},
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), "02-01-2006"},
	{regexp.MustCompile(`^[A-Za-z]+ \d{1,2}, \d{4}$`), "January 2, 2006"},
}

var (
	newlinePattern = regexp.MustCompile(`[\r\n]+`)
	dropPhrases    = []string{"opening balance", "closing balance"}
)

// ISODate converts a date in any supported format to YYYY-MM-DD.
func ISODate(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, f := range dateLayouts {
		if !f.pattern.MatchString(s) {
			continue
		}
		t, err := time.Parse(f.layout, s)
		if err != nil {
			return "", fmt.Errorf("parsing date %q: %w", s, errors.Join(ErrUnsupportedDate, err))
		}
		return t.Format("2006-01-02"), nil
	}
	return "", fmt.Errorf("parsing date %q: %w", s, ErrUnsupportedDate)
}

// Transactions converts raw rows to canonical transactions. Card rows carry
// their canonical amount already; account rows become deposit - withdrawal.
// Rows describing the opening or closing balance are dropped. Already
// normalized rows pass through unchanged apart from the same checks, so
// normalizing twice is a no-op. A date that cannot be parsed fails the whole
// batch.
func Transactions(raw []models.RawTransaction, file string) ([]models.Transaction, error) {
	out := make([]models.Transaction, 0, len(raw))
	for i, r := range raw {
		tx, err := transaction(r, file)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if isBalanceRow(tx.Description) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func transaction(r models.RawTransaction, file string) (models.Transaction, error) {
	var tx models.Transaction
	var rawDate string

	switch v := r.(type) {
	case models.CardTransaction:
		rawDate = v.TransactionDate
		tx = models.Transaction{File: file, Description: v.Description, Amount: v.Amount}
	case models.AccountTransaction:
		rawDate = v.Date
		tx = models.Transaction{
			File:        file,
			Description: v.Description,
			Amount:      valueOrZero(v.Deposit).Sub(valueOrZero(v.Withdrawal)),
		}
	case models.Transaction:
		rawDate = v.Date
		tx = v
		if tx.File == "" {
			tx.File = file
		}
	default:
		return tx, fmt.Errorf("unsupported transaction type %T", r)
	}

	date, err := ISODate(rawDate)
	if err != nil {
		return tx, err
	}
	tx.Date = date
	tx.Description = sanitizeDescription(tx.Description)
	return tx, nil
}

func valueOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

func sanitizeDescription(s string) string {
	return newlinePattern.ReplaceAllString(s, " ")
}

func isBalanceRow(description string) bool {
	lower := strings.ToLower(description)
	for _, p := range dropPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
