package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// ReadFile reads a table written by CSVWriter from path.
func ReadFile(path string) ([]models.RawTransaction, models.StatementKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	return ReadTransactions(f)
}

// ReadTransactions reads an extracted or normalized table back into rows
// the normalizer accepts. The layout is recognised from the column names:
// "Transaction Date" means card rows, "Withdrawal" or "Deposit" account
// rows, and anything else with Date, Description and Amount normalized
// rows. The returned kind is empty for normalized tables.
func ReadTransactions(r io.Reader) ([]models.RawTransaction, models.StatementKind, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read header: %w", err)
	}
	cols := columnIndex(header)

	var kind models.StatementKind
	var parse func(rec []string) (models.RawTransaction, error)
	switch {
	case cols.has("transaction date"):
		kind, parse = models.KindCard, cols.card
	case cols.has("withdrawal") || cols.has("deposit"):
		kind, parse = models.KindAccount, cols.account
	case cols.has("date") && cols.has("description") && cols.has("amount"):
		parse = cols.normalized
	default:
		return nil, "", fmt.Errorf("unrecognised columns: %s", strings.Join(header, ", "))
	}

	var out []models.RawTransaction
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("read line %d: %w", line, err)
		}
		tx, err := parse(rec)
		if err != nil {
			return nil, "", fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, tx)
	}
	return out, kind, nil
}

type columns map[string]int

// columnAliases folds alternative header spellings onto the names the
// extracted tables are written with.
var columnAliases = map[string]string{
	"withdrawals": "withdrawal",
	"deposits":    "deposit",
	"balances":    "balance",
}

func columnIndex(header []string) columns {
	cols := columns{}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		cols[name] = i
	}
	return cols
}

func (c columns) has(name string) bool {
	_, ok := c[name]
	return ok
}

func (c columns) get(rec []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (c columns) card(rec []string) (models.RawTransaction, error) {
	amount, err := parseAmount(c.get(rec, "amount"))
	if err != nil {
		return nil, err
	}
	return models.CardTransaction{
		TransactionDate: c.get(rec, "transaction date"),
		PostingDate:     c.get(rec, "posting date"),
		Description:     c.get(rec, "description"),
		Amount:          amount,
	}, nil
}

func (c columns) account(rec []string) (models.RawTransaction, error) {
	tx := models.AccountTransaction{Date: c.get(rec, "date"), Description: c.get(rec, "description")}
	for name, dst := range map[string]*decimal.NullDecimal{
		"withdrawal": &tx.Withdrawal,
		"deposit":    &tx.Deposit,
		"balance":    &tx.Balance,
	} {
		s := c.get(rec, name)
		if s == "" {
			continue
		}
		d, err := parseAmount(s)
		if err != nil {
			return nil, err
		}
		*dst = decimal.NewNullDecimal(d)
	}
	return tx, nil
}

func (c columns) normalized(rec []string) (models.RawTransaction, error) {
	amount, err := parseAmount(c.get(rec, "amount"))
	if err != nil {
		return nil, err
	}
	return models.Transaction{
		Date:        c.get(rec, "date"),
		File:        c.get(rec, "file"),
		Description: c.get(rec, "description"),
		Amount:      amount,
	}, nil
}

var amountReplacer = strings.NewReplacer(",", "", "$", "", " ", "")

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amountReplacer.Replace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}
