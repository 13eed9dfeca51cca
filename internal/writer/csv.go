// Package writer reads and writes transaction tables as CSV.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// Table is a set of rows with a fixed column layout.
type Table interface {
	Columns() []string
	Rows() [][]string
}

// Header is the statement metadata written above the columns.
type Header struct {
	Metadata models.AccountMetadata
	Period   models.Period
}

// CSVWriter writes tables in CSV format.
type CSVWriter struct {
	// IncludeHeader writes "# key,value" metadata rows before the columns.
	// ReadTransactions skips them.
	IncludeHeader bool
	Header        Header
	// OmitColumns skips the column row, for appending to an earlier table.
	OmitColumns bool
}

// WriteToFile writes the table to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	if err := w.Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes the table in CSV format to out.
func (w *CSVWriter) Write(out io.Writer, t Table) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, rec := range w.headerRows() {
			if err := writer.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if !w.OmitColumns {
		if err := writer.Write(t.Columns()); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}
	for _, row := range t.Rows() {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (w *CSVWriter) headerRows() [][]string {
	h := w.Header
	var rows [][]string
	if h.Metadata.Use != "" {
		rows = append(rows, []string{"# Use", h.Metadata.Use})
	}
	if h.Metadata.Classification != "" {
		rows = append(rows, []string{"# Classification", h.Metadata.Classification})
	}
	if len(h.Metadata.Numbers) > 0 {
		rows = append(rows, []string{"# Account Number", strings.Join(h.Metadata.Numbers, " ")})
	}
	if !h.Period.End.IsZero() {
		period := h.Period.Start.Format("2006-01-02") + " to " + h.Period.End.Format("2006-01-02")
		if h.Period.Provisional {
			period += " (provisional)"
		}
		rows = append(rows, []string{"# Statement Period", period})
	}
	return rows
}

// Transactions is the normalized table: Date, File, Description, Amount.
type Transactions []models.Transaction

func (Transactions) Columns() []string { return []string{"Date", "File", "Description", "Amount"} }

func (t Transactions) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, tx := range t {
		rows[i] = []string{tx.Date, tx.File, tx.Description, formatAmount(tx.Amount)}
	}
	return rows
}

// Categorized is the normalized table plus a Category column. Uncategorized
// rows have an empty Category.
type Categorized []models.CategorizedTransaction

func (Categorized) Columns() []string {
	return append(Transactions(nil).Columns(), "Category")
}

func (t Categorized) Rows() [][]string {
	rows := make([][]string, len(t))
	for i, tx := range t {
		rows[i] = []string{tx.Date, tx.File, tx.Description, formatAmount(tx.Amount), tx.Category}
	}
	return rows
}

// Extracted is the raw extractor output in the layout of its statement kind.
type Extracted struct {
	Kind models.StatementKind
	Rows []models.RawTransaction
}

var (
	cardColumns    = []string{"Transaction Date", "Posting Date", "Description", "Amount"}
	accountColumns = []string{"Date", "Description", "Withdrawal", "Deposit", "Balance"}
)

// Table returns the Extracted rows as a Table. Rows of another kind are
// skipped.
func (e Extracted) Table() Table { return extractedTable{e} }

type extractedTable struct{ Extracted }

func (e extractedTable) Columns() []string {
	if e.Kind == models.KindAccount {
		return accountColumns
	}
	return cardColumns
}

func (e extractedTable) Rows() [][]string {
	var rows [][]string
	for _, r := range e.Extracted.Rows {
		switch v := r.(type) {
		case models.CardTransaction:
			if e.Kind != models.KindAccount {
				rows = append(rows, []string{v.TransactionDate, v.PostingDate, v.Description, formatAmount(v.Amount)})
			}
		case models.AccountTransaction:
			if e.Kind == models.KindAccount {
				rows = append(rows, []string{v.Date, v.Description, formatNull(v.Withdrawal), formatNull(v.Deposit), formatNull(v.Balance)})
			}
		}
	}
	return rows
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}
