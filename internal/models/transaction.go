package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TextSpan is one fragment of decoded page text with its position.
// Y grows downward from the top of the page.
type TextSpan struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Page is a decoded statement page: its positioned spans plus the plain text
// used for header scans.
type Page struct {
	Number int        `json:"number"`
	Spans  []TextSpan `json:"spans"`
	Text   string     `json:"text"`
}

// Document is a decoded statement handed to the pipeline.
type Document struct {
	ID     string
	Source string // caller supplied identifier for the File column, optional
	Pages  []Page
}

// Texts returns the plain text of every page in order.
func (d Document) Texts() []string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return texts
}

// StatementKind selects the extraction grammar.
type StatementKind string

const (
	KindCard    StatementKind = "card"
	KindAccount StatementKind = "account"
)

// Period is the statement period. Provisional is set when the period could
// not be read from the statement and was inferred from a bare year or the clock.
type Period struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Provisional bool      `json:"provisional,omitempty"`
}

// RawTransaction is a transaction as emitted by one of the extractors, or an
// already normalized Transaction.
type RawTransaction interface {
	rawTransaction()
}

// CardTransaction is a card-style row. Amount is already in canonical sign.
type CardTransaction struct {
	TransactionDate string          `json:"transactionDate"`
	PostingDate     string          `json:"postingDate"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
}

// AccountTransaction is an account-style row. Exactly one of Withdrawal and
// Deposit is valid for rows emitted by the extractor.
type AccountTransaction struct {
	Date        string              `json:"date"`
	Description string              `json:"description"`
	Withdrawal  decimal.NullDecimal `json:"withdrawal"`
	Deposit     decimal.NullDecimal `json:"deposit"`
	Balance     decimal.NullDecimal `json:"balance"`
}

// Transaction is the canonical record. Amount > 0 is money in, < 0 money out.
type Transaction struct {
	Date        string          `json:"date"`
	File        string          `json:"file"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

func (CardTransaction) rawTransaction()    {}
func (AccountTransaction) rawTransaction() {}
func (Transaction) rawTransaction()        {}

// CategorizedTransaction is a Transaction with its inferred category.
// An empty Category means no strategy produced one.
type CategorizedTransaction struct {
	Transaction
	Category string `json:"category,omitempty"`
}

// TrainingRow is one labelled row of the historical ledger.
type TrainingRow struct {
	Description string
	Amount      decimal.Decimal
	Category    string
}

// Sentinel values for metadata that could not be found.
const (
	NotFound = "NOT_FOUND"
	Unknown  = "UNKNOWN"
)

// AccountMetadata holds what the header scan found about the account.
type AccountMetadata struct {
	Use            string   `json:"use"`            // personal, business or UNKNOWN
	Classification string   `json:"classification"` // visa, master card, credit card, savings, chequing or UNKNOWN
	Numbers        []string `json:"numbers"`
}

// RowTrace records what the extractor did with one reconstructed row.
type RowTrace struct {
	Page int    `json:"page"`
	Text string `json:"text"`
	Rule string `json:"rule"`
}
