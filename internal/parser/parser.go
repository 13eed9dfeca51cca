// Package parser turns positioned statement text into raw transactions.
package parser

import (
	"fmt"

	"github.com/colinbendell/bank-statement-processor/internal/layout"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// Extractor reconstructs transaction rows for one statement grammar.
type Extractor interface {
	// Extract returns the transactions found on pages. Rows that do not fit
	// the grammar are dropped, never reported as errors.
	Extract(pages []models.Page, period models.Period) []models.RawTransaction
	// Kind returns the statement kind the extractor handles.
	Kind() models.StatementKind
}

// Options tunes row reconstruction. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	YTolerance float64
	// MergeGap is the largest vertical gap bridged by a continuation merge.
	MergeGap float64
	// CardMaxX excludes right-hand summary boxes on card statements.
	CardMaxX float64
	// Amount column boundaries on account statements. Shifted when the
	// column headers are found at a different position than usual.
	WithdrawalDepositBoundary float64
	DepositBalanceBoundary    float64
	// Trace, when set, receives the deciding rule for every row.
	Trace func(models.RowTrace)
}

// DefaultOptions returns the tuning used for the supported layouts.
func DefaultOptions() Options {
	return Options{
		YTolerance:                layout.DefaultYTolerance,
		MergeGap:                  15.0,
		CardMaxX:                  380.0,
		WithdrawalDepositBoundary: 400.0,
		DepositBalanceBoundary:    500.0,
	}
}

// New returns the extractor for the given statement kind.
func New(kind models.StatementKind, opts Options) (Extractor, error) {
	switch kind {
	case models.KindCard:
		return &CardExtractor{opts: opts}, nil
	case models.KindAccount:
		return &AccountExtractor{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unsupported statement kind: %q", kind)
	}
}

func (o Options) trace(page int, row layout.Row, rule string) {
	if o.Trace == nil {
		return
	}
	o.Trace(models.RowTrace{Page: page, Text: row.Text(), Rule: rule})
}
