package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/layout"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// Column header positions the default boundaries were measured against.
const (
	depositHeaderX = 418.0
	balanceHeaderX = 520.0
)

var accountSkipPhrases = []string{
	"account activity",
	"opening balance",
	"closing balance",
	"account fees",
	"total deposits",
	"total cheques",
	"date description",
	"cheques & debits",
	"deposits & credits",
	"withdrawals",
	"royal bank",
	"page ",
	"account statement",
	"account number",
	"continued",
}

// "1 of 3" page footers.
var pageOfPattern = regexp.MustCompile(`\bof\s+\d{1,2}(?:\s|$)`)

var monthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
}

// AccountExtractor reads chequing and savings statements:
// "DD MON  description  withdrawal | deposit | balance".
type AccountExtractor struct {
	opts Options
}

// Kind implements Extractor.
func (e *AccountExtractor) Kind() models.StatementKind { return models.KindAccount }

// Extract implements Extractor. Rows without a date of their own take the
// last date seen, which carries across pages.
func (e *AccountExtractor) Extract(pages []models.Page, period models.Period) []models.RawTransaction {
	x := &accountExtraction{start: period.Start, end: period.End}

	var bands columnBands
	for i, page := range pages {
		spans := layout.Filter(page.Spans, func(s models.TextSpan) bool { return !docRefPattern.MatchString(s.Text) })
		rows := layout.GroupRows(spans, e.opts.YTolerance)
		if i == 0 {
			bands = detectColumnBands(rows, e.opts)
		}
		for _, r := range mergeAccountRows(rows, e.opts.MergeGap) {
			row := &accountRow{row: r, lower: strings.ToLower(r.Text()), bands: bands, x: x}
			e.opts.trace(page.Number, r, evaluate(accountRules, row))
		}
	}

	out := make([]models.RawTransaction, len(x.txns))
	for i, t := range x.txns {
		out[i] = t
	}
	return out
}

// columnBands splits amount spans into withdrawal, deposit and balance by X.
type columnBands struct {
	withdrawalDeposit float64
	depositBalance    float64
}

func (b columnBands) column(x float64) int {
	switch {
	case x < b.withdrawalDeposit:
		return 0
	case x < b.depositBalance:
		return 1
	default:
		return 2
	}
}

// detectColumnBands shifts the configured boundaries by how far the
// "Deposits & Credits" and "Balance" headers sit from their usual place.
func detectColumnBands(rows []layout.Row, opts Options) columnBands {
	bands := columnBands{
		withdrawalDeposit: opts.WithdrawalDepositBoundary,
		depositBalance:    opts.DepositBalanceBoundary,
	}
	for _, r := range rows {
		text := r.Text()
		if !strings.Contains(text, "Cheques & Debits") && !strings.Contains(text, "Deposits & Credits") {
			continue
		}
		for _, s := range r {
			switch {
			case strings.Contains(s.Text, "Cheques") || strings.Contains(s.Text, "Debits"):
				// leftmost column, bounded by the deposit header
			case strings.Contains(s.Text, "Deposits") || strings.Contains(s.Text, "Credits"):
				bands.withdrawalDeposit = opts.WithdrawalDepositBoundary + (s.X - depositHeaderX)
			case strings.Contains(s.Text, "Balance"):
				bands.depositBalance = opts.DepositBalanceBoundary + (s.X - balanceHeaderX)
			}
		}
		break
	}
	return bands
}

type accountExtraction struct {
	start, end time.Time
	lastDate   string
	txns       []models.AccountTransaction
}

type accountRow struct {
	row   layout.Row
	lower string
	bands columnBands
	x     *accountExtraction

	dateIdx int
	date    string
}

var accountRules = []rule[*accountRow]{
	{name: "empty", when: func(r *accountRow) bool { return len(r.row) == 0 }, then: drop[*accountRow]},
	{name: "dated", when: (*accountRow).findDate, then: (*accountRow).carryDate},
	{name: "undated", when: func(r *accountRow) bool { return r.date == "" }, then: drop[*accountRow]},
	{name: "header", when: func(r *accountRow) bool { return isAccountHeader(r.lower) }, then: drop[*accountRow]},
	{name: "month-name", when: func(r *accountRow) bool { return monthNames[strings.TrimSpace(r.lower)] }, then: drop[*accountRow]},
	{name: "transaction", when: always[*accountRow], then: (*accountRow).emit},
}

// findDate locates the row's own date span; rows without one fall back to
// the carried date.
func (r *accountRow) findDate() bool {
	r.dateIdx = -1
	for i, s := range r.row {
		if d, ok := r.x.parseDate(s.Text); ok {
			r.dateIdx = i
			r.date = d
			return true
		}
	}
	r.date = r.x.lastDate
	return false
}

func (r *accountRow) carryDate() outcome {
	r.x.lastDate = r.date
	return next
}

// emit splits the row into description and amount columns. Rows with only
// a balance restate the running total and are dropped.
func (r *accountRow) emit() outcome {
	var desc []string
	var cols [3]decimal.NullDecimal
	for i, s := range r.row {
		if i == r.dateIdx {
			continue
		}
		if !accountAmountPattern.MatchString(s.Text) {
			desc = append(desc, s.Text)
			continue
		}
		amount, err := parseAmount(s.Text)
		if err != nil {
			continue
		}
		cols[r.bands.column(s.X)] = decimal.NewNullDecimal(amount)
	}

	if len(desc) == 0 || (!cols[0].Valid && !cols[1].Valid) {
		return stop
	}

	r.x.txns = append(r.x.txns, models.AccountTransaction{
		Date:        r.date,
		Description: strings.Join(desc, " "),
		Withdrawal:  cols[0],
		Deposit:     cols[1],
		Balance:     cols[2],
	})
	return stop
}

func (x *accountExtraction) parseDate(s string) (string, bool) {
	m := accountDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	month, ok := lookupMonth(m[2])
	if !ok {
		return "", false
	}
	d, ok := resolveDate(month, day, x.start, x.end)
	if !ok {
		return "", false
	}
	return isoDate(d), true
}

func isAccountHeader(lower string) bool {
	return containsAny(lower, accountSkipPhrases) || pageOfPattern.MatchString(lower)
}

func hasAccountAmount(r layout.Row) bool {
	for _, s := range r {
		if accountAmountPattern.MatchString(s.Text) {
			return true
		}
	}
	return false
}

func hasAccountDate(r layout.Row) bool {
	for _, s := range r {
		if accountDatePattern.MatchString(strings.TrimSpace(s.Text)) {
			return true
		}
	}
	return false
}

var accountContinuationRules = []rule[*mergeStep]{
	{name: "next-dated", when: func(s *mergeStep) bool { return hasAccountDate(s.next) }, then: setAction(mergeStop)},
	{name: "gap", when: func(s *mergeStep) bool { return s.gap() > s.maxGap }, then: setAction(mergeStop)},
	{name: "continuation", when: always[*mergeStep], then: setAction(mergeSplice)},
}

// mergeAccountRows joins rows that have no amount yet with the rows below
// them until the amounts show up. Header rows are never extended.
func mergeAccountRows(rows []layout.Row, maxGap float64) []layout.Row {
	out := make([]layout.Row, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		current := rows[i]
		if !hasAccountAmount(current) && !isAccountHeader(strings.ToLower(current.Text())) {
			anchor := current
			for i+1 < len(rows) {
				step := &mergeStep{anchor: anchor, next: rows[i+1], maxGap: maxGap}
				evaluate(accountContinuationRules, step)
				if step.action != mergeSplice {
					break
				}
				merged := make(layout.Row, 0, len(current)+len(step.next))
				current = append(append(merged, current...), step.next...)
				anchor = step.next
				i++
				if hasAccountAmount(current) {
					break
				}
			}
		}
		out = append(out, current)
	}
	return out
}
