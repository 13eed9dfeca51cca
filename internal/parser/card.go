package parser

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/colinbendell/bank-statement-processor/internal/layout"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// postingLagDays is how far a transaction date may precede the statement
// start. A provisional period already spans the whole year and gets no lag.
const postingLagDays = 30

var cardHeaderKeywords = []string{"TRANSACTION", "POSTING", "ACTIVITY DESCRIPTION", "SUBTOTAL", "MONTHLY ACTIVITY"}

// CardExtractor reads credit card statements: "MON DD  MON DD  description  amount".
type CardExtractor struct {
	opts Options
}

// Kind implements Extractor.
func (e *CardExtractor) Kind() models.StatementKind { return models.KindCard }

// Extract implements Extractor. Amounts are returned in canonical sign:
// printed charges become negative, printed credits positive.
func (e *CardExtractor) Extract(pages []models.Page, period models.Period) []models.RawTransaction {
	x := &cardExtraction{start: period.Start, end: period.End}
	if !period.Provisional {
		x.start = x.start.AddDate(0, 0, -postingLagDays)
	}

	for _, page := range pages {
		spans := layout.Filter(page.Spans, func(s models.TextSpan) bool { return s.X < e.opts.CardMaxX })
		rows := mergeCardRows(layout.GroupRows(spans, e.opts.YTolerance), e.opts.MergeGap)
		for _, r := range rows {
			row := &cardRow{row: r, text: r.Text(), x: x}
			row.upper = strings.ToUpper(row.text)
			e.opts.trace(page.Number, r, evaluate(cardRules, row))
		}
	}

	out := make([]models.RawTransaction, len(x.txns))
	for i, t := range x.txns {
		out[i] = t
	}
	return out
}

type cardExtraction struct {
	start, end time.Time
	txns       []models.CardTransaction
}

type cardRow struct {
	row   layout.Row
	text  string
	upper string
	x     *cardExtraction
}

var cardRules = []rule[*cardRow]{
	{name: "currency-annotation", when: (*cardRow).isCurrencyAnnotation, then: (*cardRow).annotate},
	{name: "short-row", when: func(r *cardRow) bool { return len(r.row) < 3 }, then: drop[*cardRow]},
	{name: "card-divider", when: func(r *cardRow) bool { return cardSectionPattern.MatchString(r.text) }, then: drop[*cardRow]},
	{name: "header", when: func(r *cardRow) bool { return containsAny(r.upper, cardHeaderKeywords) }, then: drop[*cardRow]},
	{name: "transaction", when: (*cardRow).isTransaction, then: (*cardRow).emit},
	{name: "noise", when: always[*cardRow], then: drop[*cardRow]},
}

func (r *cardRow) isCurrencyAnnotation() bool {
	return currencyPattern.MatchString(r.text)
}

// annotate appends " (23.50 USD @1.36)" to the previously emitted
// transaction. Without one the annotation is discarded.
func (r *cardRow) annotate() outcome {
	m := currencyPattern.FindStringSubmatch(r.text)
	if n := len(r.x.txns); n > 0 {
		r.x.txns[n-1].Description += " (" + m[2] + " " + strings.ToUpper(m[1]) + " @" + m[3] + ")"
	}
	return stop
}

func (r *cardRow) isTransaction() bool {
	return isCardHead(r.row) && cardPostingPattern.MatchString(r.row[1].Text)
}

func (r *cardRow) emit() outcome {
	first, last := r.row.First().Text, r.row.Last().Text
	posting := cardPostingPattern.FindStringSubmatch(r.row[1].Text)

	var parts []string
	if rest := strings.TrimSpace(posting[2]); rest != "" {
		parts = append(parts, rest)
	}
	for _, s := range r.row[2 : len(r.row)-1] {
		parts = append(parts, s.Text)
	}

	txDate, ok := r.x.parseDate(first)
	if !ok {
		return stop
	}
	postDate, ok := r.x.parseDate(posting[1])
	if !ok {
		return stop
	}
	amount, err := parseAmount(last)
	if err != nil {
		return stop
	}

	r.x.txns = append(r.x.txns, models.CardTransaction{
		TransactionDate: isoDate(txDate),
		PostingDate:     isoDate(postDate),
		Description:     strings.Join(parts, " "),
		Amount:          amount.Neg(),
	})
	return stop
}

func (x *cardExtraction) parseDate(s string) (time.Time, bool) {
	m := cardDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	month, ok := lookupMonth(m[1])
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	return resolveDate(month, day, x.start, x.end)
}

func isCardHead(r layout.Row) bool {
	return len(r) > 0 &&
		cardDatePattern.MatchString(r.First().Text) &&
		cardAmountPattern.MatchString(r.Last().Text)
}

type mergeAction int

const (
	mergeStop mergeAction = iota
	mergeSkip
	mergeSplice
)

// mergeStep is the candidate continuation of a row being assembled.
type mergeStep struct {
	anchor layout.Row // row the vertical gap is measured from
	next   layout.Row
	maxGap float64
	action mergeAction
}

func (s *mergeStep) gap() float64 { return math.Abs(s.next.Y() - s.anchor.Y()) }

func setAction(a mergeAction) func(*mergeStep) outcome {
	return func(s *mergeStep) outcome {
		s.action = a
		return stop
	}
}

var cardContinuationRules = []rule[*mergeStep]{
	{name: "next-transaction", when: func(s *mergeStep) bool {
		return len(s.next) > 0 && (cardDatePattern.MatchString(s.next.First().Text) || cardAmountPattern.MatchString(s.next.Last().Text))
	}, then: setAction(mergeStop)},
	{name: "header", when: func(s *mergeStep) bool {
		upper := strings.ToUpper(s.next.Text())
		return strings.Contains(upper, "TRANSACTION") || strings.Contains(upper, "POSTING")
	}, then: setAction(mergeStop)},
	{name: "currency-annotation", when: func(s *mergeStep) bool { return currencyPattern.MatchString(s.next.Text()) }, then: setAction(mergeStop)},
	{name: "reference-code", when: func(s *mergeStep) bool { return numericOnlyPattern.MatchString(strings.TrimSpace(s.next.Text())) }, then: setAction(mergeSkip)},
	{name: "gap", when: func(s *mergeStep) bool { return s.gap() > s.maxGap }, then: setAction(mergeStop)},
	{name: "continuation", when: always[*mergeStep], then: setAction(mergeSplice)},
}

// mergeCardRows folds description lines that wrap below a transaction row
// into it, keeping the amount as the last span. Bare reference numbers
// between them are discarded. Every continuation must lie within maxGap of
// the transaction row itself.
func mergeCardRows(rows []layout.Row, maxGap float64) []layout.Row {
	out := make([]layout.Row, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		head := rows[i]
		if !isCardHead(head) {
			out = append(out, head)
			continue
		}

		anchor := head
		for i+1 < len(rows) {
			step := &mergeStep{anchor: anchor, next: rows[i+1], maxGap: maxGap}
			evaluate(cardContinuationRules, step)
			if step.action == mergeStop {
				break
			}
			i++
			if step.action == mergeSplice {
				head = splice(head, step.next)
			}
		}
		out = append(out, head)
	}
	return out
}

// splice inserts cont before the trailing amount span of head.
func splice(head, cont layout.Row) layout.Row {
	merged := make(layout.Row, 0, len(head)+len(cont))
	merged = append(merged, head[:len(head)-1]...)
	merged = append(merged, cont...)
	return append(merged, head.Last())
}
