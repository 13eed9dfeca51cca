// Package layout rebuilds table rows from positioned text spans.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// DefaultYTolerance is the vertical distance within which spans share a row.
const DefaultYTolerance = 3.0

// Row is a set of spans sharing a vertical band, ordered left to right.
type Row []models.TextSpan

// Text joins the span texts with single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r))
	for i, s := range r {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

// First returns the leftmost span. The row must not be empty.
func (r Row) First() models.TextSpan { return r[0] }

// Last returns the rightmost span. The row must not be empty.
func (r Row) Last() models.TextSpan { return r[len(r)-1] }

// Y is the row's vertical reference: the Y of its first span.
func (r Row) Y() float64 {
	if len(r) == 0 {
		return 0
	}
	return r[0].Y
}

// GroupRows groups spans into rows. Spans are visited in (y, x) order and a
// span joins the current row while it is within tolerance of the Y of the
// row's first span; the reference never drifts with later spans.
func GroupRows(spans []models.TextSpan, tolerance float64) []Row {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]models.TextSpan, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var rows []Row
	current := Row{sorted[0]}
	refY := sorted[0].Y
	for _, s := range sorted[1:] {
		if math.Abs(s.Y-refY) <= tolerance {
			current = append(current, s)
			continue
		}
		rows = append(rows, sortByX(current))
		current = Row{s}
		refY = s.Y
	}
	return append(rows, sortByX(current))
}

// Filter returns the spans for which keep reports true, with blank spans
// removed and text trimmed.
func Filter(spans []models.TextSpan, keep func(models.TextSpan) bool) []models.TextSpan {
	out := make([]models.TextSpan, 0, len(spans))
	for _, s := range spans {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		if keep != nil && !keep(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func sortByX(r Row) Row {
	sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
	return r
}
