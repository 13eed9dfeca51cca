package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const monthAbbrevs = `JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC`

var (
	// MON DD, e.g. "MAR 14", "MAR14", "MAR-14".
	cardDatePattern = regexp.MustCompile(`(?i)^(` + monthAbbrevs + `)[-\s]*(\d{1,2})$`)
	// Posting date, optionally fused with the start of the description: "MAR15 STARBUCKS".
	cardPostingPattern = regexp.MustCompile(`(?i)^((?:` + monthAbbrevs + `)[-\s]*\d{1,2})(?:\s+(.*))?$`)
	// Printed card amount: "4.75", "-$1,234.56".
	cardAmountPattern = regexp.MustCompile(`^-?\$?[\d,]+\.\d{2}$`)
	numericOnlyPattern = regexp.MustCompile(`^\d+$`)
	// Section divider on multi-card statements: "4516 07** **** 4390".
	cardSectionPattern = regexp.MustCompile(`\d{4}\s+\d{2}\*{2}\s+\*{4}\s+\d{4}`)
	currencyPattern    = regexp.MustCompile(`(?i)Foreign\s+Currency\s*-\s*([A-Z]{3})\s+([\d,]+\.\d{2})\s+Exchange\s+rate\s*-\s*([\d.]+)`)
	amountCleanPattern = regexp.MustCompile(`[^0-9.-]`)

	// DD MON, e.g. "05 Jan", "5JAN".
	accountDatePattern   = regexp.MustCompile(`(?i)^(\d{1,2})\s*(` + monthAbbrevs + `)$`)
	accountAmountPattern = regexp.MustCompile(`^[\d,]+\.\d{2}$`)
	// Margin document codes such as "RBPDA12345".
	docRefPattern = regexp.MustCompile(`^RBP[A-Z]{2}\d`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// lookupMonth accepts a three letter abbreviation or a full English month name.
func lookupMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if len(s) < 3 {
		return 0, false
	}
	m, ok := months[s[:3]]
	if !ok {
		return 0, false
	}
	if len(s) > 3 && !strings.HasPrefix(strings.ToLower(m.String()), s) {
		return 0, false
	}
	return m, true
}

// resolveDate places a month/day without a year inside the statement period:
// the start year is used unless that lands before start, in which case the
// end year is used. Days that do not exist in the month, such as FEB 30,
// are rejected; FEB 29 is accepted when the chosen year is a leap year.
func resolveDate(month time.Month, day int, start, end time.Time) (time.Time, bool) {
	d, ok := calendarDate(start.Year(), month, day)
	if !ok || d.Before(start) {
		d, ok = calendarDate(end.Year(), month, day)
	}
	return d, ok
}

func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if day < 1 || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

// parseAmount converts "1,234.56", "-$1,234.56" and the like to a decimal.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := amountCleanPattern.ReplaceAllString(strings.TrimSpace(s), "")
	if clean == "" || clean == "-" {
		return decimal.Zero, fmt.Errorf("parsing amount %q: no digits", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}
