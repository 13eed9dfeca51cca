package classifier

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Compound reference codes after a separator: "* 7H2K9P3Q", "-AB12CD34".
	simpleIDPattern = regexp.MustCompile(`[-*]\s*[0-9]*(?:[A-Z]+[0-9]+){2,}[A-Z0-9]+\b`)
	// Trailing reference codes or digit runs: "SHOP A1B2C3", "transfer - 3087".
	longerIDPattern = regexp.MustCompile(`\b[0-9]*[A-Z]+[0-9]+[A-Z0-9]+$|\s*[0-9]+$`)
	nonAlphaPattern = regexp.MustCompile(`[^a-z]+`)
)

// NormalizeDescription strips reference codes and everything but letters.
// The code patterns match upper case only, so they run before folding.
func NormalizeDescription(description string) string {
	norm := simpleIDPattern.ReplaceAllString(description, "")
	norm = longerIDPattern.ReplaceAllString(norm, "")
	norm = nonAlphaPattern.ReplaceAllString(strings.ToLower(norm), " ")
	return strings.TrimSpace(norm)
}

// amountKey is "<signed amount> || <normalized description>".
func amountKey(amount decimal.Decimal, norm string) string {
	return signed(amount) + " || " + norm
}

// coarseKey is amountKey with the amount rounded to one significant figure.
func coarseKey(amount decimal.Decimal, norm string) string {
	return amountKey(oneSignificantFigure(amount), norm)
}

func signed(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.String()
	}
	return "+" + d.String()
}

func oneSignificantFigure(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	f, _ := d.Abs().Float64()
	exp := int32(math.Floor(math.Log10(f)))
	return d.Round(-exp)
}
