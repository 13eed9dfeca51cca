// Package metadata scans statement header text for account details.
// Every scan is best effort: misses yield NOT_FOUND or UNKNOWN.
package metadata

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

const (
	useScanChars   = 400
	classScanChars = 500
	headerPages    = 2
)

// Classifications returned by Classify.
const (
	Visa       = "visa"
	MasterCard = "master card"
	CreditCard = "credit card"
	Savings    = "savings"
	Chequing   = "chequing"
)

// Account uses returned by Use.
const (
	Personal = "personal"
	Business = "business"
)

var (
	accountNumberPattern = regexp.MustCompile(`(?i)(?:Your\s+)?Account\s+(?:Number|No)[\s:.]+(\d[\d\s\-]+)`)
	cardNumberPattern    = regexp.MustCompile(`(\d\d\d\d\s+(?:[0-9*]{4}\s+){2}\d\d\d\d)`)
	cardEndingPattern    = regexp.MustCompile(`(?i)(?:Card\s+ending|ending\s+in)[\s:]+(\d{4})`)
	spacePattern         = regexp.MustCompile(`\s+`)

	personalPattern = regexp.MustCompile(`(?i)\bpersonal\b`)
	businessPattern = regexp.MustCompile(`(?i)\b(?:business|commercial)\b`)

	visaPattern       = regexp.MustCompile(`(?i)visa|master card`)
	creditCardPattern = regexp.MustCompile(`(?i)credit card|cardholder agreement`)
	savingsPattern    = regexp.MustCompile(`(?i)savings?\s*account|esavings`)
	chequingPattern   = regexp.MustCompile(`(?i)(?:chequing|banking)\s*account`)
	ledgerPattern     = regexp.MustCompile(`(?i)cheques|debits|deposits`)

	sourceStripPattern = regexp.MustCompile(`[\s.\-]`)
)

// Detect runs all three scans over the page texts.
func Detect(texts []string) models.AccountMetadata {
	return models.AccountMetadata{
		Use:            Use(texts),
		Classification: Classify(texts),
		Numbers:        AccountNumbers(texts),
	}
}

// AccountNumbers collects account identifiers from every page. Per page the
// first pattern family that matches wins: explicit "Account Number", masked
// card numbers, then "ending in NNNN". Results are deduplicated in order of
// appearance; with none found the result is [NOT_FOUND].
func AccountNumbers(texts []string) []string {
	var results []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			results = append(results, n)
		}
	}

	for _, text := range texts {
		if ms := accountNumberPattern.FindAllStringSubmatch(text, -1); len(ms) > 0 {
			for _, m := range ms {
				add(strings.TrimSpace(spacePattern.ReplaceAllString(m[1], " ")))
			}
			continue
		}
		if ms := cardNumberPattern.FindAllStringSubmatch(text, -1); len(ms) > 0 {
			for _, m := range ms {
				if strings.Contains(m[1], "*") {
					add(strings.TrimSpace(spacePattern.ReplaceAllString(m[1], " ")))
				}
			}
			continue
		}
		for _, m := range cardEndingPattern.FindAllStringSubmatch(text, -1) {
			add("****" + m[1])
		}
	}

	if len(results) == 0 {
		return []string{models.NotFound}
	}
	return results
}

// Use reports personal or business from the top of the first two pages.
// Footers are ignored since their boilerplate mentions corporate entities.
func Use(texts []string) string {
	for _, text := range firstPages(texts) {
		head := prefix(text, useScanChars)
		if personalPattern.MatchString(head) {
			return Personal
		}
		if businessPattern.MatchString(head) {
			return Business
		}
	}
	return models.Unknown
}

// Classify reports the account classification from the top of the first
// two pages.
func Classify(texts []string) string {
	for _, text := range firstPages(texts) {
		head := prefix(text, classScanChars)
		switch {
		case visaPattern.MatchString(head):
			return strings.ToLower(visaPattern.FindString(head))
		case creditCardPattern.MatchString(head):
			return CreditCard
		case savingsPattern.MatchString(head):
			return Savings
		case chequingPattern.MatchString(head):
			return Chequing
		case ledgerPattern.MatchString(head):
			return Chequing
		}
	}
	return models.Unknown
}

// IsCard reports whether a classification denotes a credit card statement.
func IsCard(classification string) bool {
	switch classification {
	case Visa, MasterCard, CreditCard:
		return true
	}
	return false
}

// IsAccount reports whether a classification denotes a deposit account.
func IsAccount(classification string) bool {
	return classification == Savings || classification == Chequing
}

// SourceID derives a stable identifier for a statement such as
// "personal_visa_451607xxxxxx4390_2024_03_20". The last account number found
// is used.
func SourceID(meta models.AccountMetadata, periodEnd time.Time) string {
	number := models.NotFound
	if n := len(meta.Numbers); n > 0 {
		number = meta.Numbers[n-1]
	}
	id := meta.Use + "_" + meta.Classification + "_" + number + "_" + periodEnd.Format("2006_01_02")
	id = sourceStripPattern.ReplaceAllString(id, "")
	return strings.ReplaceAll(id, "*", "x")
}

func firstPages(texts []string) []string {
	if len(texts) > headerPages {
		return texts[:headerPages]
	}
	return texts
}

// prefix returns at most n bytes of s without splitting a rune.
func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
