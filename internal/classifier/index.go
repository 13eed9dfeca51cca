// Package classifier assigns categories to transactions from a labelled
// history, with an optional language model fallback for the rest.
package classifier

import (
	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/fuzzy"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// DefaultThreshold is the minimum WRatio score for a fuzzy match.
const DefaultThreshold = 90.0

// FuzzyMarker is appended to categories found by fuzzy matching.
const FuzzyMarker = "**"

// Strategy names the lookup step that produced a category.
type Strategy string

const (
	StrategyExact       Strategy = "exact"
	StrategyDescription Strategy = "description"
	StrategyFuzzy       Strategy = "fuzzy"
	StrategyModel       Strategy = "model"
	StrategyNone        Strategy = "none"
)

// Match is the result of a successful lookup.
type Match struct {
	Category string
	Strategy Strategy
	Score    float64
}

// Label is the category as written to output: fuzzy matches carry
// FuzzyMarker so inferred labels stay distinguishable from exact ones.
func (m Match) Label() string {
	if m.Strategy == StrategyFuzzy {
		return m.Category + FuzzyMarker
	}
	return m.Category
}

// categorySet keeps the distinct categories seen for a key in first-seen order.
type categorySet []string

func (s categorySet) add(c string) categorySet {
	for _, existing := range s {
		if existing == c {
			return s
		}
	}
	return append(s, c)
}

func (s categorySet) single() (string, bool) {
	if len(s) != 1 {
		return "", false
	}
	return s[0], true
}

// Index maps normalized descriptions and amount keys to the categories seen
// for them. A key with more than one category is ambiguous and never
// answers directly. An Index is immutable once built and safe for
// concurrent lookups.
type Index struct {
	threshold   float64
	exact       map[string]categorySet // description and amount keys
	coarse      map[string]categorySet
	coarseOrder []string
	categories  categorySet
}

// Build indexes the training rows. A threshold <= 0 selects DefaultThreshold.
func Build(rows []models.TrainingRow, threshold float64) *Index {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	ix := &Index{
		threshold: threshold,
		exact:     make(map[string]categorySet),
		coarse:    make(map[string]categorySet),
	}
	for _, r := range rows {
		ix.add(r)
	}
	return ix
}

func (ix *Index) add(r models.TrainingRow) {
	norm := NormalizeDescription(r.Description)
	ix.exact[norm] = ix.exact[norm].add(r.Category)

	key := amountKey(r.Amount, norm)
	ix.exact[key] = ix.exact[key].add(r.Category)

	key = coarseKey(r.Amount, norm)
	if _, ok := ix.coarse[key]; !ok {
		ix.coarseOrder = append(ix.coarseOrder, key)
	}
	ix.coarse[key] = ix.coarse[key].add(r.Category)

	ix.categories = ix.categories.add(r.Category)
}

// Threshold returns the fuzzy match threshold in use.
func (ix *Index) Threshold() float64 { return ix.threshold }

// Len returns the number of distinct lookup keys.
func (ix *Index) Len() int { return len(ix.exact) + len(ix.coarse) }

// Categories returns up to limit distinct categories in first-seen order.
// A limit <= 0 returns all of them.
func (ix *Index) Categories(limit int) []string {
	if limit <= 0 || limit > len(ix.categories) {
		limit = len(ix.categories)
	}
	out := make([]string, limit)
	copy(out, ix.categories[:limit])
	return out
}

// Lookup tries, in order: the exact amount key, the bare description, and
// the best fuzzy match against unambiguous coarse amount keys scoring at
// least the threshold. Later entries win ties.
func (ix *Index) Lookup(description string, amount decimal.Decimal) (Match, bool) {
	norm := NormalizeDescription(description)

	if c, ok := ix.exact[amountKey(amount, norm)].single(); ok {
		return Match{Category: c, Strategy: StrategyExact, Score: 100}, true
	}
	if c, ok := ix.exact[norm].single(); ok {
		return Match{Category: c, Strategy: StrategyDescription, Score: 100}, true
	}

	query := coarseKey(amount, norm)
	best := Match{Strategy: StrategyFuzzy}
	found := false
	for _, key := range ix.coarseOrder {
		c, ok := ix.coarse[key].single()
		if !ok {
			continue
		}
		score := fuzzy.WRatio(query, key)
		if score >= ix.threshold && score >= best.Score {
			best.Category, best.Score = c, score
			found = true
		}
	}
	return best, found
}

// Category returns the label for a transaction, or false when no strategy
// matched.
func (ix *Index) Category(description string, amount decimal.Decimal) (string, bool) {
	m, ok := ix.Lookup(description, amount)
	if !ok {
		return "", false
	}
	return m.Label(), true
}
