// Package fuzzy scores string similarity on a 0-100 scale.
//
// WRatio combines the plain indel ratio with partial and token based
// variants, weighting them by how different the two lengths are. Inputs are
// compared as given; callers normalize case and punctuation beforehand.
package fuzzy

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

const (
	unbaseScale  = 0.95
	partialScale = 0.9
	longScale    = 0.6
)

// Ratio is the normalized indel similarity: 100 * 2*LCS / (len(a)+len(b)).
func Ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la+lb == 0 {
		return 100
	}
	return 100 * float64(2*edlib.LCS(a, b)) / float64(la+lb)
}

// PartialRatio is the best Ratio of the shorter string against any equally
// long window of the longer one, including windows hanging off either end.
func PartialRatio(a, b string) float64 {
	s, l := []rune(a), []rune(b)
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) == 0 {
		if len(l) == 0 {
			return 100
		}
		return 0
	}

	short := string(s)
	best := 0.0
	for start := 1 - len(s); start < len(l); start++ {
		lo, hi := max(start, 0), min(start+len(s), len(l))
		if r := Ratio(short, string(l[lo:hi])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

// TokenSortRatio compares the strings after sorting their words.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

// TokenSetRatio compares the shared words, alone and followed by each side's
// extra words.
func TokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var inter, onlyA, onlyB []string
	for t := range ta {
		if tb[t] {
			inter = append(inter, t)
		} else {
			onlyA = append(onlyA, t)
		}
	}
	for t := range tb {
		if !ta[t] {
			onlyB = append(onlyB, t)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := joinSorted(inter)
	withA, withB := joinSorted(onlyA), joinSorted(onlyB)
	if sect != "" {
		withA = sect + " " + withA
		withB = sect + " " + withB
	}
	best := Ratio(withA, withB)
	if sect == "" {
		return best
	}
	return max(best, Ratio(sect, withA), Ratio(sect, withB))
}

// PartialTokenRatio is PartialRatio over sorted words, or 100 when the
// strings share a word.
func PartialTokenRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	for t := range ta {
		if tb[t] {
			return 100
		}
	}
	return PartialRatio(sortedTokens(a), sortedTokens(b))
}

// WRatio is the weighted similarity of a and b. Empty input scores 0.
func WRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	lenRatio := float64(max(la, lb)) / float64(min(la, lb))
	score := Ratio(a, b)

	if lenRatio < 1.5 {
		token := max(TokenSortRatio(a, b), TokenSetRatio(a, b))
		return max(score, token*unbaseScale)
	}

	scale := partialScale
	if lenRatio >= 8 {
		scale = longScale
	}
	score = max(score, PartialRatio(a, b)*scale)
	return max(score, PartialTokenRatio(a, b)*unbaseScale*scale)
}

func sortedTokens(s string) string {
	fields := strings.Fields(s)
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(s) {
		set[f] = true
	}
	return set
}

func joinSorted(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
