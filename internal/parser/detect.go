package parser

import (
	"strings"

	"github.com/colinbendell/bank-statement-processor/internal/metadata"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// Detection is the outcome of statement type detection.
type Detection struct {
	Kind           models.StatementKind
	Classification string
	// Confident is false when nothing identified the statement and the
	// card-style default was applied.
	Confident bool
	Rule      string
}

type detectInput struct {
	classification string
	firstPage      string
	result         Detection
}

func decide(kind models.StatementKind, confident bool) func(*detectInput) outcome {
	return func(in *detectInput) outcome {
		in.result.Kind = kind
		in.result.Confident = confident
		return stop
	}
}

var detectRules = []rule[*detectInput]{
	{name: "card-markers", when: func(in *detectInput) bool { return metadata.IsCard(in.classification) }, then: decide(models.KindCard, true)},
	{name: "account-markers", when: func(in *detectInput) bool { return metadata.IsAccount(in.classification) }, then: decide(models.KindAccount, true)},
	{name: "ledger-columns", when: func(in *detectInput) bool {
		return strings.Contains(in.firstPage, "withdrawal") || strings.Contains(in.firstPage, "deposit")
	}, then: decide(models.KindAccount, true)},
	{name: "default", when: always[*detectInput], then: decide(models.KindCard, false)},
}

// Detect picks the extraction grammar from the header text of the pages.
// Credit card markers win over deposit account markers; failing both, a
// withdrawal/deposit column layout implies an account statement, and
// otherwise the card grammar is assumed with Confident unset.
func Detect(texts []string) Detection {
	in := &detectInput{classification: metadata.Classify(texts)}
	if len(texts) > 0 {
		in.firstPage = strings.ToLower(texts[0])
	}
	in.result.Rule = evaluate(detectRules, in)
	in.result.Classification = in.classification
	return in.result
}
