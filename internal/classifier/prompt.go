package classifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// LowConfidenceMarker is appended by the model to categories it is unsure of.
const LowConfidenceMarker = "??"

// Item is one uncategorized transaction sent to the fallback.
type Item struct {
	Index       int
	Description string
	Amount      decimal.Decimal
}

// BatchClassifier proposes categories for a batch of items. The result is
// keyed by Item.Index; items it has no answer for are left out.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, items []Item, examples []string) (map[int]string, error)
}

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// PromptClassifier is a BatchClassifier backed by a text completion model.
type PromptClassifier struct {
	Completer Completer
}

// ClassifyBatch implements BatchClassifier.
func (p PromptClassifier) ClassifyBatch(ctx context.Context, items []Item, examples []string) (map[int]string, error) {
	if len(items) == 0 {
		return map[int]string{}, nil
	}
	text, err := p.Completer.Complete(ctx, BuildPrompt(items, examples))
	if err != nil {
		return nil, err
	}
	return ParseResponse(text), nil
}

// BuildPrompt renders the batch request: the example categories, one
// numbered line per item, and the expected answer format.
func BuildPrompt(items []Item, examples []string) string {
	var b strings.Builder
	b.WriteString("Based on the following existing transaction categories, suggest the most appropriate category for each transaction below.\n\n")

	b.WriteString("Existing categories in use:\n")
	for _, c := range examples {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\nTransactions to categorize:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "%d. Description: %s | Amount: $%s\n", it.Index, it.Description, it.Amount.StringFixed(2))
	}

	b.WriteString(`
For each transaction, respond with the transaction number followed by a colon and the category. Each response should be on a separate line. The category should follow the same hierarchical format (e.g., "Expenses / Travel", "Revenue / Ontario", "Investment / MD Management").
Use only the categories provided. If the category is a low probability match format the response with "<category> ??". If you are uncertain or if no existing categories fit well, suggest a new category in the format "<category> ??".

Example response format:
0: Expenses / Travel
1: Revenue / Ontario
2: Investment / MD Management
3: Expenses / Travel ??
4: Revenue / Ireland ??

Response:`)
	return b.String()
}

// ParseResponse reads "<index>: <category>" lines. Lines without a colon,
// with a non-numeric index or with an empty category are ignored.
func ParseResponse(text string) map[int]string {
	out := make(map[int]string)
	for _, line := range strings.Split(text, "\n") {
		idx, category, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			continue
		}
		if category = strings.TrimSpace(category); category != "" {
			out[n] = category
		}
	}
	return out
}
