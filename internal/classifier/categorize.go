package classifier

import (
	"context"

	"github.com/colinbendell/bank-statement-processor/internal/logger"
	"github.com/colinbendell/bank-statement-processor/internal/metrics"
	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// DefaultMaxExamples caps how many known categories are shown to the model.
const DefaultMaxExamples = 20

// Categorizer labels transactions from an Index, optionally asking Fallback
// about whatever the Index cannot answer.
type Categorizer struct {
	Index       *Index
	Fallback    BatchClassifier // nil disables the model pass
	MaxExamples int
}

// Categorize returns one CategorizedTransaction per input, in input order.
// A fallback failure is logged and leaves the affected rows uncategorized.
func (c Categorizer) Categorize(ctx context.Context, txns []models.Transaction) []models.CategorizedTransaction {
	log := logger.FromContext(ctx)
	out := make([]models.CategorizedTransaction, len(txns))
	pending := make(map[int]bool)
	var items []Item

	for i, t := range txns {
		out[i] = models.CategorizedTransaction{Transaction: t}
		if c.Index != nil {
			if m, ok := c.Index.Lookup(t.Description, t.Amount); ok {
				out[i].Category = m.Label()
				metrics.CategoryLookupsTotal.WithLabelValues(string(m.Strategy)).Inc()
				continue
			}
		}
		pending[i] = true
		items = append(items, Item{Index: i, Description: t.Description, Amount: t.Amount})
	}

	if len(items) > 0 && c.Fallback != nil {
		log.Info().Int("count", len(items)).Msg("inferring categories with model")
		answers, err := c.Fallback.ClassifyBatch(ctx, items, c.examples())
		if err != nil {
			log.Warn().Err(err).Msg("model categorization failed")
		}
		for idx, category := range answers {
			if !pending[idx] {
				log.Debug().Int("index", idx).Msg("ignoring answer for unknown transaction")
				continue
			}
			out[idx].Category = category
			delete(pending, idx)
			metrics.CategoryLookupsTotal.WithLabelValues(string(StrategyModel)).Inc()
			log.Debug().Str("description", txns[idx].Description).Str("category", category).Msg("model categorized")
		}
	}

	if len(pending) > 0 {
		metrics.CategoryLookupsTotal.WithLabelValues(string(StrategyNone)).Add(float64(len(pending)))
	}
	return out
}

func (c Categorizer) examples() []string {
	if c.Index == nil {
		return nil
	}
	n := c.MaxExamples
	if n <= 0 {
		n = DefaultMaxExamples
	}
	return c.Index.Categories(n)
}
