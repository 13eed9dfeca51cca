package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

type stubBatch struct {
	answers  map[int]string
	err      error
	items    []Item
	examples []string
}

func (s *stubBatch) ClassifyBatch(_ context.Context, items []Item, examples []string) (map[int]string, error) {
	s.items, s.examples = items, examples
	return s.answers, s.err
}

func txn(desc, amount string) models.Transaction {
	return models.Transaction{Date: "2024-01-02", File: "x", Description: desc, Amount: decimal.RequireFromString(amount)}
}

func TestCategorize(t *testing.T) {
	ix := Build([]models.TrainingRow{
		row("UBER* TRIP TORONTO ON", "26.97", "Expenses / Travel"),
		row("PAYROLL", "100", "Revenue / Salary"),
	}, 0)
	txns := []models.Transaction{
		txn("UBER* TRIP TORONTO ON", "26.97"),
		txn("UNKNOWN TRANSACTION", "-100.00"),
		txn("MYSTERY SHOP", "-4.00"),
	}

	t.Run("index only", func(t *testing.T) {
		got := Categorizer{Index: ix}.Categorize(context.Background(), txns)
		require.Len(t, got, 3)
		assert.Equal(t, "Expenses / Travel", got[0].Category)
		assert.Empty(t, got[1].Category)
		assert.Empty(t, got[2].Category)
		assert.Equal(t, txns[1], got[1].Transaction)
	})

	t.Run("fallback fills pending rows only", func(t *testing.T) {
		fb := &stubBatch{answers: map[int]string{
			0:  "Overridden",
			1:  "Expenses / Other ??",
			99: "Nowhere",
		}}
		got := Categorizer{Index: ix, Fallback: fb, MaxExamples: 1}.Categorize(context.Background(), txns)

		assert.Equal(t, "Expenses / Travel", got[0].Category)
		assert.Equal(t, "Expenses / Other ??", got[1].Category)
		assert.Empty(t, got[2].Category)

		require.Len(t, fb.items, 2)
		assert.Equal(t, 1, fb.items[0].Index)
		assert.Equal(t, 2, fb.items[1].Index)
		assert.Equal(t, []string{"Expenses / Travel"}, fb.examples)
	})

	t.Run("fallback failure leaves rows uncategorized", func(t *testing.T) {
		fb := &stubBatch{err: errors.New("boom")}
		got := Categorizer{Index: ix, Fallback: fb}.Categorize(context.Background(), txns)
		assert.Equal(t, "Expenses / Travel", got[0].Category)
		assert.Empty(t, got[1].Category)
	})

	t.Run("fallback skipped when everything matched", func(t *testing.T) {
		fb := &stubBatch{}
		Categorizer{Index: ix, Fallback: fb}.Categorize(context.Background(), txns[:1])
		assert.Nil(t, fb.items)
	})

	t.Run("no index", func(t *testing.T) {
		fb := &stubBatch{answers: map[int]string{0: "Expenses / Travel"}}
		got := Categorizer{Fallback: fb}.Categorize(context.Background(), txns[:1])
		assert.Equal(t, "Expenses / Travel", got[0].Category)
		assert.Nil(t, fb.examples)
	})
}
