package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

func sp(text string, x, y float64) models.TextSpan {
	return models.TextSpan{Text: text, X: x, Y: y}
}

func page(n int, spans ...models.TextSpan) models.Page {
	return models.Page{Number: n, Spans: spans}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

func assertNull(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, "expected empty column, got %s", got.Decimal)
		return
	}
	if assert.True(t, got.Valid, "expected %s, got empty column", want) {
		assert.Equal(t, want, got.Decimal.StringFixed(2))
	}
}
