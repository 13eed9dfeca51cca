package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/colinbendell/bank-statement-processor/internal/models"
)

// Training ledger columns, matched case-insensitively.
const (
	ColDescription = "description"
	ColAmount      = "amount"
	ColCategory    = "category"
)

// ReadTraining reads a labelled ledger with Description, Amount and Category
// columns in any order. Thousands separators are stripped from amounts; rows
// whose amount does not parse are skipped.
func ReadTraining(r io.Reader) ([]models.TrainingRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read training header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range []string{ColDescription, ColAmount, ColCategory} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("training ledger: missing %q column", name)
		}
	}

	var rows []models.TrainingRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read training line %d: %w", line, err)
		}
		desc, amountStr, category := field(rec, cols[ColDescription]), field(rec, cols[ColAmount]), field(rec, cols[ColCategory])
		if category == "" {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(amountStr, ",", ""))
		if err != nil {
			continue
		}
		rows = append(rows, models.TrainingRow{Description: desc, Amount: amount, Category: category})
	}
	return rows, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
