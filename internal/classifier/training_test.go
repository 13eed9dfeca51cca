package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTraining(t *testing.T) {
	in := "Date,Description,Amount,Category\n" +
		"2024-01-02,UBER* TRIP,26.97,Expenses / Travel\n" +
		"2024-01-03,RENT,\"-1,234.50\",Expenses / Rent\n" +
		"2024-01-04,BROKEN,abc,Expenses / Other\n" +
		"2024-01-05,UNLABELLED,10.00,\n"

	rows, err := ReadTraining(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "UBER* TRIP", rows[0].Description)
	assert.Equal(t, "26.97", rows[0].Amount.String())
	assert.Equal(t, "Expenses / Travel", rows[0].Category)
	assert.Equal(t, "-1234.5", rows[1].Amount.String())
}

func TestReadTrainingColumnOrder(t *testing.T) {
	in := "category,amount,description\nRevenue / Ontario,100,CLIENT PAYMENT\n"

	rows, err := ReadTraining(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CLIENT PAYMENT", rows[0].Description)
}

func TestReadTrainingErrors(t *testing.T) {
	_, err := ReadTraining(strings.NewReader("Description,Amount\nX,1\n"))
	assert.ErrorContains(t, err, "category")

	rows, err := ReadTraining(strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, rows)
}
