package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse(" 1250.75 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(MustParse("1250.75")))

	_, err = Parse("")
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = Parse("12abc")
	assert.ErrorIs(t, err, ErrNotANumber)
}

func TestSimpleInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		years     int
		want      string
	}{
		{"loan five years", "100000", "0.07", 5, "135000"},
		{"deposit three years", "10000", "0.06", 3, "11800"},
		{"one year", "2500", "0.07", 1, "2675"},
		{"fractional principal", "1000.50", "0.06", 2, "1120.56"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimpleInterest(MustParse(tt.principal), MustParse(tt.rate), tt.years)
			assert.True(t, got.Equal(MustParse(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestPositiveAndCovers(t *testing.T) {
	assert.True(t, Positive(MustParse("0.01")))
	assert.False(t, Positive(Zero))
	assert.False(t, Positive(MustParse("-3")))

	assert.True(t, Covers(MustParse("10000"), MustParse("10000")))
	assert.False(t, Covers(MustParse("9999.99"), MustParse("10000")))
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().Equal(Zero))
	assert.True(t, Sum(MustParse("10000"), MustParse("25000.5")).Equal(MustParse("35000.5")))
}
