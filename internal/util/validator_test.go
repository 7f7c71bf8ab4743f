package util

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAmount(t *testing.T) {
	for _, s := range []string{"0.01", "1", "2500", "1.50", "9999999999999.99"} {
		assert.NoError(t, ValidateAmount(decimal.RequireFromString(s)), s)
	}
	for _, s := range []string{"0", "-0.01", "-2500", "10000000000000", "123456789012345.67", "0.001", "12.345"} {
		assert.Error(t, ValidateAmount(decimal.RequireFromString(s)), s)
	}
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(decimal.Zero))
	assert.NoError(t, ValidatePrice(decimal.NewFromInt(5000)))
	assert.Error(t, ValidatePrice(decimal.NewFromInt(-1)))
	assert.Error(t, ValidatePrice(decimal.RequireFromString("0.005")))
	assert.Error(t, ValidatePrice(MaxAmount))
}

func TestInMoneyRange(t *testing.T) {
	assert.True(t, InMoneyRange(decimal.RequireFromString("-9999999999999.99")))
	assert.False(t, InMoneyRange(MaxAmount.Neg()))
	assert.False(t, InMoneyRange(MaxAmount))
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	d, err := ParseDate("2024-11-25", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 11, 25, 0, 0, 0, 0, loc), d)

	for _, s := range []string{"", "2024/11/25", "25-11-2024", "2024-13-01", "2024-02-30"} {
		_, err := ParseDate(s, loc)
		assert.Error(t, err, s)
	}
}

func TestParseYearMonth(t *testing.T) {
	m, err := ParseYearMonth("2024-02", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), m)

	for _, s := range []string{"", "2024", "2024-2x", "2024-13"} {
		_, err := ParseYearMonth(s, time.UTC)
		assert.Error(t, err, s)
	}
}

func TestNormalizeAndValidateName(t *testing.T) {
	assert.Equal(t, "tabungan", NormalizeName("  Tabungan "))
	assert.NoError(t, ValidateName("cash"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName(strings.Repeat("a", 65)))
}
