package util

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxAmount bounds money values and balances. SQLite keeps decimal(20,2)
// columns as REAL, which is exact at cent precision only below this.
var MaxAmount = decimal.New(1, 13)

// MoneyScale is the number of decimal places money columns hold.
const MoneyScale = 2

// ValidateAmount checks that amount is positive, below MaxAmount and has at
// most MoneyScale decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", amount)
	}
	return checkMoney("amount", amount)
}

// ValidatePrice allows zero; prices only need to be non-negative.
func ValidatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return fmt.Errorf("price must not be negative, got %s", price)
	}
	return checkMoney("price", price)
}

// InMoneyRange reports whether a running balance, which may be negative,
// is still stored exactly.
func InMoneyRange(balance decimal.Decimal) bool {
	return balance.Abs().LessThan(MaxAmount)
}

func checkMoney(field string, d decimal.Decimal) error {
	if !InMoneyRange(d) {
		return fmt.Errorf("%s too large, got %s", field, d)
	}
	if !d.Equal(d.Round(MoneyScale)) {
		return fmt.Errorf("%s has more than %d decimal places, got %s", field, MoneyScale, d)
	}
	return nil
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %w", err)
	}
	return t, nil
}

// ParseYearMonth parses YYYY-MM as the first instant of that month in loc.
func ParseYearMonth(ym string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01", ym, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month format: %w", err)
	}
	return t, nil
}

// NormalizeName lowercases and trims wallet, business and material names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateName checks a normalized name is non-empty and fits its column.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if utf8.RuneCountInString(name) > 64 {
		return fmt.Errorf("name too long, max 64 characters")
	}
	return nil
}
