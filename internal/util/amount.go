package util

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)

	amountToken     = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)\s*(ribu|rb|k|juta|jt|m)?`)
	groupedThousand = regexp.MustCompile(`^\d{1,3}([.,]\d{3})+$`)
)

// ParseAmount reads a rupiah amount as people type it in chat:
// "2500", "2.500", "Rp 50.000", "50rb", "20k", "1.5jt", "1,5 juta",
// "1jt 500" (= 1.500.000) and "1jt 500rb".
func ParseAmount(s string) (decimal.Decimal, error) {
	in := strings.ToLower(strings.TrimSpace(s))
	in = strings.TrimPrefix(in, "rp.")
	in = strings.TrimPrefix(in, "rp")
	in = strings.TrimSpace(in)
	if in == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	total := decimal.Zero
	var prevUnit decimal.Decimal
	for in != "" {
		m := amountToken.FindStringSubmatch(in)
		if m == nil {
			return decimal.Zero, ErrInvalidAmount
		}
		num, unit := m[1], m[2]

		var (
			v   decimal.Decimal
			err error
		)
		if unit == "" {
			v, err = parsePlainNumber(num)
		} else {
			v, err = decimal.NewFromString(strings.ReplaceAll(num, ",", "."))
		}
		if err != nil {
			return decimal.Zero, ErrInvalidAmount
		}

		switch unit {
		case "ribu", "rb", "k":
			v = v.Mul(thousand)
			prevUnit = thousand
		case "juta", "jt", "m":
			v = v.Mul(million)
			prevUnit = million
		default:
			// "1jt 500": a bare remainder counts in the next lower unit
			if !prevUnit.IsZero() && v.LessThan(thousand) {
				v = v.Mul(prevUnit.Div(thousand))
			}
			prevUnit = decimal.Zero
		}
		total = total.Add(v)
		in = strings.TrimSpace(in[len(m[0]):])
	}
	return total, nil
}

// parsePlainNumber accepts "2500", "2.500", "1,500,000" and "12,5".
func parsePlainNumber(num string) (decimal.Decimal, error) {
	if groupedThousand.MatchString(num) {
		return decimal.NewFromString(strings.NewReplacer(".", "", ",", "").Replace(num))
	}
	if strings.Count(num, ".")+strings.Count(num, ",") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	return decimal.NewFromString(strings.ReplaceAll(num, ",", "."))
}

// FormatRupiah renders an amount the id-ID way, e.g. "Rp 1.500.000" or
// "-Rp 2.500,5".
func FormatRupiah(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	d = d.Round(2)

	intPart := d.Truncate(0).String()
	frac := strings.TrimRight(strings.TrimPrefix(d.Sub(d.Truncate(0)).StringFixed(2), "0."), "0")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := sign + "Rp " + b.String()
	if frac != "" {
		out += "," + frac
	}
	return out
}
