// Package taxes holds the jurisdiction-independent tax logic: currency
// handling, due-date calendars, status classification, history normalization
// and record assembly. Adapters feed it raw amounts; it never touches a page.
package taxes

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is an amount in cents.
type Money int64

// Tolerance is the largest difference treated as "equal" when reconciling
// amounts observed in different tables.
const Tolerance Money = 100

var printer = message.NewPrinter(language.English)

// ParseMoney strips everything except digits, sign and decimal point and
// parses what remains. Unparsable or empty input yields zero.
func ParseMoney(raw string) Money {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Money(math.Round(f * 100))
}

// Dollars builds a Money from a float dollar amount.
func Dollars(f float64) Money {
	return Money(math.Round(f * 100))
}

// Abs returns the unsigned amount.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// Positive reports whether the amount is above zero.
func (m Money) Positive() bool { return m > 0 }

// Near reports whether two amounts are within Tolerance of each other.
func (m Money) Near(other Money) bool {
	return (m - other).Abs() <= Tolerance
}

// String renders the amount sign-free as "$1,234.56".
func (m Money) String() string {
	a := m.Abs()
	whole := int64(a) / 100
	frac := int64(a) % 100
	return "$" + printer.Sprintf("%d", whole) + fmt.Sprintf(".%02d", frac)
}

// NormalizeCurrency re-renders a raw currency string in canonical form.
// It is idempotent: NormalizeCurrency(NormalizeCurrency(s)) == NormalizeCurrency(s).
func NormalizeCurrency(raw string) string {
	return ParseMoney(raw).String()
}

// Sum adds the amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}
