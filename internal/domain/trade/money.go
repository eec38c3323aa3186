package trade

import (
	"strings"

	"github.com/shopspring/decimal"
)

// changeEpsilon is the tolerance used when deciding whether a monetary
// field changed between an import row and the stored value. External data
// round-trips through lossy intermediate formats, so exact equality would
// flag spurious updates. Intentional; do not tighten.
var changeEpsilon = decimal.NewFromFloat(0.01)

// NormalizeAmount parses a raw monetary string into a fixed 2-decimal
// representation. Non-numeric noise (currency signs, thousands
// separators) is stripped before a second parse attempt. The bool is
// false when no numeric value could be recovered; callers store "0.00"
// with a validity flag instead of rejecting the row.
func NormalizeAmount(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0.00", false
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		return d.StringFixed(2), true
	}
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if d, err := decimal.NewFromString(b.String()); err == nil {
		return d.StringFixed(2), true
	}
	return "0.00", false
}

// AmountChanged reports whether two normalized amounts differ by at least
// the change epsilon.
func AmountChanged(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return a != b
	}
	return da.Sub(db).Abs().GreaterThanOrEqual(changeEpsilon)
}

// AmountPositive reports whether a normalized amount is greater than zero
func AmountPositive(a string) bool {
	d, err := decimal.NewFromString(a)
	if err != nil {
		return false
	}
	return d.GreaterThan(decimal.Zero)
}

// AmountLess reports whether amount a is strictly less than amount b
func AmountLess(a, b string) bool {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return false
	}
	return da.LessThan(db)
}
