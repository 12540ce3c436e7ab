package summary

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout renders refresh times the way HTTP dates are written.
const TimestampLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

const notAvailable = "N/A"

var units = []struct {
	size   decimal.Decimal
	suffix string
}{
	{decimal.New(1, 12), "T"},
	{decimal.New(1, 9), "B"},
	{decimal.New(1, 6), "M"},
}

// FormatAmount abbreviates large amounts with T, B or M and two decimals.
// An amount takes the largest unit in which it rounds to at least 1.00, so
// 999999.995 is 1.00M rather than 1000000.00. NULL renders as N/A.
func FormatAmount(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return notAvailable
	}
	d := amount.Decimal
	one := decimal.NewFromInt(1)
	for _, u := range units {
		scaled := d.Div(u.size).Round(2)
		if scaled.Abs().GreaterThanOrEqual(one) {
			return scaled.StringFixed(2) + u.suffix
		}
	}
	return d.StringFixed(2)
}

// FormatTimestamp renders t in UTC, or N/A when t is nil.
func FormatTimestamp(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.UTC().Format(TimestampLayout)
}
