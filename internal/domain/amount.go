package domain

import "github.com/shopspring/decimal"

// FormatAmount renders an amount as an exact two-decimal string, the wire
// format the remote ledger expects. Decimal strings avoid the float round-trip
// drift that repeated syncs would otherwise accumulate.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatAmountDisplay renders an amount for history notes, e.g. "$4.50".
func FormatAmountDisplay(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
