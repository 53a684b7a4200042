// Package models provides the data structures used throughout the application.
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Transaction represents a single posted credit card transaction taken
// from a DKB account statement export.
type Transaction struct {
	BookingDate string          `csv:"BookingDate"` // Date in DD.MM.YYYY format
	ValutaDate  string          `csv:"ValutaDate"`  // Value date in DD.MM.YYYY format
	Description string          `csv:"Description"` // Description of the transaction
	Amount      decimal.Decimal `csv:"Amount"`      // Amount as decimal value, sign preserved
	Info        string          `csv:"Info"`        // Additional info (e.g. foreign currency)
	Category    string          `csv:"Category"`    // Transaction category
}

// StandardizeAmount converts a German-formatted amount string into a
// parseable decimal representation: whitespace is stripped, thousands
// separator dots are removed and the decimal comma becomes a dot.
//
//	"1.234,56" -> "1234.56"
//	"-45,00"   -> "-45.00"
func StandardizeAmount(amountStr string) string {
	amount := strings.TrimSpace(amountStr)
	amount = strings.ReplaceAll(amount, ".", "")
	amount = strings.ReplaceAll(amount, ",", ".")
	return amount
}

// ParseAmount parses a German-formatted amount string into a decimal.
// The scale of the input survives in the decimal's exponent, so
// "-45,00" can be rendered back as "-45.00" via FormatAmount.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	return decimal.NewFromString(StandardizeAmount(amountStr))
}

// FormatAmount renders an amount with the scale it was parsed with.
// decimal's String() trims trailing zeros ("-45.00" would become
// "-45"), which must not leak into emitted records.
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}
