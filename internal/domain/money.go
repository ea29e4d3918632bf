package domain

import "github.com/shopspring/decimal"

// ValidAmount reports whether amount can be used in a money movement.
// Every mutating operation applies the same rule: strictly positive.
// Non-numeric input never reaches this point; it is rejected when the
// amount string is parsed at the API boundary.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive()
}
