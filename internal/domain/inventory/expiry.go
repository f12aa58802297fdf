package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpiryDiscount descuento sugerido según días para vencer.
func ExpiryDiscount(daysLeft int) decimal.Decimal {
	switch {
	case daysLeft <= 0:
		return decimal.RequireFromString("0.5")
	case daysLeft <= 3:
		return decimal.RequireFromString("0.3")
	case daysLeft <= 7:
		return decimal.RequireFromString("0.1")
	default:
		return decimal.Zero
	}
}

// DaysUntil días calendario entre from y to (negativo si ya pasó).
func DaysUntil(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// SuggestedReorder cantidad sugerida para reponer: stock ideal (1.5 × mínimo) menos disponible.
func SuggestedReorder(onHand, reorderPoint decimal.Decimal) decimal.Decimal {
	ideal := reorderPoint.Mul(decimal.RequireFromString("1.5"))
	s := ideal.Sub(onHand)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}
