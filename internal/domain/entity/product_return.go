package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductReturn devolución de producto final por un cliente.
type ProductReturn struct {
	ID            string
	ProductID     string
	FinishedLotID string
	Quantity      decimal.Decimal
	Reason        string
	Refund        decimal.Decimal
	Substitution  bool
	Date          time.Time
	ResponsibleID string
	CreatedAt     time.Time
}
