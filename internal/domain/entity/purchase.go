package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase compra a proveedor.
type Purchase struct {
	ID         string
	SupplierID string
	Date       time.Time
	Total      decimal.Decimal
	CreatedBy  string
	Lines      []PurchaseLine
	CreatedAt  time.Time
}

// PurchaseLine línea de compra; LotCode y ExpiryDate aplican a materia prima.
type PurchaseLine struct {
	ID         string
	PurchaseID string
	ProductID  string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	LotID      string
	LotCode    string
	ExpiryDate *time.Time
}
