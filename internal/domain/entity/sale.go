package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale cabecera de venta. Total = Σ cantidad solicitada × precio, redondeado a 2 decimales.
type Sale struct {
	ID         string
	Date       time.Time
	CustomerID string
	SellerID   string
	Total      decimal.Decimal
	Lines      []SaleLine
	CreatedAt  time.Time
}

// SaleLine una línea por lote consumido.
type SaleLine struct {
	ID            string
	SaleID        string
	ProductID     string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	UnitCost      decimal.Decimal
	FinishedLotID string
	LotCode       string
}
