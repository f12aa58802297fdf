package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLineRequest una línea solicitada. BatchCode elige la receta del lote, si existe.
type SaleLineRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" validate:"dgt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"dgte=0"`
	BatchCode string          `json:"batch_code"`
}

// CreateSaleRequest body para POST /api/sales. Date vacío = ahora.
type CreateSaleRequest struct {
	CustomerID string            `json:"customer_id" validate:"omitempty,uuid"`
	Date       *time.Time        `json:"date"`
	Lines      []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// SaleLineResponse una línea persistida (una por lote consumido).
type SaleLineResponse struct {
	ProductID     string          `json:"product_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	FinishedLotID string          `json:"finished_lot_id,omitempty"`
	LotCode       string          `json:"lot_code,omitempty"`
}

// SaleResponse salida de una venta.
type SaleResponse struct {
	ID         string             `json:"id"`
	Date       time.Time          `json:"date"`
	CustomerID string             `json:"customer_id,omitempty"`
	SellerID   string             `json:"seller_id"`
	Total      decimal.Decimal    `json:"total"`
	Lines      []SaleLineResponse `json:"lines"`
}
