package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseLineRequest línea de compra. LotCode y ExpiryDate aplican a materia prima.
type PurchaseLineRequest struct {
	ProductID  string          `json:"product_id" validate:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity" validate:"dgt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"dgte=0"`
	LotCode    string          `json:"lot_code"`
	ExpiryDate *time.Time      `json:"expiry_date"`
}

// CreatePurchaseRequest body para POST /api/purchases.
type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id"`
	Date       *time.Time            `json:"date"`
	Lines      []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PurchaseResponse salida de una compra.
type PurchaseResponse struct {
	ID         string          `json:"id"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Date       time.Time       `json:"date"`
	Total      decimal.Decimal `json:"total"`
	LotIDs     []string        `json:"lot_ids,omitempty"`
}
