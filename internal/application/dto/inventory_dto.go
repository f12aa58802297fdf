package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// IN exige UnitCost; ADJUSTMENT acepta cantidad con signo.
type RegisterMovementRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Type      string           `json:"type" validate:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	Direction     string          `json:"direction"`
	Reason        string          `json:"reason"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	SaleID        string          `json:"sale_id,omitempty"`
	PurchaseID    string          `json:"purchase_id,omitempty"`
	ReturnID      string          `json:"return_id,omitempty"`
	LotID         string          `json:"lot_id,omitempty"`
	Date          time.Time       `json:"date"`
	CreatedBy     string          `json:"created_by,omitempty"`
}

// ReplenishmentSuggestionDTO producto bajo su stock mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductID          string          `json:"product_id"`
	Code               string          `json:"code"`
	ProductName        string          `json:"product_name"`
	CurrentStock       decimal.Decimal `json:"current_stock"`
	ReorderPoint       decimal.Decimal `json:"reorder_point"`
	IdealStock         decimal.Decimal `json:"ideal_stock"`          // ReorderPoint * 1.5
	SuggestedOrderQty  decimal.Decimal `json:"suggested_order_qty"`  // IdealStock - CurrentStock
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}

// ExpiringLotDTO lote de materia prima próximo a vencer.
type ExpiringLotDTO struct {
	LotID             string          `json:"lot_id"`
	LotCode           string          `json:"lot_code"`
	ProductID         string          `json:"product_id"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	DaysLeft          int             `json:"days_left"`
	Available         decimal.Decimal `json:"available"`
	SuggestedDiscount decimal.Decimal `json:"suggested_discount"`
}

// RegisterReturnRequest body para POST /api/returns.
type RegisterReturnRequest struct {
	ProductID     string          `json:"product_id" validate:"required,uuid"`
	FinishedLotID string          `json:"finished_lot_id" validate:"omitempty,uuid"`
	Quantity      decimal.Decimal `json:"quantity" validate:"dgt=0"`
	Reason        string          `json:"reason" validate:"required,max=200"`
	Refund        decimal.Decimal `json:"refund" validate:"dgte=0"`
	Substitution  bool            `json:"substitution"`
	Date          *time.Time      `json:"date"`
}

// DiscardRequest body para POST /api/lots/:id/discard.
type DiscardRequest struct {
	Quantity decimal.Decimal `json:"quantity" validate:"dgt=0"`
	Reason   string          `json:"reason" validate:"max=200"`
}
