package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dirección del movimiento.
const (
	DirectionIN  = "IN"
	DirectionOUT = "OUT"
)

// Motivos de movimiento.
const (
	ReasonSale             = "SALE"
	ReasonSaleConsumption  = "SALE_CONSUMPTION"
	ReasonPurchase         = "PURCHASE"
	ReasonProductionInput  = "PRODUCTION_INPUT"
	ReasonProductionOutput = "PRODUCTION_OUTPUT"
	ReasonReturn           = "RETURN"
	ReasonDiscard          = "DISCARD"
	ReasonAdjustment       = "ADJUSTMENT"
)

// MovementLinks referencias opcionales del movimiento a su documento origen.
type MovementLinks struct {
	SaleID       string
	PurchaseID   string
	ReturnID     string
	AdjustmentID string
	LotID        string
}

// InventoryMovement movimiento inmutable del ledger. Quantity siempre > 0; el signo lo da Direction.
type InventoryMovement struct {
	ID            string
	TransactionID string
	ProductID     string
	Direction     string
	Quantity      decimal.Decimal
	Reason        string
	UnitCost      decimal.Decimal
	TotalCost     decimal.Decimal
	Links         MovementLinks
	Date          time.Time
	CreatedAt     time.Time
	CreatedBy     string
}

// SignedQuantity cantidad con signo (negativa para OUT).
func (m *InventoryMovement) SignedQuantity() decimal.Decimal {
	if m.Direction == DirectionOUT {
		return m.Quantity.Neg()
	}
	return m.Quantity
}
