package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterialLot lote de materia prima recibido en una compra.
// UnitCost es opcional (snapshot al recibir).
type RawMaterialLot struct {
	ID               string
	Code             string
	ProductID        string
	ReceivedDate     time.Time
	ExpiryDate       *time.Time
	InitialQuantity  decimal.Decimal
	ConsumedQuantity decimal.Decimal
	ExhaustedDate    *time.Time
	UnitCost         *decimal.Decimal
	CreatedAt        time.Time
}

// Available cantidad disponible del lote.
func (l *RawMaterialLot) Available() decimal.Decimal {
	return l.InitialQuantity.Sub(l.ConsumedQuantity)
}

// FinishedGoodLot lote de producto final producido.
type FinishedGoodLot struct {
	ID                string
	Code              string
	ProductID         string
	ProducedDate      time.Time
	ProducedQuantity  decimal.Decimal
	SoldQuantity      decimal.Decimal
	ReturnedQuantity  decimal.Decimal
	DiscardedQuantity decimal.Decimal
	UnitCost          *decimal.Decimal
	CreatedAt         time.Time
}

// Available producido - vendido - descartado + devuelto.
func (l *FinishedGoodLot) Available() decimal.Decimal {
	return l.ProducedQuantity.Sub(l.SoldQuantity).Sub(l.DiscardedQuantity).Add(l.ReturnedQuantity)
}

// LotUsage consumo de un lote de materia prima en una corrida de producción.
type LotUsage struct {
	ID            string
	RawLotID      string
	FinishedLotID string
	Quantity      decimal.Decimal
	CreatedAt     time.Time
}
