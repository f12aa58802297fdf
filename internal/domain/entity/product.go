package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductKind distingue materia prima de producto final. Es una variante cerrada:
// solo RawMaterial y FinishedGood la implementan.
type ProductKind interface {
	isProductKind()
	KindName() string
}

// Nombres de tipo persistidos.
const (
	KindRawMaterial  = "RAW_MATERIAL"
	KindFinishedGood = "FINISHED_GOOD"
)

// RawMaterial materia prima; WastePercent es la merma esperada (0.05 = 5%).
type RawMaterial struct {
	WastePercent decimal.Decimal
}

func (RawMaterial) isProductKind() {}
func (RawMaterial) KindName() string { return KindRawMaterial }

// FinishedGood producto final; YieldFactor unidades obtenidas por unidad de receta.
type FinishedGood struct {
	YieldFactor decimal.Decimal
}

func (FinishedGood) isProductKind() {}
func (FinishedGood) KindName() string { return KindFinishedGood }

// Product producto del inventario. QuantityOnHand es el agregado materializado y nunca es negativo.
type Product struct {
	ID             string
	Code           string
	Name           string
	Category       string
	Family         string
	UnitMeasure    string
	Price          decimal.Decimal // precio de venta
	Cost           decimal.Decimal // costo promedio ponderado
	QuantityOnHand decimal.Decimal
	ReorderPoint   decimal.Decimal // stock mínimo
	SupplierID     string
	Kind           ProductKind
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsRawMaterial indica si el producto es materia prima.
func (p *Product) IsRawMaterial() bool {
	_, ok := p.Kind.(RawMaterial)
	return ok
}

// IsFinishedGood indica si el producto es producto final.
func (p *Product) IsFinishedGood() bool {
	_, ok := p.Kind.(FinishedGood)
	return ok
}

// WasteFactor devuelve 1 + merma; 1 para productos finales.
func (p *Product) WasteFactor() decimal.Decimal {
	if rm, ok := p.Kind.(RawMaterial); ok {
		return decimal.NewFromInt(1).Add(rm.WastePercent)
	}
	return decimal.NewFromInt(1)
}

// Yield devuelve el factor de rendimiento; 1 si no aplica o no está definido.
func (p *Product) Yield() decimal.Decimal {
	if fg, ok := p.Kind.(FinishedGood); ok && fg.YieldFactor.IsPositive() {
		return fg.YieldFactor
	}
	return decimal.NewFromInt(1)
}

// KindFromName reconstruye la variante desde su forma persistida.
func KindFromName(name string, waste, yield decimal.Decimal) ProductKind {
	if name == KindRawMaterial {
		return RawMaterial{WastePercent: waste}
	}
	return FinishedGood{YieldFactor: yield}
}

// KindParams devuelve (nombre, merma, rendimiento) para persistir la variante.
func KindParams(k ProductKind) (string, decimal.Decimal, decimal.Decimal) {
	switch v := k.(type) {
	case RawMaterial:
		return KindRawMaterial, v.WastePercent, decimal.NewFromInt(1)
	case FinishedGood:
		y := v.YieldFactor
		if y.IsZero() {
			y = decimal.NewFromInt(1)
		}
		return KindFinishedGood, decimal.Zero, y
	default:
		return KindFinishedGood, decimal.Zero, decimal.NewFromInt(1)
	}
}

// PriceHistory registra cada cambio de precio o costo de un producto.
type PriceHistory struct {
	ID         string
	ProductID  string
	Price      decimal.Decimal
	Cost       decimal.Decimal
	RecordedAt time.Time
}
