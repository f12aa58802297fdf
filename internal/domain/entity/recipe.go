package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecipeLine línea de receta (composición): materia prima por unidad de producto final.
// BatchCode vacío es la receta por defecto.
type RecipeLine struct {
	ID                string
	FinishedProductID string
	RawMaterialID     string
	QuantityPerUnit   decimal.Decimal
	BatchCode         string
	Active            bool
	CreatedAt         time.Time
}
