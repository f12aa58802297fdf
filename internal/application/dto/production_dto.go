package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterProductionRequest body para POST /api/production.
type RegisterProductionRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  decimal.Decimal `json:"quantity" validate:"dgt=0"`
	Date      *time.Time      `json:"date"`
	BatchCode string          `json:"batch_code"`
	LotCode   string          `json:"lot_code"`
}

// ProductionResponse lote producido y consumos de materia prima.
type ProductionResponse struct {
	LotID    string             `json:"lot_id"`
	LotCode  string             `json:"lot_code"`
	Quantity decimal.Decimal    `json:"quantity"`
	UnitCost decimal.Decimal    `json:"unit_cost"`
	Usages   []LotUsageResponse `json:"usages"`
}

// LotUsageResponse consumo de un lote de materia prima.
type LotUsageResponse struct {
	RawLotID  string          `json:"raw_lot_id,omitempty"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// RecipeLineRequest línea de receta.
type RecipeLineRequest struct {
	RawMaterialID   string          `json:"raw_material_id" validate:"required,uuid"`
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit" validate:"dgt=0"`
}

// DefineRecipeRequest body para PUT /api/recipes/:productId. Reemplaza la receta activa del alcance.
type DefineRecipeRequest struct {
	BatchCode string              `json:"batch_code"`
	Lines     []RecipeLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ProducibleResponse unidades producibles con el stock actual.
type ProducibleResponse struct {
	ProductID string          `json:"product_id"`
	BatchCode string          `json:"batch_code,omitempty"`
	Units     decimal.Decimal `json:"units"`
}
