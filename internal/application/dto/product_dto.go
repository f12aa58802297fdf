package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// Kind: RAW_MATERIAL o FINISHED_GOOD.
type CreateProductRequest struct {
	Code         string          `json:"code" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category" validate:"max=100"`
	Family       string          `json:"family" validate:"max=100"`
	UnitMeasure  string          `json:"unit_measure" validate:"required"`
	Kind         string          `json:"kind" validate:"required,oneof=RAW_MATERIAL FINISHED_GOOD"`
	Price        decimal.Decimal `json:"price" validate:"dgte=0"`
	Cost         decimal.Decimal `json:"cost" validate:"dgte=0"`
	ReorderPoint decimal.Decimal `json:"reorder_point" validate:"dgte=0"`
	WastePercent decimal.Decimal `json:"waste_percent" validate:"dgte=0"`
	YieldFactor  decimal.Decimal `json:"yield_factor" validate:"dgte=0"`
	SupplierID   string          `json:"supplier_id"`
}

// UpdatePriceRequest cambio de precio y/o costo (queda en el historial).
type UpdatePriceRequest struct {
	Price *decimal.Decimal `json:"price"`
	Cost  *decimal.Decimal `json:"cost"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Family         string          `json:"family"`
	UnitMeasure    string          `json:"unit_measure"`
	Kind           string          `json:"kind"`
	Price          decimal.Decimal `json:"price"`
	Cost           decimal.Decimal `json:"cost"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	ReorderPoint   decimal.Decimal `json:"reorder_point"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateCustomerRequest entrada para crear un cliente.
type CreateCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Contact string `json:"contact" validate:"max=100"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=300"`
}

// CustomerResponse salida de un cliente.
type CustomerResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Address string `json:"address"`
}
