// Package testutil datos de prueba sobre el store en memoria.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/infrastructure/memory"
)

// D atajo para decimales en pruebas.
func D(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// DP puntero a decimal.
func DP(s string) *decimal.Decimal {
	d := D(s)
	return &d
}

// Day fecha a medianoche UTC.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Fixture store en memoria con helpers de siembra.
type Fixture struct {
	T     *testing.T
	Ctx   context.Context
	Store *memory.Store
}

// New crea un store vacío.
func New(t *testing.T) *Fixture {
	t.Helper()
	return &Fixture{T: t, Ctx: context.Background(), Store: memory.NewStore()}
}

// FinishedGood crea un producto final con stock, stock mínimo, costo y precio.
func (f *Fixture) FinishedGood(code, qty, reorder, cost, price string) *entity.Product {
	f.T.Helper()
	p := &entity.Product{
		ID: uuid.New().String(), Code: code, Name: code, UnitMeasure: "unit",
		QuantityOnHand: D(qty), ReorderPoint: D(reorder), Cost: D(cost), Price: D(price),
		Kind: entity.FinishedGood{YieldFactor: decimal.NewFromInt(1)}, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(f.T, f.Store.Repos().Products.Create(f.Ctx, p))
	return p
}

// RawMaterial crea una materia prima con stock, merma y costo.
func (f *Fixture) RawMaterial(code, qty, waste, cost string) *entity.Product {
	f.T.Helper()
	p := &entity.Product{
		ID: uuid.New().String(), Code: code, Name: code, UnitMeasure: "kg",
		QuantityOnHand: D(qty), Cost: D(cost),
		Kind: entity.RawMaterial{WastePercent: D(waste)}, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(f.T, f.Store.Repos().Products.Create(f.Ctx, p))
	return p
}

// FinishedLot crea un lote de producto final. unitCost nil deja el lote sin snapshot de costo.
func (f *Fixture) FinishedLot(productID, code string, produced time.Time, qty string, unitCost *decimal.Decimal) *entity.FinishedGoodLot {
	f.T.Helper()
	l := &entity.FinishedGoodLot{
		ID: uuid.New().String(), Code: code, ProductID: productID, ProducedDate: produced,
		ProducedQuantity: D(qty), UnitCost: unitCost, CreatedAt: time.Now(),
	}
	require.NoError(f.T, f.Store.Repos().Lots.CreateFinishedLot(f.Ctx, l))
	return l
}

// RawLot crea un lote de materia prima.
func (f *Fixture) RawLot(productID, code string, received time.Time, qty string, unitCost *decimal.Decimal) *entity.RawMaterialLot {
	f.T.Helper()
	l := &entity.RawMaterialLot{
		ID: uuid.New().String(), Code: code, ProductID: productID, ReceivedDate: received,
		InitialQuantity: D(qty), UnitCost: unitCost, CreatedAt: time.Now(),
	}
	require.NoError(f.T, f.Store.Repos().Lots.CreateRawLot(f.Ctx, l))
	return l
}

// ExpiringRawLot siembra un lote de materia prima con fecha de vencimiento.
func (f *Fixture) ExpiringRawLot(productID, code string, received, expiry time.Time, qty string) *entity.RawMaterialLot {
	f.T.Helper()
	l := &entity.RawMaterialLot{
		ID: uuid.New().String(), Code: code, ProductID: productID, ReceivedDate: received,
		ExpiryDate: &expiry, InitialQuantity: D(qty), CreatedAt: time.Now(),
	}
	require.NoError(f.T, f.Store.Repos().Lots.CreateRawLot(f.Ctx, l))
	return l
}

// Recipe agrega una línea activa de receta.
func (f *Fixture) Recipe(finishedID, rawID, perUnit, batchCode string) {
	f.T.Helper()
	require.NoError(f.T, f.Store.Repos().Recipes.Create(f.Ctx, &entity.RecipeLine{
		ID: uuid.New().String(), FinishedProductID: finishedID, RawMaterialID: rawID,
		QuantityPerUnit: D(perUnit), BatchCode: batchCode, Active: true, CreatedAt: time.Now(),
	}))
}

// PriceHistory agrega un registro de historial de costo.
func (f *Fixture) PriceHistory(productID, cost string, at time.Time) {
	f.T.Helper()
	require.NoError(f.T, f.Store.Repos().Prices.Create(f.Ctx, &entity.PriceHistory{
		ID: uuid.New().String(), ProductID: productID, Cost: D(cost), RecordedAt: at,
	}))
}

// Qty stock agregado actual.
func (f *Fixture) Qty(productID string) decimal.Decimal {
	f.T.Helper()
	p, err := f.Store.Repos().Products.GetByID(f.Ctx, productID)
	require.NoError(f.T, err)
	require.NotNil(f.T, p)
	return p.QuantityOnHand
}

// Movements movimientos del producto (más reciente primero).
func (f *Fixture) Movements(productID string) []*entity.InventoryMovement {
	f.T.Helper()
	list, err := f.Store.Repos().Movements.ListByProduct(f.Ctx, productID, nil, nil, 0, 0)
	require.NoError(f.T, err)
	return list
}

// FinishedLotAvailable disponible actual del lote.
func (f *Fixture) FinishedLotAvailable(lotID string) decimal.Decimal {
	f.T.Helper()
	l, err := f.Store.Repos().Lots.GetFinishedLot(f.Ctx, lotID)
	require.NoError(f.T, err)
	require.NotNil(f.T, l)
	return l.Available()
}

// RawLotAvailable disponible actual del lote.
func (f *Fixture) RawLotAvailable(lotID string) decimal.Decimal {
	f.T.Helper()
	l, err := f.Store.Repos().Lots.GetRawLot(f.Ctx, lotID)
	require.NoError(f.T, err)
	require.NotNil(f.T, l)
	return l.Available()
}
