package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
)

func TestAllocate_ProductWithoutLotsUsesAggregate(t *testing.T) {
	f := testutil.New(t)
	sugar := f.RawMaterial("AZUCAR", "20", "0", "2.5")
	a := NewLotAllocator()
	repos := f.Store.Repos()

	allocs, err := a.Allocate(f.Ctx, repos, sugar, D("7"), time.Now())
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Pseudo())
	assert.True(t, allocs[0].Quantity.Equal(D("7")))
	assert.True(t, allocs[0].UnitCost.Equal(D("2.5")))

	// sin lotes no hay límite por lote: la cantidad pedida puede superar el stock
	allocs, err = a.Allocate(f.Ctx, repos, sugar, D("50"), time.Now())
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Pseudo())

	require.NoError(t, a.Consume(f.Ctx, repos, sugar, allocs, time.Now()))
	assert.True(t, f.Qty(sugar.ID).Equal(D("20")), "consumir la asignación agregada no toca el stock")
}

func TestAllocate_CostFromHistoryFallsBackToEarliest(t *testing.T) {
	f := testutil.New(t)
	flour := f.RawMaterial("HARINA", "10", "0", "9")
	old := f.RawLot(flour.ID, "H-01", testutil.Day(2025, 1, 5), "5", nil)
	recent := f.RawLot(flour.ID, "H-03", testutil.Day(2025, 3, 10), "5", nil)
	f.PriceHistory(flour.ID, "4", testutil.Day(2025, 2, 1))
	f.PriceHistory(flour.ID, "5", testutil.Day(2025, 3, 1))

	allocs, err := NewLotAllocator().Allocate(f.Ctx, f.Store.Repos(), flour, D("8"), time.Now())
	require.NoError(t, err)
	require.Len(t, allocs, 2)

	// el lote de enero es anterior a todo el historial: se toma el registro más antiguo
	assert.Equal(t, old.ID, allocs[0].LotID)
	assert.True(t, allocs[0].Quantity.Equal(D("5")))
	assert.True(t, allocs[0].UnitCost.Equal(D("4")), "got %s", allocs[0].UnitCost)

	// el de marzo usa el último registro en o antes de su fecha
	assert.Equal(t, recent.ID, allocs[1].LotID)
	assert.True(t, allocs[1].Quantity.Equal(D("3")))
	assert.True(t, allocs[1].UnitCost.Equal(D("5")))
}

func TestAllocate_CostPrecedence(t *testing.T) {
	f := testutil.New(t)
	milk := f.RawMaterial("LECHE", "10", "0", "9")
	snap := f.RawLot(milk.ID, "L-01", testutil.Day(2025, 1, 1), "2", testutil.DP("1.25"))
	bare := f.RawLot(milk.ID, "L-02", testutil.Day(2025, 1, 2), "2", nil)

	allocs, err := NewLotAllocator().Allocate(f.Ctx, f.Store.Repos(), milk, D("4"), time.Now())
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, snap.ID, allocs[0].LotID)
	assert.True(t, allocs[0].UnitCost.Equal(D("1.25")), "el costo del lote manda")
	assert.Equal(t, bare.ID, allocs[1].LotID)
	assert.True(t, allocs[1].UnitCost.Equal(D("9")), "sin lote ni historial queda el costo del producto")
}

func TestAllocate_InsufficientAndInvalid(t *testing.T) {
	f := testutil.New(t)
	flour := f.RawMaterial("HARINA", "10", "0", "1")
	f.RawLot(flour.ID, "H-01", testutil.Day(2025, 1, 5), "3", nil)
	a := NewLotAllocator()

	_, err := a.Allocate(f.Ctx, f.Store.Repos(), flour, D("4"), time.Now())
	var be *domain.InsufficientBatchStockError
	require.ErrorAs(t, err, &be)
	assert.True(t, be.AvailableInLots.Equal(D("3")))

	_, err = a.Allocate(f.Ctx, f.Store.Repos(), flour, D("0"), time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
