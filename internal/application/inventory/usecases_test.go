package inventory

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
)

var D = testutil.D

func TestCanonicalOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, CanonicalOrder([]string{"c", "a", "", "b", "a"}))
	assert.Empty(t, CanonicalOrder(nil))
}

func TestLedgerApplyDelta_RejectsOverdraw(t *testing.T) {
	f := testutil.New(t)
	p := f.FinishedGood("PAN", "2", "0", "1", "5")
	repos := f.Store.Repos()
	l := NewLedger(repos.Products, zerolog.Nop())

	_, err := l.ApplyDelta(f.Ctx, repos, Delta{Product: p, Quantity: D("-3"), Reason: entity.ReasonAdjustment})
	var ise *domain.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.True(t, ise.Requested.Equal(D("3")))
	assert.True(t, ise.Available.Equal(D("2")))

	_, err = l.ApplyDelta(f.Ctx, repos, Delta{Product: p, Quantity: D("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	mov, err := l.ApplyDelta(f.Ctx, repos, Delta{Product: p, Quantity: D("-2"), UnitCost: D("1.5"), Reason: entity.ReasonAdjustment})
	require.NoError(t, err)
	assert.Equal(t, entity.DirectionOUT, mov.Direction)
	assert.True(t, mov.Quantity.Equal(D("2")))
	assert.True(t, mov.TotalCost.Equal(D("3")))
	qty, err := l.GetQuantity(f.Ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, qty.IsZero())
}

func TestRegisterMovement(t *testing.T) {
	f := testutil.New(t)
	p := f.RawMaterial("AZUCAR", "10", "0", "2")
	repos := f.Store.Repos()
	uc := NewRegisterMovementUseCase(f.Store, repos, NewLedger(repos.Products, zerolog.Nop()), zerolog.Nop())

	_, err := uc.RegisterMovement(f.Ctx, MovementInputDTO{UserID: "u1", ProductID: p.ID, Type: MovementTypeIN, Quantity: D("10")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "unit_cost")

	mov, err := uc.RegisterMovement(f.Ctx, MovementInputDTO{UserID: "u1", ProductID: p.ID, Type: MovementTypeIN, Quantity: D("10"), UnitCost: testutil.DP("4")})
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonAdjustment, mov.Reason)
	got, err := repos.Products.GetByID(f.Ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Cost.Equal(D("3")))
	assert.True(t, got.QuantityOnHand.Equal(D("20")))

	_, err = uc.RegisterMovement(f.Ctx, MovementInputDTO{UserID: "u1", ProductID: p.ID, Type: MovementTypeADJUSTMENT, Quantity: D("-5")})
	require.NoError(t, err)
	_, err = uc.RegisterMovement(f.Ctx, MovementInputDTO{UserID: "u1", ProductID: p.ID, Type: MovementTypeOUT, Quantity: D("16")})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.True(t, f.Qty(p.ID).Equal(D("15")))

	_, err = uc.RegisterMovement(f.Ctx, MovementInputDTO{ProductID: "nada", Type: MovementTypeOUT, Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.RegisterMovement(f.Ctx, MovementInputDTO{ProductID: p.ID, Type: "MOVE", Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := uc.ListByProduct(f.Ctx, p.ID, nil, nil, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReturnsAndDiscards(t *testing.T) {
	f := testutil.New(t)
	p := f.FinishedGood("PAN", "5", "0", "1", "5")
	lot := f.FinishedLot(p.ID, "L1", testutil.Day(2025, 3, 1), "5", testutil.DP("0.8"))
	repos := f.Store.Repos()
	uc := NewReturnsUseCase(f.Store, repos, NewLedger(repos.Products, zerolog.Nop()), zerolog.Nop())

	mov, err := uc.DiscardFromLot(f.Ctx, "u1", lot.ID, dto.DiscardRequest{Quantity: D("2"), Reason: "vencido"})
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonDiscard, mov.Reason)
	assert.True(t, mov.UnitCost.Equal(D("0.8")))
	assert.True(t, f.Qty(p.ID).Equal(D("3")))
	assert.True(t, f.FinishedLotAvailable(lot.ID).Equal(D("3")))

	_, err = uc.DiscardFromLot(f.Ctx, "u1", lot.ID, dto.DiscardRequest{Quantity: D("4")})
	assert.ErrorIs(t, err, domain.ErrInsufficientBatchStock)
	_, err = uc.DiscardFromLot(f.Ctx, "u1", "nada", dto.DiscardRequest{Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ret, err := uc.RegisterReturn(f.Ctx, "u1", dto.RegisterReturnRequest{
		ProductID: p.ID, FinishedLotID: lot.ID, Quantity: D("1"), Reason: "mal empacado", Refund: D("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", ret.ResponsibleID)
	assert.True(t, f.Qty(p.ID).Equal(D("4")))
	assert.True(t, f.FinishedLotAvailable(lot.ID).Equal(D("4")))

	movs := f.Movements(p.ID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.ReasonReturn, movs[0].Reason)
	assert.Equal(t, ret.ID, movs[0].Links.ReturnID)

	_, err = uc.RegisterReturn(f.Ctx, "u1", dto.RegisterReturnRequest{ProductID: p.ID, FinishedLotID: "otro", Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.RegisterReturn(f.Ctx, "u1", dto.RegisterReturnRequest{ProductID: p.ID, Quantity: D("0"), Refund: D("-1")})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")
	assert.Contains(t, ve.Fields, "refund")
}

func TestRecipeUseCase(t *testing.T) {
	f := testutil.New(t)
	torta := f.FinishedGood("TORTA", "0", "0", "3", "12")
	flour := f.RawMaterial("HARINA", "11", "0.1", "1")
	egg := f.RawMaterial("HUEVO", "30", "0", "0.2")
	uc := NewRecipeUseCase(f.Store, f.Store.Repos(), NewRecipeResolver())

	_, err := uc.DefineRecipe(f.Ctx, torta.ID, dto.DefineRecipeRequest{Lines: []dto.RecipeLineRequest{
		{RawMaterialID: flour.ID, QuantityPerUnit: D("1")},
		{RawMaterialID: egg.ID, QuantityPerUnit: D("4")},
	}})
	require.NoError(t, err)

	// harina: floor(11 / 1.1) = 10; huevo: floor(30 / 4) = 7
	res, err := uc.ProducibleUnits(f.Ctx, torta.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Units.Equal(D("7")))

	// redefinir reemplaza la receta activa
	_, err = uc.DefineRecipe(f.Ctx, torta.ID, dto.DefineRecipeRequest{Lines: []dto.RecipeLineRequest{
		{RawMaterialID: flour.ID, QuantityPerUnit: D("2")},
	}})
	require.NoError(t, err)
	res, err = uc.ProducibleUnits(f.Ctx, torta.ID, "")
	require.NoError(t, err)
	assert.True(t, res.Units.Equal(D("5")))

	_, err = uc.DefineRecipe(f.Ctx, torta.ID, dto.DefineRecipeRequest{Lines: []dto.RecipeLineRequest{
		{RawMaterialID: torta.ID, QuantityPerUnit: D("1")},
		{RawMaterialID: flour.ID, QuantityPerUnit: D("0")},
	}})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "lines[0].raw_material_id")
	assert.Contains(t, ve.Fields, "lines[1].quantity_per_unit")

	_, err = uc.ProducibleUnits(f.Ctx, flour.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.DefineRecipe(f.Ctx, "nada", dto.DefineRecipeRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplenishment(t *testing.T) {
	f := testutil.New(t)
	low := f.RawMaterial("HARINA", "1", "0", "2")
	mid := f.RawMaterial("AZUCAR", "6", "0", "1")
	f.RawMaterial("SAL", "50", "0", "1")
	setReorder(t, f, low.ID, "10")
	setReorder(t, f, mid.ID, "8")

	uc := NewReplenishmentUseCase(f.Store.Repos().Products, f.Store.Repos().Lots)
	list, err := uc.GenerateReplenishmentList(f.Ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, low.ID, list[0].ProductID)
	assert.Equal(t, 1, list[0].Priority)
	assert.True(t, list[0].SuggestedOrderQty.Equal(D("14")))
	assert.True(t, list[0].EstimatedOrderCost.Equal(D("28")))
	assert.Equal(t, mid.ID, list[1].ProductID)
	assert.True(t, list[1].SuggestedOrderQty.Equal(D("6")))
}

func TestExpiringLots(t *testing.T) {
	f := testutil.New(t)
	flour := f.RawMaterial("HARINA", "30", "0", "1")
	now := testutil.Day(2025, 3, 10)
	soon := f.ExpiringRawLot(flour.ID, "H1", testutil.Day(2025, 2, 1), testutil.Day(2025, 3, 12), "10")
	later := f.ExpiringRawLot(flour.ID, "H2", testutil.Day(2025, 2, 2), testutil.Day(2025, 3, 16), "10")
	f.RawLot(flour.ID, "H3", testutil.Day(2025, 2, 3), "10", nil)

	uc := NewReplenishmentUseCase(f.Store.Repos().Products, f.Store.Repos().Lots)
	uc.now = func() time.Time { return now }

	lots, err := uc.ExpiringLots(f.Ctx, 0)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, soon.ID, lots[0].LotID)
	assert.Equal(t, 2, lots[0].DaysLeft)
	assert.True(t, lots[0].SuggestedDiscount.Equal(D("0.3")))
	assert.Equal(t, 6, lots[1].DaysLeft)
	assert.True(t, lots[1].SuggestedDiscount.Equal(D("0.1")))

	lots, err = uc.ExpiringLots(f.Ctx, 3)
	require.NoError(t, err)
	assert.Len(t, lots, 1)
}

func setReorder(t *testing.T, f *testutil.Fixture, id, reorder string) {
	t.Helper()
	repos := f.Store.Repos()
	p, err := repos.Products.GetByID(f.Ctx, id)
	require.NoError(t, err)
	p.ReorderPoint = D(reorder)
	require.NoError(t, repos.Products.Update(f.Ctx, p))
}
