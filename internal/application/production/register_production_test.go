package production

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
)

var D = testutil.D

func newUseCase(f *testutil.Fixture) *RegisterProductionUseCase {
	repos := f.Store.Repos()
	return NewRegisterProductionUseCase(f.Store, repos,
		inventory.NewLedger(repos.Products, zerolog.Nop()),
		inventory.NewLotAllocator(), inventory.NewRecipeResolver(), zerolog.Nop())
}

func TestRegisterProduction_ConsumesFIFOAndTracesLots(t *testing.T) {
	f := testutil.New(t)
	torta := f.FinishedGood("TORTA", "0", "0", "3", "12")
	flour := f.RawMaterial("HARINA", "10", "0", "1")
	h1 := f.RawLot(flour.ID, "H1", testutil.Day(2025, 1, 1), "4", testutil.DP("0.9"))
	h2 := f.RawLot(flour.ID, "H2", testutil.Day(2025, 1, 5), "6", testutil.DP("1.1"))
	f.Recipe(torta.ID, flour.ID, "1", "")
	uc := newUseCase(f)
	date := testutil.Day(2025, 1, 10)

	res, err := uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: torta.ID, Quantity: D("5"), Date: &date, LotCode: "T-0110"})
	require.NoError(t, err)
	assert.Equal(t, "T-0110", res.LotCode)
	assert.True(t, res.UnitCost.Equal(D("3")))
	require.Len(t, res.Usages, 2)
	assert.Equal(t, h1.ID, res.Usages[0].RawLotID)
	assert.True(t, res.Usages[0].Quantity.Equal(D("4")))
	assert.Equal(t, h2.ID, res.Usages[1].RawLotID)
	assert.True(t, res.Usages[1].Quantity.Equal(D("1")))

	assert.True(t, f.Qty(torta.ID).Equal(D("5")))
	assert.True(t, f.Qty(flour.ID).Equal(D("5")))
	assert.True(t, f.RawLotAvailable(h1.ID).IsZero())
	assert.True(t, f.RawLotAvailable(h2.ID).Equal(D("5")))
	assert.True(t, f.FinishedLotAvailable(res.LotID).Equal(D("5")))
	assert.Len(t, f.Store.LotUsages(res.LotID), 2)

	out := f.Movements(torta.ID)
	require.Len(t, out, 1)
	assert.Equal(t, entity.ReasonProductionOutput, out[0].Reason)
	in := f.Movements(flour.ID)
	require.Len(t, in, 2)
	for _, m := range in {
		assert.Equal(t, entity.ReasonProductionInput, m.Reason)
		assert.Equal(t, res.LotID, m.TransactionID)
	}
}

func TestRegisterProduction_ShortInputRollsBack(t *testing.T) {
	f := testutil.New(t)
	torta := f.FinishedGood("TORTA", "0", "0", "3", "12")
	flour := f.RawMaterial("HARINA", "3", "0", "1")
	f.RawLot(flour.ID, "H1", testutil.Day(2025, 1, 1), "3", nil)
	f.Recipe(torta.ID, flour.ID, "1", "")
	uc := newUseCase(f)

	_, err := uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: torta.ID, Quantity: D("5")})
	assert.ErrorIs(t, err, domain.ErrInsufficientBatchStock)

	n, err := f.Store.Repos().Lots.CountFinishedLots(f.Ctx, torta.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, f.Qty(torta.ID).IsZero())
	assert.True(t, f.Qty(flour.ID).Equal(D("3")))
	assert.Empty(t, f.Movements(flour.ID))
}

func TestRegisterProduction_Validation(t *testing.T) {
	f := testutil.New(t)
	flour := f.RawMaterial("HARINA", "3", "0", "1")
	uc := newUseCase(f)

	_, err := uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "product_id")
	assert.Contains(t, ve.Fields, "quantity")

	_, err = uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: "nada", Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: flour.ID, Quantity: D("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductionLotCode(t *testing.T) {
	date := testutil.Day(2025, 12, 24)
	assert.Equal(t, "X", productionLotCode("X", "NAV", "TORTA", date))
	assert.Regexp(t, `^TORTA-NAV-20251224-[0-9A-F]{6}$`, productionLotCode("", "NAV", "TORTA", date))
	assert.Regexp(t, `^TORTA-20251224-`, productionLotCode("", "", "TORTA", date))
}

func TestRegisterProduction_YieldScalesRawConsumption(t *testing.T) {
	f := testutil.New(t)
	galletas := f.FinishedGood("GALLETA", "0", "0", "0.5", "2")
	galletas.Kind = entity.FinishedGood{YieldFactor: D("4")}
	require.NoError(t, f.Store.Repos().Products.Update(f.Ctx, galletas))
	flour := f.RawMaterial("HARINA", "10", "0", "1")
	f.Recipe(galletas.ID, flour.ID, "2", "")
	uc := newUseCase(f)

	// 8 galletas con rendimiento 4 son 2 tandas: 2 × 2 kg
	_, err := uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: galletas.ID, Quantity: D("8")})
	require.NoError(t, err)
	assert.True(t, f.Qty(galletas.ID).Equal(D("8")))
	assert.True(t, f.Qty(flour.ID).Equal(D("6")), "got %s", f.Qty(flour.ID))

	// lo que ProducibleUnits promete se puede producir sin faltantes
	units, err := inventory.NewRecipeResolver().ProducibleUnits(f.Ctx, f.Store.Repos(), galletas, "")
	require.NoError(t, err)
	assert.True(t, units.Equal(D("12")))
	_, err = uc.RegisterProduction(f.Ctx, "u1", dto.RegisterProductionRequest{ProductID: galletas.ID, Quantity: units})
	require.NoError(t, err)
	assert.True(t, f.Qty(flour.ID).IsZero())
}
