package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/domain/inventory"
)

func TestRequirement_AplicaMerma(t *testing.T) {
	got := inventory.Requirement(d("100"), d("2"), d("0.1"))
	assert.True(t, got.Equal(d("220")), got.String())
}

func TestProducibleUnits_MinimoPorLinea(t *testing.T) {
	lines := []inventory.RecipeInput{
		{PerUnit: d("100"), WastePercent: d("0"), Available: d("1050")}, // 10
		{PerUnit: d("50"), WastePercent: d("0.25"), Available: d("500")}, // 8
	}

	got := inventory.ProducibleUnits(lines, d("2"))

	assert.True(t, got.Equal(d("16")), got.String())
}

func TestProducibleUnits_SinLineas(t *testing.T) {
	assert.True(t, inventory.ProducibleUnits(nil, d("1")).IsZero())
}

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	got := inventory.CostCalculator(d("10"), d("2"), d("10"), d("4"))
	assert.True(t, got.Equal(d("3")), got.String())

	assert.True(t, inventory.CostCalculator(d("0"), d("0"), d("5"), d("1.5")).Equal(d("1.5")))
}

func TestResolveCost_PrimeraFuenteConDato(t *testing.T) {
	ctx := context.Background()
	empty := func(context.Context) (decimal.Decimal, bool, error) { return decimal.Zero, false, nil }
	second := func(context.Context) (decimal.Decimal, bool, error) { return d("2.5"), true, nil }
	third := func(context.Context) (decimal.Decimal, bool, error) { return d("9"), true, nil }

	got, err := inventory.ResolveCost(ctx, inventory.Fixed(nil), empty, second, third)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("2.5")))

	snap := d("1")
	got, err = inventory.ResolveCost(ctx, inventory.Fixed(&snap), second)
	require.NoError(t, err)
	assert.True(t, got.Equal(d("1")))
}

func TestResolveCost_PropagaError(t *testing.T) {
	boom := errors.New("boom")
	failing := func(context.Context) (decimal.Decimal, bool, error) { return decimal.Zero, false, boom }

	_, err := inventory.ResolveCost(context.Background(), failing)
	assert.ErrorIs(t, err, boom)
}

func TestExpiryDiscount(t *testing.T) {
	assert.True(t, inventory.ExpiryDiscount(-1).Equal(d("0.5")))
	assert.True(t, inventory.ExpiryDiscount(0).Equal(d("0.5")))
	assert.True(t, inventory.ExpiryDiscount(3).Equal(d("0.3")))
	assert.True(t, inventory.ExpiryDiscount(7).Equal(d("0.1")))
	assert.True(t, inventory.ExpiryDiscount(8).IsZero())
}

func TestSuggestedReorder(t *testing.T) {
	assert.True(t, inventory.SuggestedReorder(d("4"), d("10")).Equal(d("11")))
	assert.True(t, inventory.SuggestedReorder(d("20"), d("10")).IsZero())
}
