package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// CostSource una fuente de costo unitario; ok=false si no tiene dato.
type CostSource func(ctx context.Context) (cost decimal.Decimal, ok bool, err error)

// ResolveCost recorre las fuentes en orden y devuelve la primera con dato; cero si ninguna.
func ResolveCost(ctx context.Context, sources ...CostSource) (decimal.Decimal, error) {
	for _, src := range sources {
		c, ok, err := src(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		if ok {
			return c, nil
		}
	}
	return decimal.Zero, nil
}

// Fixed fuente con un valor opcional ya conocido (snapshot del lote).
func Fixed(v *decimal.Decimal) CostSource {
	return func(context.Context) (decimal.Decimal, bool, error) {
		if v == nil {
			return decimal.Zero, false, nil
		}
		return *v, true, nil
	}
}
