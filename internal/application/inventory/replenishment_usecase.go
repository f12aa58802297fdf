package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	domaininv "github.com/jhoicas/Fabrica-api/internal/domain/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// ReplenishmentUseCase lista de reposición y alertas de vencimiento.
type ReplenishmentUseCase struct {
	products repository.ProductRepository
	lots     repository.LotRepository
	now      func() time.Time
}

// NewReplenishmentUseCase construye el caso de uso.
func NewReplenishmentUseCase(products repository.ProductRepository, lots repository.LotRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{products: products, lots: lots, now: time.Now}
}

// GenerateReplenishmentList productos bajo su stock mínimo con la cantidad sugerida de pedido.
// Orden: mayor déficit relativo primero.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	items, err := uc.products.ListBelowReorderPoint(ctx)
	if err != nil {
		return nil, err
	}
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0, len(items))
	for _, p := range items {
		suggested := domaininv.SuggestedReorder(p.QuantityOnHand, p.ReorderPoint)
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductID:          p.ID,
			Code:               p.Code,
			ProductName:        p.Name,
			CurrentStock:       p.QuantityOnHand,
			ReorderPoint:       p.ReorderPoint,
			IdealStock:         p.ReorderPoint.Mul(decimal.NewFromFloat(1.5)),
			SuggestedOrderQty:  suggested,
			UnitCost:           p.Cost,
			EstimatedOrderCost: suggested.Mul(p.Cost).Round(2),
		})
	}

	deficit := func(s dto.ReplenishmentSuggestionDTO) decimal.Decimal {
		if !s.ReorderPoint.IsPositive() {
			return decimal.Zero
		}
		return s.ReorderPoint.Sub(s.CurrentStock).Div(s.ReorderPoint)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := deficit(suggestions[i]), deficit(suggestions[j])
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return suggestions[i].ProductID < suggestions[j].ProductID
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

// ExpiringLots lotes de materia prima que vencen dentro de days días, con descuento sugerido.
func (uc *ReplenishmentUseCase) ExpiringLots(ctx context.Context, days int) ([]dto.ExpiringLotDTO, error) {
	if days <= 0 {
		days = 7
	}
	now := uc.now()
	lots, err := uc.lots.ListExpiringRawLots(ctx, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExpiringLotDTO, 0, len(lots))
	for _, l := range lots {
		if l.ExpiryDate == nil {
			continue
		}
		left := domaininv.DaysUntil(now, *l.ExpiryDate)
		out = append(out, dto.ExpiringLotDTO{
			LotID:             l.ID,
			LotCode:           l.Code,
			ProductID:         l.ProductID,
			ExpiryDate:        *l.ExpiryDate,
			DaysLeft:          left,
			Available:         l.Available(),
			SuggestedDiscount: domaininv.ExpiryDiscount(left),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiryDate.Before(out[j].ExpiryDate) })
	return out, nil
}
