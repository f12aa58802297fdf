package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PurchaseRepository compras y sus líneas.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *entity.Purchase) error
	AddLine(ctx context.Context, line *entity.PurchaseLine) error
	UpdateTotal(ctx context.Context, purchaseID string, total decimal.Decimal) error
	GetByID(ctx context.Context, id string) (*entity.Purchase, error)
	SumTotalByMonth(ctx context.Context, month, year int) (decimal.Decimal, error)
}
