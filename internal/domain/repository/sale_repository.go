package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SaleRepository ventas y sus líneas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	AddLine(ctx context.Context, line *entity.SaleLine) error
	UpdateTotal(ctx context.Context, saleID string, total decimal.Decimal) error
	// GetByID incluye las líneas; (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	SumTotalByMonth(ctx context.Context, month, year int) (decimal.Decimal, error)
}
