package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID devuelve (nil, nil) si no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByCode(ctx context.Context, code string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListBelowReorderPoint(ctx context.Context) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
	// LockNoWait bloquea la fila sin esperar (SELECT … FOR UPDATE NOWAIT).
	// Si otra transacción la tiene, devuelve *domain.LockContentionError.
	LockNoWait(ctx context.Context, id string) (*entity.Product, error)
	// ApplyDelta suma delta a quantity_on_hand solo si el resultado queda >= 0.
	// ok=false cuando la condición no se cumple (ninguna fila afectada).
	ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (newQty decimal.Decimal, ok bool, err error)
}
