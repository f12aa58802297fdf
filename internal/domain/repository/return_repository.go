package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// ReturnRepository devoluciones de producto.
type ReturnRepository interface {
	Create(ctx context.Context, r *entity.ProductReturn) error
}
