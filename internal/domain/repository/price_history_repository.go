package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// PriceHistoryRepository historial de precio/costo por producto.
type PriceHistoryRepository interface {
	Create(ctx context.Context, h *entity.PriceHistory) error
	// LatestOnOrBefore registro más reciente con RecordedAt <= at; (nil, nil) si no hay.
	LatestOnOrBefore(ctx context.Context, productID string, at time.Time) (*entity.PriceHistory, error)
	// Earliest primer registro del producto; (nil, nil) si no hay.
	Earliest(ctx context.Context, productID string) (*entity.PriceHistory, error)
}
