package finance

import (
	"context"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// BalanceCache caché de balances mensuales. Get devuelve ok=false en un miss.
type BalanceCache interface {
	Get(ctx context.Context, month, year int) (*entity.MonthlyBalance, bool, error)
	Set(ctx context.Context, balance *entity.MonthlyBalance, ttl time.Duration) error
	Delete(ctx context.Context, month, year int) error
}

// Recomputer lo usan ventas, compras y transacciones para mantener el balance al día.
type Recomputer interface {
	Recompute(ctx context.Context, month, year int) (entity.BalanceSnapshot, error)
}
