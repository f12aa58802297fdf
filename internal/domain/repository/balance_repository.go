package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// BalanceRepository balances mensuales almacenados.
type BalanceRepository interface {
	// Get devuelve (nil, nil) si el período no tiene balance.
	Get(ctx context.Context, month, year int) (*entity.MonthlyBalance, error)
	// Save inserta o reemplaza el snapshot; no modifica la bandera Locked.
	Save(ctx context.Context, snapshot entity.BalanceSnapshot) error
	SetLocked(ctx context.Context, month, year int, locked bool) error
}
