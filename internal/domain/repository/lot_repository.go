package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LotRepository lotes de materia prima y de producto final.
// Los listados de disponibles vienen en orden FIFO (fecha, luego ID).
type LotRepository interface {
	CreateRawLot(ctx context.Context, lot *entity.RawMaterialLot) error
	CreateFinishedLot(ctx context.Context, lot *entity.FinishedGoodLot) error
	GetRawLot(ctx context.Context, id string) (*entity.RawMaterialLot, error)
	GetFinishedLot(ctx context.Context, id string) (*entity.FinishedGoodLot, error)
	CountRawLots(ctx context.Context, productID string) (int, error)
	CountFinishedLots(ctx context.Context, productID string) (int, error)
	ListAvailableRawLots(ctx context.Context, productID string) ([]*entity.RawMaterialLot, error)
	ListAvailableFinishedLots(ctx context.Context, productID string) ([]*entity.FinishedGoodLot, error)
	// ListExpiringRawLots lotes con disponible > 0 y vencimiento <= until.
	ListExpiringRawLots(ctx context.Context, until time.Time) ([]*entity.RawMaterialLot, error)
	// ConsumeRawLot incrementa consumed_quantity si alcanza; marca exhausted_date una sola vez.
	ConsumeRawLot(ctx context.Context, lotID string, qty decimal.Decimal, at time.Time) (bool, error)
	// SellFromFinishedLot incrementa sold_quantity si alcanza.
	SellFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error)
	// DiscardFromFinishedLot incrementa discarded_quantity si alcanza.
	DiscardFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error)
	ReturnToFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) error
	CreateLotUsage(ctx context.Context, usage *entity.LotUsage) error
}
