package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes de materia prima y producto final. Las escrituras son UPDATE condicionales:
// el disponible nunca queda negativo.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const rawLotColumns = `id, code, product_id, received_date, expiry_date, initial_quantity, consumed_quantity,
	exhausted_date, unit_cost, created_at`

const finishedLotColumns = `id, code, product_id, produced_date, produced_quantity, sold_quantity,
	returned_quantity, discarded_quantity, unit_cost, created_at`

func scanRawLot(row pgxScanner) (*entity.RawMaterialLot, error) {
	var l entity.RawMaterialLot
	err := row.Scan(&l.ID, &l.Code, &l.ProductID, &l.ReceivedDate, &l.ExpiryDate, &l.InitialQuantity,
		&l.ConsumedQuantity, &l.ExhaustedDate, &l.UnitCost, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanFinishedLot(row pgxScanner) (*entity.FinishedGoodLot, error) {
	var l entity.FinishedGoodLot
	err := row.Scan(&l.ID, &l.Code, &l.ProductID, &l.ProducedDate, &l.ProducedQuantity, &l.SoldQuantity,
		&l.ReturnedQuantity, &l.DiscardedQuantity, &l.UnitCost, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) CreateRawLot(ctx context.Context, l *entity.RawMaterialLot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO raw_material_lots (`+rawLotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.Code, l.ProductID, l.ReceivedDate, l.ExpiryDate, l.InitialQuantity, l.ConsumedQuantity,
		l.ExhaustedDate, l.UnitCost, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert raw lot: %w", mapError(err, "raw_lot"))
	}
	return nil
}

func (r *LotRepo) CreateFinishedLot(ctx context.Context, l *entity.FinishedGoodLot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO finished_good_lots (`+finishedLotColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.Code, l.ProductID, l.ProducedDate, l.ProducedQuantity, l.SoldQuantity,
		l.ReturnedQuantity, l.DiscardedQuantity, l.UnitCost, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert finished lot: %w", mapError(err, "finished_lot"))
	}
	return nil
}

func (r *LotRepo) GetRawLot(ctx context.Context, id string) (*entity.RawMaterialLot, error) {
	l, err := scanRawLot(r.q.QueryRow(ctx, `SELECT `+rawLotColumns+` FROM raw_material_lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get raw lot: %w", err)
	}
	return l, nil
}

func (r *LotRepo) GetFinishedLot(ctx context.Context, id string) (*entity.FinishedGoodLot, error) {
	l, err := scanFinishedLot(r.q.QueryRow(ctx, `SELECT `+finishedLotColumns+` FROM finished_good_lots WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get finished lot: %w", err)
	}
	return l, nil
}

func (r *LotRepo) CountRawLots(ctx context.Context, productID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM raw_material_lots WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count raw lots: %w", err)
	}
	return n, nil
}

func (r *LotRepo) CountFinishedLots(ctx context.Context, productID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM finished_good_lots WHERE product_id = $1`, productID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count finished lots: %w", err)
	}
	return n, nil
}

// ListAvailableRawLots orden FIFO: fecha de recepción y luego ID.
func (r *LotRepo) ListAvailableRawLots(ctx context.Context, productID string) ([]*entity.RawMaterialLot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+rawLotColumns+` FROM raw_material_lots
		WHERE product_id = $1 AND initial_quantity - consumed_quantity > 0
		ORDER BY received_date, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list raw lots: %w", err)
	}
	list, err := collect(rows, scanRawLot)
	if err != nil {
		return nil, fmt.Errorf("scan raw lot: %w", err)
	}
	return list, nil
}

// ListAvailableFinishedLots orden FIFO: fecha de producción y luego ID.
func (r *LotRepo) ListAvailableFinishedLots(ctx context.Context, productID string) ([]*entity.FinishedGoodLot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+finishedLotColumns+` FROM finished_good_lots
		WHERE product_id = $1 AND produced_quantity - sold_quantity - discarded_quantity + returned_quantity > 0
		ORDER BY produced_date, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list finished lots: %w", err)
	}
	list, err := collect(rows, scanFinishedLot)
	if err != nil {
		return nil, fmt.Errorf("scan finished lot: %w", err)
	}
	return list, nil
}

func (r *LotRepo) ListExpiringRawLots(ctx context.Context, until time.Time) ([]*entity.RawMaterialLot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+rawLotColumns+` FROM raw_material_lots
		WHERE expiry_date IS NOT NULL AND expiry_date <= $1 AND initial_quantity - consumed_quantity > 0
		ORDER BY expiry_date, id`, until)
	if err != nil {
		return nil, fmt.Errorf("list expiring lots: %w", err)
	}
	list, err := collect(rows, scanRawLot)
	if err != nil {
		return nil, fmt.Errorf("scan raw lot: %w", err)
	}
	return list, nil
}

// ConsumeRawLot exhausted_date se fija solo la primera vez que el lote se agota.
func (r *LotRepo) ConsumeRawLot(ctx context.Context, lotID string, qty decimal.Decimal, at time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE raw_material_lots
		SET consumed_quantity = consumed_quantity + $2,
			exhausted_date = CASE
				WHEN exhausted_date IS NULL AND consumed_quantity + $2 >= initial_quantity THEN $3
				ELSE exhausted_date END
		WHERE id = $1 AND initial_quantity - consumed_quantity >= $2`, lotID, qty, at)
	if err != nil {
		return false, fmt.Errorf("consume raw lot: %w", mapError(err, "raw_lot:"+lotID))
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *LotRepo) SellFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE finished_good_lots SET sold_quantity = sold_quantity + $2
		WHERE id = $1 AND produced_quantity - sold_quantity - discarded_quantity + returned_quantity >= $2`, lotID, qty)
	if err != nil {
		return false, fmt.Errorf("sell from finished lot: %w", mapError(err, "finished_lot:"+lotID))
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *LotRepo) DiscardFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE finished_good_lots SET discarded_quantity = discarded_quantity + $2
		WHERE id = $1 AND produced_quantity - sold_quantity - discarded_quantity + returned_quantity >= $2`, lotID, qty)
	if err != nil {
		return false, fmt.Errorf("discard from finished lot: %w", mapError(err, "finished_lot:"+lotID))
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *LotRepo) ReturnToFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE finished_good_lots SET returned_quantity = returned_quantity + $2 WHERE id = $1`, lotID, qty)
	if err != nil {
		return fmt.Errorf("return to finished lot: %w", mapError(err, "finished_lot:"+lotID))
	}
	return nil
}

func (r *LotRepo) CreateLotUsage(ctx context.Context, u *entity.LotUsage) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lot_usages (id, raw_lot_id, finished_lot_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)`, u.ID, u.RawLotID, u.FinishedLotID, u.Quantity, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert lot usage: %w", mapError(err, "lot_usage"))
	}
	return nil
}
