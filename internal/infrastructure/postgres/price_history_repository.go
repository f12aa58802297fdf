package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.PriceHistoryRepository = (*PriceHistoryRepo)(nil)

// PriceHistoryRepo historial de precio y costo.
type PriceHistoryRepo struct {
	q Querier
}

// NewPriceHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPriceHistoryRepository(q Querier) *PriceHistoryRepo {
	return &PriceHistoryRepo{q: q}
}

func scanPriceHistory(row pgxScanner) (*entity.PriceHistory, error) {
	var h entity.PriceHistory
	if err := row.Scan(&h.ID, &h.ProductID, &h.Price, &h.Cost, &h.RecordedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *PriceHistoryRepo) Create(ctx context.Context, h *entity.PriceHistory) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO price_history (id, product_id, price, cost, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
		h.ID, h.ProductID, h.Price, h.Cost, h.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert price history: %w", mapError(err, "price_history"))
	}
	return nil
}

func (r *PriceHistoryRepo) LatestOnOrBefore(ctx context.Context, productID string, at time.Time) (*entity.PriceHistory, error) {
	h, err := scanPriceHistory(r.q.QueryRow(ctx, `
		SELECT id, product_id, price, cost, recorded_at FROM price_history
		WHERE product_id = $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC LIMIT 1`, productID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest price history: %w", err)
	}
	return h, nil
}

func (r *PriceHistoryRepo) Earliest(ctx context.Context, productID string) (*entity.PriceHistory, error) {
	h, err := scanPriceHistory(r.q.QueryRow(ctx, `
		SELECT id, product_id, price, cost, recorded_at FROM price_history
		WHERE product_id = $1 ORDER BY recorded_at ASC LIMIT 1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("earliest price history: %w", err)
	}
	return h, nil
}
