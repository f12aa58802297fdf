package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y líneas de venta.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.Sale) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sales (id, date, customer_id, seller_id, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Date, nullString(s.CustomerID), s.SellerID, s.Total, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert sale: %w", mapError(err, "sale"))
	}
	return nil
}

func (r *SaleRepo) AddLine(ctx context.Context, l *entity.SaleLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price, unit_cost, finished_lot_id, lot_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.UnitCost, nullString(l.FinishedLotID), nullString(l.LotCode))
	if err != nil {
		return fmt.Errorf("insert sale line: %w", mapError(err, "sale_line"))
	}
	return nil
}

func (r *SaleRepo) UpdateTotal(ctx context.Context, saleID string, total decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sales SET total = $2 WHERE id = $1`, saleID, total)
	if err != nil {
		return fmt.Errorf("update sale total: %w", mapError(err, "sale:"+saleID))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID cabecera y líneas.
func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	var s entity.Sale
	var customerID *string
	err := r.q.QueryRow(ctx,
		`SELECT id, date, customer_id, seller_id, total, created_at FROM sales WHERE id = $1`, id,
	).Scan(&s.ID, &s.Date, &customerID, &s.SellerID, &s.Total, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}
	s.CustomerID = derefString(customerID)

	rows, err := r.q.Query(ctx, `
		SELECT id, sale_id, product_id, quantity, unit_price, unit_cost, finished_lot_id, lot_code
		FROM sale_lines WHERE sale_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list sale lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SaleLine
		var lotID, lotCode *string
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.UnitCost, &lotID, &lotCode); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		l.FinishedLotID = derefString(lotID)
		l.LotCode = derefString(lotCode)
		s.Lines = append(s.Lines, l)
	}
	return &s, rows.Err()
}

func (r *SaleRepo) SumTotalByMonth(ctx context.Context, month, year int) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM sales
		WHERE EXTRACT(MONTH FROM date) = $1 AND EXTRACT(YEAR FROM date) = $2`, month, year).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum sales: %w", err)
	}
	return sum, nil
}
