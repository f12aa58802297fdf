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

var (
	_ repository.PurchaseRepository = (*PurchaseRepo)(nil)
	_ repository.ReturnRepository   = (*ReturnRepo)(nil)
)

// PurchaseRepo compras y líneas de compra.
type PurchaseRepo struct {
	q Querier
}

// NewPurchaseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseRepository(q Querier) *PurchaseRepo {
	return &PurchaseRepo{q: q}
}

func (r *PurchaseRepo) Create(ctx context.Context, p *entity.Purchase) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchases (id, supplier_id, date, total, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, nullString(p.SupplierID), p.Date, p.Total, nullString(p.CreatedBy), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", mapError(err, "purchase"))
	}
	return nil
}

func (r *PurchaseRepo) AddLine(ctx context.Context, l *entity.PurchaseLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO purchase_lines (id, purchase_id, product_id, quantity, unit_price, lot_id, lot_code, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.PurchaseID, l.ProductID, l.Quantity, l.UnitPrice, nullString(l.LotID), nullString(l.LotCode), l.ExpiryDate)
	if err != nil {
		return fmt.Errorf("insert purchase line: %w", mapError(err, "purchase_line"))
	}
	return nil
}

func (r *PurchaseRepo) UpdateTotal(ctx context.Context, purchaseID string, total decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE purchases SET total = $2 WHERE id = $1`, purchaseID, total)
	if err != nil {
		return fmt.Errorf("update purchase total: %w", mapError(err, "purchase:"+purchaseID))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PurchaseRepo) GetByID(ctx context.Context, id string) (*entity.Purchase, error) {
	var p entity.Purchase
	var supplierID, createdBy *string
	err := r.q.QueryRow(ctx,
		`SELECT id, supplier_id, date, total, created_by, created_at FROM purchases WHERE id = $1`, id,
	).Scan(&p.ID, &supplierID, &p.Date, &p.Total, &createdBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase: %w", err)
	}
	p.SupplierID = derefString(supplierID)
	p.CreatedBy = derefString(createdBy)

	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_id, product_id, quantity, unit_price, lot_id, lot_code, expiry_date
		FROM purchase_lines WHERE purchase_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("list purchase lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.PurchaseLine
		var lotID, lotCode *string
		if err := rows.Scan(&l.ID, &l.PurchaseID, &l.ProductID, &l.Quantity, &l.UnitPrice, &lotID, &lotCode, &l.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan purchase line: %w", err)
		}
		l.LotID = derefString(lotID)
		l.LotCode = derefString(lotCode)
		p.Lines = append(p.Lines, l)
	}
	return &p, rows.Err()
}

func (r *PurchaseRepo) SumTotalByMonth(ctx context.Context, month, year int) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0) FROM purchases
		WHERE EXTRACT(MONTH FROM date) = $1 AND EXTRACT(YEAR FROM date) = $2`, month, year).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum purchases: %w", err)
	}
	return sum, nil
}

// ReturnRepo devoluciones de producto.
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

func (r *ReturnRepo) Create(ctx context.Context, ret *entity.ProductReturn) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_returns (id, product_id, finished_lot_id, quantity, reason, refund, substitution, date, responsible_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ret.ID, ret.ProductID, nullString(ret.FinishedLotID), ret.Quantity, ret.Reason, ret.Refund,
		ret.Substitution, ret.Date, nullString(ret.ResponsibleID), ret.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert return: %w", mapError(err, "product_return"))
	}
	return nil
}
