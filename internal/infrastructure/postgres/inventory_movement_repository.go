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

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx). Solo inserta y lee.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, transaction_id, product_id, direction, quantity, reason, unit_cost, total_cost,
	sale_id, purchase_id, return_id, adjustment_id, lot_id, date, created_at, created_by`

func scanMovement(row pgxScanner) (*entity.InventoryMovement, error) {
	var m entity.InventoryMovement
	var saleID, purchaseID, returnID, adjustmentID, lotID, createdBy *string
	err := row.Scan(&m.ID, &m.TransactionID, &m.ProductID, &m.Direction, &m.Quantity, &m.Reason,
		&m.UnitCost, &m.TotalCost, &saleID, &purchaseID, &returnID, &adjustmentID, &lotID,
		&m.Date, &m.CreatedAt, &createdBy)
	if err != nil {
		return nil, err
	}
	m.Links = entity.MovementLinks{
		SaleID:       derefString(saleID),
		PurchaseID:   derefString(purchaseID),
		ReturnID:     derefString(returnID),
		AdjustmentID: derefString(adjustmentID),
		LotID:        derefString(lotID),
	}
	m.CreatedBy = derefString(createdBy)
	return &m, nil
}

// Create persiste un movimiento de inventario.
func (r *InventoryMovementRepo) Create(ctx context.Context, m *entity.InventoryMovement) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_movements (`+movementColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		m.ID, m.TransactionID, m.ProductID, m.Direction, m.Quantity, m.Reason, m.UnitCost, m.TotalCost,
		nullString(m.Links.SaleID), nullString(m.Links.PurchaseID), nullString(m.Links.ReturnID),
		nullString(m.Links.AdjustmentID), nullString(m.Links.LotID),
		m.Date, m.CreatedAt, nullString(m.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("create inventory movement: %w", mapError(err, "inventory_movement"))
	}
	return nil
}

// GetByID obtiene un movimiento por ID.
func (r *InventoryMovementRepo) GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM inventory_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list by product: %w", err)
	}
	list, err := collect(rows, scanMovement)
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	return list, nil
}

// ListBySale movimientos originados por una venta.
func (r *InventoryMovementRepo) ListBySale(ctx context.Context, saleID string) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements WHERE sale_id = $1 ORDER BY created_at, id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list by sale: %w", err)
	}
	list, err := collect(rows, scanMovement)
	if err != nil {
		return nil, fmt.Errorf("scan movement: %w", err)
	}
	return list, nil
}
