package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, code, name, category, family, unit_measure, price, cost, quantity_on_hand,
	reorder_point, supplier_id, kind, waste_percent, yield_factor, created_at, updated_at`

func scanProduct(row pgxScanner) (*entity.Product, error) {
	var p entity.Product
	var category, family, supplier *string
	var kind string
	var waste, yield decimal.Decimal
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &category, &family, &p.UnitMeasure, &p.Price, &p.Cost, &p.QuantityOnHand,
		&p.ReorderPoint, &supplier, &kind, &waste, &yield, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Category = derefString(category)
	p.Family = derefString(family)
	p.SupplierID = derefString(supplier)
	p.Kind = entity.KindFromName(kind, waste, yield)
	return &p, nil
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	kind, waste, yield := entity.KindParams(product.Kind)
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.Code, product.Name, nullString(product.Category), nullString(product.Family),
		product.UnitMeasure, product.Price, product.Cost, product.QuantityOnHand, product.ReorderPoint,
		nullString(product.SupplierID), kind, waste, yield, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", mapError(err, "product"))
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// GetByCode obtiene un producto por código.
func (r *ProductRepo) GetByCode(ctx context.Context, code string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product by code: %w", err)
	}
	return p, nil
}

// List lista productos con paginación.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	list, err := collect(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return list, nil
}

// ListBelowReorderPoint productos con stock en o bajo el punto de reorden.
func (r *ProductRepo) ListBelowReorderPoint(ctx context.Context) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE reorder_point > 0 AND quantity_on_hand <= reorder_point
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list below reorder point: %w", err)
	}
	list, err := collect(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return list, nil
}

// Update actualiza datos maestros y precio. No modifica quantity_on_hand (solo vía ApplyDelta).
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	kind, waste, yield := entity.KindParams(product.Kind)
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET name = $2, category = $3, family = $4, unit_measure = $5, price = $6, cost = $7,
			reorder_point = $8, supplier_id = $9, kind = $10, waste_percent = $11, yield_factor = $12, updated_at = $13
		WHERE id = $1`,
		product.ID, product.Name, nullString(product.Category), nullString(product.Family), product.UnitMeasure,
		product.Price, product.Cost, product.ReorderPoint, nullString(product.SupplierID), kind, waste, yield, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update product: %w", mapError(err, "product:"+product.ID))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCost actualiza solo el costo del producto (usado por el motor de inventario).
func (r *ProductRepo) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	_, err := r.q.Exec(ctx,
		`UPDATE products SET cost = $2, updated_at = now() WHERE id = $1`,
		productID, cost,
	)
	if err != nil {
		return fmt.Errorf("update product cost: %w", mapError(err, "product:"+productID))
	}
	return nil
}

// LockNoWait SELECT … FOR UPDATE NOWAIT; 55P03 se traduce a LockContentionError.
func (r *ProductRepo) LockNoWait(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE NOWAIT`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock product: %w", mapError(err, "product:"+id))
	}
	return p, nil
}

// ApplyDelta UPDATE condicional: solo afecta la fila si el stock resultante no es negativo.
func (r *ProductRepo) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	var qty decimal.Decimal
	err := r.q.QueryRow(ctx, `
		UPDATE products SET quantity_on_hand = quantity_on_hand + $2, updated_at = now()
		WHERE id = $1 AND quantity_on_hand + $2 >= 0
		RETURNING quantity_on_hand`, id, delta).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("apply stock delta: %w", mapError(err, "product:"+id))
	}
	return qty, true, nil
}
