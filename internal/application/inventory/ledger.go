package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// Delta cambio con signo sobre el stock agregado de un producto.
type Delta struct {
	Product       *entity.Product
	Quantity      decimal.Decimal // positivo entra, negativo sale
	Reason        string
	UnitCost      decimal.Decimal
	Links         entity.MovementLinks
	TransactionID string
	Date          time.Time
	CreatedBy     string
}

// Ledger único punto de escritura del stock agregado. Cada cambio exitoso deja exactamente un movimiento.
type Ledger struct {
	products repository.ProductRepository
	log      zerolog.Logger
}

// NewLedger construye el ledger; products se usa solo para lecturas fuera de transacción.
func NewLedger(products repository.ProductRepository, log zerolog.Logger) *Ledger {
	return &Ledger{products: products, log: log}
}

// GetQuantity stock agregado actual del producto.
func (l *Ledger) GetQuantity(ctx context.Context, productID string) (decimal.Decimal, error) {
	p, err := l.products.GetByID(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if p == nil {
		return decimal.Zero, domain.ErrNotFound
	}
	return p.QuantityOnHand, nil
}

// ApplyDelta aplica el cambio con la escritura condicional (qoh + delta >= 0) y registra el movimiento.
// Debe llamarse con los repos de la transacción del caller.
func (l *Ledger) ApplyDelta(ctx context.Context, repos repository.Repos, d Delta) (*entity.InventoryMovement, error) {
	if d.Product == nil || d.Quantity.IsZero() {
		return nil, domain.ErrInvalidInput
	}

	newQty, ok, err := repos.Products.ApplyDelta(ctx, d.Product.ID, d.Quantity)
	if err != nil {
		return nil, fmt.Errorf("apply delta %s: %w", d.Product.ID, err)
	}
	if !ok {
		available := d.Product.QuantityOnHand
		if current, err := repos.Products.GetByID(ctx, d.Product.ID); err == nil && current != nil {
			available = current.QuantityOnHand
		}
		return nil, &domain.InsufficientStockError{
			ProductID:   d.Product.ID,
			ProductName: d.Product.Name,
			Requested:   d.Quantity.Neg(),
			Available:   available,
		}
	}
	d.Product.QuantityOnHand = newQty

	direction := entity.DirectionIN
	qty := d.Quantity
	if qty.IsNegative() {
		direction = entity.DirectionOUT
		qty = qty.Neg()
	}
	date := d.Date
	if date.IsZero() {
		date = time.Now()
	}
	mov := &entity.InventoryMovement{
		ID:            uuid.New().String(),
		TransactionID: d.TransactionID,
		ProductID:     d.Product.ID,
		Direction:     direction,
		Quantity:      qty,
		Reason:        d.Reason,
		UnitCost:      d.UnitCost,
		TotalCost:     qty.Mul(d.UnitCost),
		Links:         d.Links,
		Date:          date,
		CreatedAt:     time.Now(),
		CreatedBy:     d.CreatedBy,
	}
	if err := repos.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	l.log.Debug().
		Str("product_id", d.Product.ID).
		Str("reason", d.Reason).
		Str("delta", d.Quantity.String()).
		Str("qoh", newQty.String()).
		Msg("ledger delta")
	return mov, nil
}
