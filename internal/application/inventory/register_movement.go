package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Fabrica-api/internal/domain/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// Tipos de ajuste manual.
const (
	MovementTypeIN         = "IN"
	MovementTypeOUT        = "OUT"
	MovementTypeADJUSTMENT = "ADJUSTMENT"
)

// RegisterMovementUseCase ajustes manuales de inventario (IN/OUT/ADJUSTMENT) a través del ledger,
// con bloqueo NOWAIT del producto y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	ledger   *Ledger
	log      zerolog.Logger
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner repository.TxRunner, repos repository.Repos, ledger *Ledger, log zerolog.Logger) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{txRunner: txRunner, repos: repos, ledger: ledger, log: log}
}

// MovementInputDTO entrada del ajuste.
// IN: Quantity > 0 y UnitCost obligatorio. OUT: Quantity > 0. ADJUSTMENT: Quantity con signo, distinta de cero.
type MovementInputDTO struct {
	UserID    string
	ProductID string
	Type      string
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
}

// RegisterMovementFromRequest adapta el request HTTP al caso de uso.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, userID string, in dto.RegisterMovementRequest) (*entity.InventoryMovement, error) {
	return uc.RegisterMovement(ctx, MovementInputDTO{
		UserID:    userID,
		ProductID: in.ProductID,
		Type:      in.Type,
		Quantity:  in.Quantity,
		UnitCost:  in.UnitCost,
	})
}

// RegisterMovement bloquea el producto, aplica el delta y registra el movimiento en una transacción.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*entity.InventoryMovement, error) {
	v := domain.NewValidationError()
	if input.ProductID == "" {
		v.Add("product_id", "requerido")
	}
	switch input.Type {
	case MovementTypeIN:
		if !input.Quantity.IsPositive() {
			v.Add("quantity", "debe ser mayor que cero")
		}
		if input.UnitCost == nil || input.UnitCost.IsNegative() {
			v.Add("unit_cost", "requerido y no negativo en entradas")
		}
	case MovementTypeOUT:
		if !input.Quantity.IsPositive() {
			v.Add("quantity", "debe ser mayor que cero")
		}
	case MovementTypeADJUSTMENT:
		if input.Quantity.IsZero() {
			v.Add("quantity", "no puede ser cero")
		}
	default:
		v.Add("type", "debe ser IN, OUT o ADJUSTMENT")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	product, err := uc.repos.Products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now()
	txID := uuid.New().String()
	var mov *entity.InventoryMovement

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		locked, err := LockProducts(ctx, repos.Products, []string{input.ProductID})
		if err != nil {
			return err
		}
		p := locked[input.ProductID]

		delta := input.Quantity
		unitCost := p.Cost
		switch input.Type {
		case MovementTypeIN:
			unitCost = *input.UnitCost
			newCost := domaininv.CostCalculator(p.QuantityOnHand, p.Cost, input.Quantity, unitCost)
			if err := repos.Products.UpdateCost(ctx, p.ID, newCost); err != nil {
				return err
			}
		case MovementTypeOUT:
			delta = input.Quantity.Neg()
		}

		mov, err = uc.ledger.ApplyDelta(ctx, repos, Delta{
			Product:       p,
			Quantity:      delta,
			Reason:        entity.ReasonAdjustment,
			UnitCost:      unitCost,
			Links:         entity.MovementLinks{AdjustmentID: txID},
			TransactionID: txID,
			Date:          now,
			CreatedBy:     input.UserID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", input.ProductID).Str("type", input.Type).Str("quantity", input.Quantity.String()).Msg("ajuste de inventario registrado")
	return mov, nil
}

// ListByProduct movimientos de un producto, más recientes primero.
func (uc *RegisterMovementUseCase) ListByProduct(ctx context.Context, productID string, from, to *time.Time, page dto.PageRequest) ([]dto.MovementResponse, error) {
	page.DefaultPage()
	movs, err := uc.repos.Movements.ListByProduct(ctx, productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, ToMovementResponse(m))
	}
	return out, nil
}

// ToMovementResponse mapea la entidad al DTO.
func ToMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		ProductID:     m.ProductID,
		Direction:     m.Direction,
		Reason:        m.Reason,
		Quantity:      m.Quantity,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost,
		SaleID:        m.Links.SaleID,
		PurchaseID:    m.Links.PurchaseID,
		ReturnID:      m.Links.ReturnID,
		LotID:         m.Links.LotID,
		Date:          m.Date,
		CreatedBy:     m.CreatedBy,
	}
}
