package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// ReturnsUseCase devoluciones de clientes y descartes de lotes de producto final.
type ReturnsUseCase struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	ledger   *Ledger
	log      zerolog.Logger
}

// NewReturnsUseCase construye el caso de uso.
func NewReturnsUseCase(txRunner repository.TxRunner, repos repository.Repos, ledger *Ledger, log zerolog.Logger) *ReturnsUseCase {
	return &ReturnsUseCase{txRunner: txRunner, repos: repos, ledger: ledger, log: log}
}

// RegisterReturn reingresa producto devuelto: suma al lote (si se indica) y entra al ledger.
func (uc *ReturnsUseCase) RegisterReturn(ctx context.Context, userID string, in dto.RegisterReturnRequest) (*entity.ProductReturn, error) {
	v := domain.NewValidationError()
	if in.ProductID == "" {
		v.Add("product_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		v.Add("quantity", "debe ser mayor que cero")
	}
	if in.Refund.IsNegative() {
		v.Add("refund", "no puede ser negativo")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	product, err := uc.repos.Products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}
	ret := &entity.ProductReturn{
		ID:            uuid.New().String(),
		ProductID:     in.ProductID,
		FinishedLotID: in.FinishedLotID,
		Quantity:      in.Quantity,
		Reason:        in.Reason,
		Refund:        in.Refund,
		Substitution:  in.Substitution,
		Date:          date,
		ResponsibleID: userID,
		CreatedAt:     time.Now(),
	}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		locked, err := LockProducts(ctx, repos.Products, []string{in.ProductID})
		if err != nil {
			return err
		}
		p := locked[in.ProductID]
		unitCost := p.Cost
		if in.FinishedLotID != "" {
			lot, err := repos.Lots.GetFinishedLot(ctx, in.FinishedLotID)
			if err != nil {
				return err
			}
			if lot == nil || lot.ProductID != in.ProductID {
				return domain.ErrNotFound
			}
			if lot.UnitCost != nil {
				unitCost = *lot.UnitCost
			}
			if err := repos.Lots.ReturnToFinishedLot(ctx, lot.ID, in.Quantity); err != nil {
				return err
			}
		}
		if err := repos.Returns.Create(ctx, ret); err != nil {
			return err
		}
		_, err = uc.ledger.ApplyDelta(ctx, repos, Delta{
			Product:       p,
			Quantity:      in.Quantity,
			Reason:        entity.ReasonReturn,
			UnitCost:      unitCost,
			Links:         entity.MovementLinks{ReturnID: ret.ID, LotID: in.FinishedLotID},
			TransactionID: ret.ID,
			Date:          date,
			CreatedBy:     userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// DiscardFromLot descarta producto de un lote final (merma, vencido). Sale del ledger.
func (uc *ReturnsUseCase) DiscardFromLot(ctx context.Context, userID, lotID string, in dto.DiscardRequest) (*entity.InventoryMovement, error) {
	if !in.Quantity.IsPositive() {
		v := domain.NewValidationError()
		v.Add("quantity", "debe ser mayor que cero")
		return nil, v
	}
	lot, err := uc.repos.Lots.GetFinishedLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}

	txID := uuid.New().String()
	now := time.Now()
	var mov *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		locked, err := LockProducts(ctx, repos.Products, []string{lot.ProductID})
		if err != nil {
			return err
		}
		ok, err := repos.Lots.DiscardFromFinishedLot(ctx, lotID, in.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InsufficientBatchStockError{ProductID: lot.ProductID, Requested: in.Quantity, AvailableInLots: lot.Available()}
		}
		p := locked[lot.ProductID]
		unitCost := p.Cost
		if lot.UnitCost != nil {
			unitCost = *lot.UnitCost
		}
		mov, err = uc.ledger.ApplyDelta(ctx, repos, Delta{
			Product:       p,
			Quantity:      in.Quantity.Neg(),
			Reason:        entity.ReasonDiscard,
			UnitCost:      unitCost,
			Links:         entity.MovementLinks{AdjustmentID: txID, LotID: lotID},
			TransactionID: txID,
			Date:          now,
			CreatedBy:     userID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("lot_id", lotID).Str("quantity", in.Quantity.String()).Str("reason", in.Reason).Msg("descarte registrado")
	return mov, nil
}
