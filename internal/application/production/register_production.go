// Package production registra corridas de producción: consume materia prima por FIFO y crea el lote final.
package production

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// RegisterProductionUseCase registra la producción de un lote de producto final.
type RegisterProductionUseCase struct {
	txRunner  repository.TxRunner
	repos     repository.Repos
	ledger    *inventory.Ledger
	allocator *inventory.LotAllocator
	resolver  *inventory.RecipeResolver
	log       zerolog.Logger
}

// NewRegisterProductionUseCase construye el caso de uso.
func NewRegisterProductionUseCase(
	txRunner repository.TxRunner,
	repos repository.Repos,
	ledger *inventory.Ledger,
	allocator *inventory.LotAllocator,
	resolver *inventory.RecipeResolver,
	log zerolog.Logger,
) *RegisterProductionUseCase {
	return &RegisterProductionUseCase{txRunner: txRunner, repos: repos, ledger: ledger, allocator: allocator, resolver: resolver, log: log}
}

// RegisterProduction consume la receta (FIFO sobre lotes de materia prima), deja trazabilidad
// lote a lote y crea el lote final con el costo actual del producto como snapshot.
func (uc *RegisterProductionUseCase) RegisterProduction(ctx context.Context, userID string, in dto.RegisterProductionRequest) (*dto.ProductionResponse, error) {
	v := domain.NewValidationError()
	if in.ProductID == "" {
		v.Add("product_id", "requerido")
	}
	if !in.Quantity.IsPositive() {
		v.Add("quantity", "debe ser mayor que cero")
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
	if !product.IsFinishedGood() {
		v.Add("product_id", "solo se producen productos finales")
		return nil, v
	}

	date := time.Now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	resp := &dto.ProductionResponse{Quantity: in.Quantity}

	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		raws, err := uc.resolver.RawMaterialIDs(ctx, repos, product.ID, in.BatchCode)
		if err != nil {
			return err
		}
		locked, err := inventory.LockProducts(ctx, repos.Products, append([]string{product.ID}, raws...))
		if err != nil {
			return err
		}
		finished := locked[product.ID]

		cost := finished.Cost
		lot := &entity.FinishedGoodLot{
			ID:               uuid.New().String(),
			Code:             productionLotCode(in.LotCode, in.BatchCode, finished.Code, date),
			ProductID:        finished.ID,
			ProducedDate:     date,
			ProducedQuantity: in.Quantity,
			UnitCost:         &cost,
			CreatedAt:        time.Now(),
		}
		if err := repos.Lots.CreateFinishedLot(ctx, lot); err != nil {
			return err
		}
		resp.LotID, resp.LotCode, resp.UnitCost = lot.ID, lot.Code, cost

		reqs, err := uc.resolver.Requirements(ctx, repos, finished, in.Quantity, in.BatchCode)
		if err != nil {
			return err
		}
		for _, req := range reqs {
			raw := locked[req.RawMaterial.ID]
			allocs, err := uc.allocator.Allocate(ctx, repos, raw, req.Quantity, date)
			if err != nil {
				return err
			}
			if err := uc.allocator.Consume(ctx, repos, raw, allocs, date); err != nil {
				return err
			}
			for _, a := range allocs {
				if !a.Pseudo() {
					if err := repos.Lots.CreateLotUsage(ctx, &entity.LotUsage{
						ID:            uuid.New().String(),
						RawLotID:      a.LotID,
						FinishedLotID: lot.ID,
						Quantity:      a.Quantity,
						CreatedAt:     time.Now(),
					}); err != nil {
						return err
					}
				}
				if _, err := uc.ledger.ApplyDelta(ctx, repos, inventory.Delta{
					Product:       raw,
					Quantity:      a.Quantity.Neg(),
					Reason:        entity.ReasonProductionInput,
					UnitCost:      a.UnitCost,
					Links:         entity.MovementLinks{LotID: a.LotID},
					TransactionID: lot.ID,
					Date:          date,
					CreatedBy:     userID,
				}); err != nil {
					return err
				}
				resp.Usages = append(resp.Usages, dto.LotUsageResponse{RawLotID: a.LotID, ProductID: raw.ID, Quantity: a.Quantity})
			}
		}

		_, err = uc.ledger.ApplyDelta(ctx, repos, inventory.Delta{
			Product:       finished,
			Quantity:      in.Quantity,
			Reason:        entity.ReasonProductionOutput,
			UnitCost:      cost,
			Links:         entity.MovementLinks{LotID: lot.ID},
			TransactionID: lot.ID,
			Date:          date,
			CreatedBy:     userID,
		})
		return err
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("product_id", in.ProductID).Msg("producción revertida")
		return nil, err
	}
	uc.log.Info().Str("lot_id", resp.LotID).Str("quantity", in.Quantity.String()).Msg("producción registrada")
	return resp, nil
}

func productionLotCode(given, batchCode, productCode string, date time.Time) string {
	if c := strings.TrimSpace(given); c != "" {
		return c
	}
	prefix := productCode
	if batchCode != "" {
		prefix += "-" + batchCode
	}
	return fmt.Sprintf("%s-%s-%s", prefix, date.Format("20060102"), strings.ToUpper(uuid.New().String()[:6]))
}
