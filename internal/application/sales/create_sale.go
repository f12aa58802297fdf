// Package sales orquesta la venta: valida, bloquea, asigna lotes y persiste en una sola transacción.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// CreateSaleUseCase registra una venta y descuenta producto final y materia prima de forma atómica.
// No reintenta: la contención de bloqueos se devuelve al llamador como error reintentable.
type CreateSaleUseCase struct {
	txRunner   repository.TxRunner
	repos      repository.Repos
	ledger     *inventory.Ledger
	allocator  *inventory.LotAllocator
	resolver   *inventory.RecipeResolver
	recomputer finance.Recomputer
	log        zerolog.Logger
	now        func() time.Time
}

// NewCreateSaleUseCase construye el caso de uso. recomputer puede ser nil.
func NewCreateSaleUseCase(
	txRunner repository.TxRunner,
	repos repository.Repos,
	ledger *inventory.Ledger,
	allocator *inventory.LotAllocator,
	resolver *inventory.RecipeResolver,
	recomputer finance.Recomputer,
	log zerolog.Logger,
) *CreateSaleUseCase {
	return &CreateSaleUseCase{
		txRunner:   txRunner,
		repos:      repos,
		ledger:     ledger,
		allocator:  allocator,
		resolver:   resolver,
		recomputer: recomputer,
		log:        log,
		now:        time.Now,
	}
}

// validate revisa la solicitud fuera de la transacción (solo lectura).
func (uc *CreateSaleUseCase) validate(ctx context.Context, sellerID string, in dto.CreateSaleRequest) error {
	if sellerID == "" {
		return domain.ErrUnauthorized
	}
	v := domain.NewValidationError()
	if len(in.Lines) == 0 {
		v.Add("lines", "la venta necesita al menos una línea")
	}
	if in.CustomerID != "" {
		c, err := uc.repos.Customers.GetByID(ctx, in.CustomerID)
		if err != nil {
			return err
		}
		if c == nil {
			v.Add("customer_id", "cliente inexistente")
		}
	}
	for i, l := range in.Lines {
		field := fmt.Sprintf("lines[%d]", i)
		if !l.Quantity.IsPositive() {
			v.Add(field+".quantity", "debe ser mayor que cero")
		}
		if l.UnitPrice.IsNegative() {
			v.Add(field+".unit_price", "no puede ser negativo")
		}
		if l.ProductID == "" {
			v.Add(field+".product_id", "requerido")
			continue
		}
		p, err := uc.repos.Products.GetByID(ctx, l.ProductID)
		if err != nil {
			return err
		}
		switch {
		case p == nil:
			v.Add(field+".product_id", "producto inexistente")
		case p.IsRawMaterial():
			v.Add(field+".product_id", "no se puede vender materia prima")
		}
	}
	return v.OrNil()
}

// CreateSale ejecuta Validating → Locking → Allocating → Persisting → Committed.
// Cualquier error deshace todas las escrituras.
func (uc *CreateSaleUseCase) CreateSale(ctx context.Context, sellerID string, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if err := uc.validate(ctx, sellerID, in); err != nil {
		return nil, err
	}

	date := uc.now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	sale := &entity.Sale{
		ID:         uuid.New().String(),
		Date:       date,
		CustomerID: in.CustomerID,
		SellerID:   sellerID,
		Total:      decimal.Zero,
		CreatedAt:  uc.now(),
	}
	log := uc.log.With().Str("sale_id", sale.ID).Logger()

	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		// Locking: productos finales + materias primas de sus recetas, en orden canónico.
		lockIDs := make([]string, 0, len(in.Lines))
		for _, l := range in.Lines {
			lockIDs = append(lockIDs, l.ProductID)
			raws, err := uc.resolver.RawMaterialIDs(ctx, repos, l.ProductID, l.BatchCode)
			if err != nil {
				return err
			}
			lockIDs = append(lockIDs, raws...)
		}
		log.Debug().Strs("products", inventory.CanonicalOrder(lockIDs)).Msg("locking")
		locked, err := inventory.LockProducts(ctx, repos.Products, lockIDs)
		if err != nil {
			return err
		}

		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		log.Debug().Msg("allocating")
		for _, l := range in.Lines {
			if err := uc.sellLine(ctx, repos, sale, locked, l); err != nil {
				return err
			}
		}

		log.Debug().Msg("persisting")
		total := decimal.Zero
		for _, l := range in.Lines {
			total = total.Add(l.Quantity.Mul(l.UnitPrice))
		}
		sale.Total = total.Round(2)
		return repos.Sales.UpdateTotal(ctx, sale.ID, sale.Total)
	})
	if err != nil {
		uc.logFailure(log, err)
		return nil, err
	}
	log.Info().Str("total", sale.Total.String()).Int("lines", len(sale.Lines)).Msg("venta registrada")

	finance.RecomputeAfter(ctx, uc.recomputer, log, sale.Date)
	return toSaleResponse(sale), nil
}

// sellLine descuenta una línea: producto final por lotes FIFO y materias primas de la receta.
func (uc *CreateSaleUseCase) sellLine(ctx context.Context, repos repository.Repos, sale *entity.Sale, locked map[string]*entity.Product, l dto.SaleLineRequest) error {
	product := locked[l.ProductID]
	remaining := product.QuantityOnHand.Sub(l.Quantity)
	if remaining.IsNegative() || remaining.LessThan(product.ReorderPoint) {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   l.Quantity,
			Available:   product.QuantityOnHand,
			SafetyStock: product.ReorderPoint,
		}
	}

	allocs, err := uc.allocator.Allocate(ctx, repos, product, l.Quantity, sale.Date)
	if err != nil {
		return err
	}
	if err := uc.allocator.Consume(ctx, repos, product, allocs, sale.Date); err != nil {
		return err
	}
	for _, a := range allocs {
		if _, err := uc.ledger.ApplyDelta(ctx, repos, inventory.Delta{
			Product:       product,
			Quantity:      a.Quantity.Neg(),
			Reason:        entity.ReasonSale,
			UnitCost:      a.UnitCost,
			Links:         entity.MovementLinks{SaleID: sale.ID, LotID: a.LotID},
			TransactionID: sale.ID,
			Date:          sale.Date,
			CreatedBy:     sale.SellerID,
		}); err != nil {
			return err
		}
		line := entity.SaleLine{
			ID:            uuid.New().String(),
			SaleID:        sale.ID,
			ProductID:     product.ID,
			Quantity:      a.Quantity,
			UnitPrice:     l.UnitPrice,
			UnitCost:      a.UnitCost,
			FinishedLotID: a.LotID,
			LotCode:       a.LotCode,
		}
		if err := repos.Sales.AddLine(ctx, &line); err != nil {
			return err
		}
		sale.Lines = append(sale.Lines, line)
	}

	reqs, err := uc.resolver.Requirements(ctx, repos, product, l.Quantity, l.BatchCode)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		raw := locked[req.RawMaterial.ID]
		if raw == nil {
			raw = req.RawMaterial
		}
		rawAllocs, err := uc.allocator.Allocate(ctx, repos, raw, req.Quantity, sale.Date)
		if err != nil {
			return err
		}
		if err := uc.allocator.Consume(ctx, repos, raw, rawAllocs, sale.Date); err != nil {
			return err
		}
		for _, a := range rawAllocs {
			if _, err := uc.ledger.ApplyDelta(ctx, repos, inventory.Delta{
				Product:       raw,
				Quantity:      a.Quantity.Neg(),
				Reason:        entity.ReasonSaleConsumption,
				UnitCost:      a.UnitCost,
				Links:         entity.MovementLinks{SaleID: sale.ID, LotID: a.LotID},
				TransactionID: sale.ID,
				Date:          sale.Date,
				CreatedBy:     sale.SellerID,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (uc *CreateSaleUseCase) logFailure(log zerolog.Logger, err error) {
	var integrity *domain.IntegrityError
	switch {
	case errors.As(err, &integrity):
		log.Error().Err(err).Msg("venta revertida por integridad")
	case domain.IsRetryable(err):
		log.Warn().Err(err).Msg("venta revertida por contención")
	default:
		log.Warn().Err(err).Msg("venta revertida")
	}
}

// GetByID obtiene una venta con sus líneas.
func (uc *CreateSaleUseCase) GetByID(ctx context.Context, id string) (*dto.SaleResponse, error) {
	s, err := uc.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return toSaleResponse(s), nil
}

func toSaleResponse(s *entity.Sale) *dto.SaleResponse {
	out := &dto.SaleResponse{
		ID:         s.ID,
		Date:       s.Date,
		CustomerID: s.CustomerID,
		SellerID:   s.SellerID,
		Total:      s.Total,
		Lines:      make([]dto.SaleLineResponse, 0, len(s.Lines)),
	}
	for _, l := range s.Lines {
		out.Lines = append(out.Lines, dto.SaleLineResponse{
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			UnitCost:      l.UnitCost,
			FinishedLotID: l.FinishedLotID,
			LotCode:       l.LotCode,
		})
	}
	return out
}
