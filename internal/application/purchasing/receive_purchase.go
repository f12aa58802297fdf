// Package purchasing registra compras: crea lotes, suma stock y actualiza el costo promedio.
package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Fabrica-api/internal/domain/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// ReceivePurchaseUseCase recepción de compras.
type ReceivePurchaseUseCase struct {
	txRunner   repository.TxRunner
	repos      repository.Repos
	ledger     *inventory.Ledger
	recomputer finance.Recomputer
	log        zerolog.Logger
}

// NewReceivePurchaseUseCase construye el caso de uso. recomputer puede ser nil.
func NewReceivePurchaseUseCase(txRunner repository.TxRunner, repos repository.Repos, ledger *inventory.Ledger, recomputer finance.Recomputer, log zerolog.Logger) *ReceivePurchaseUseCase {
	return &ReceivePurchaseUseCase{txRunner: txRunner, repos: repos, ledger: ledger, recomputer: recomputer, log: log}
}

func (uc *ReceivePurchaseUseCase) validate(ctx context.Context, in dto.CreatePurchaseRequest) error {
	v := domain.NewValidationError()
	if len(in.Lines) == 0 {
		v.Add("lines", "la compra necesita al menos una línea")
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
		if p == nil {
			v.Add(field+".product_id", "producto inexistente")
		}
	}
	return v.OrNil()
}

// ReceivePurchase bloquea los productos, crea lotes de materia prima, suma stock, recalcula
// el costo promedio ponderado y registra el historial de costos. Luego recalcula el balance del mes.
func (uc *ReceivePurchaseUseCase) ReceivePurchase(ctx context.Context, userID string, in dto.CreatePurchaseRequest) (*dto.PurchaseResponse, error) {
	if err := uc.validate(ctx, in); err != nil {
		return nil, err
	}
	date := time.Now()
	if in.Date != nil && !in.Date.IsZero() {
		date = *in.Date
	}
	purchase := &entity.Purchase{
		ID:         uuid.New().String(),
		SupplierID: in.SupplierID,
		Date:       date,
		CreatedBy:  userID,
		CreatedAt:  time.Now(),
	}
	var lotIDs []string

	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		ids := make([]string, 0, len(in.Lines))
		for _, l := range in.Lines {
			ids = append(ids, l.ProductID)
		}
		locked, err := inventory.LockProducts(ctx, repos.Products, ids)
		if err != nil {
			return err
		}
		if err := repos.Purchases.Create(ctx, purchase); err != nil {
			return err
		}

		total := decimal.Zero
		for _, l := range in.Lines {
			p := locked[l.ProductID]
			line := entity.PurchaseLine{
				ID:         uuid.New().String(),
				PurchaseID: purchase.ID,
				ProductID:  p.ID,
				Quantity:   l.Quantity,
				UnitPrice:  l.UnitPrice,
				LotCode:    l.LotCode,
				ExpiryDate: l.ExpiryDate,
			}
			if p.IsRawMaterial() {
				price := l.UnitPrice
				lot := &entity.RawMaterialLot{
					ID:              uuid.New().String(),
					Code:            lotCode(l.LotCode, p.Code, date),
					ProductID:       p.ID,
					ReceivedDate:    date,
					ExpiryDate:      l.ExpiryDate,
					InitialQuantity: l.Quantity,
					UnitCost:        &price,
					CreatedAt:       time.Now(),
				}
				if err := repos.Lots.CreateRawLot(ctx, lot); err != nil {
					return err
				}
				line.LotID = lot.ID
				line.LotCode = lot.Code
				lotIDs = append(lotIDs, lot.ID)
			}

			newCost := domaininv.CostCalculator(p.QuantityOnHand, p.Cost, l.Quantity, l.UnitPrice)
			if err := repos.Products.UpdateCost(ctx, p.ID, newCost); err != nil {
				return err
			}
			if err := repos.Prices.Create(ctx, &entity.PriceHistory{
				ID:         uuid.New().String(),
				ProductID:  p.ID,
				Price:      p.Price,
				Cost:       newCost,
				RecordedAt: date,
			}); err != nil {
				return err
			}
			if _, err := uc.ledger.ApplyDelta(ctx, repos, inventory.Delta{
				Product:       p,
				Quantity:      l.Quantity,
				Reason:        entity.ReasonPurchase,
				UnitCost:      l.UnitPrice,
				Links:         entity.MovementLinks{PurchaseID: purchase.ID, LotID: line.LotID},
				TransactionID: purchase.ID,
				Date:          date,
				CreatedBy:     userID,
			}); err != nil {
				return err
			}
			p.Cost = newCost
			if err := repos.Purchases.AddLine(ctx, &line); err != nil {
				return err
			}
			purchase.Lines = append(purchase.Lines, line)
			total = total.Add(l.Quantity.Mul(l.UnitPrice))
		}
		purchase.Total = total.Round(2)
		return repos.Purchases.UpdateTotal(ctx, purchase.ID, purchase.Total)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("purchase_id", purchase.ID).Msg("compra revertida")
		return nil, err
	}
	uc.log.Info().Str("purchase_id", purchase.ID).Str("total", purchase.Total.String()).Msg("compra registrada")
	finance.RecomputeAfter(ctx, uc.recomputer, uc.log, date)

	return &dto.PurchaseResponse{
		ID:         purchase.ID,
		SupplierID: purchase.SupplierID,
		Date:       purchase.Date,
		Total:      purchase.Total,
		LotIDs:     lotIDs,
	}, nil
}

// lotCode código indicado o uno generado a partir del producto y la fecha.
func lotCode(given, productCode string, date time.Time) string {
	if c := strings.TrimSpace(given); c != "" {
		return c
	}
	return fmt.Sprintf("%s-%s-%s", productCode, date.Format("20060102"), strings.ToUpper(uuid.New().String()[:6]))
}
