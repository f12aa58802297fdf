package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Fabrica-api/internal/domain/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// Allocation porción de una cantidad asignada a un lote. LotID vacío indica
// asignación contra el agregado (producto sin lotes registrados).
type Allocation struct {
	LotID    string
	LotCode  string
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// Pseudo indica si la asignación no corresponde a un lote real.
func (a Allocation) Pseudo() bool { return a.LotID == "" }

// LotAllocator reparte consumos entre lotes en orden FIFO.
type LotAllocator struct{}

// NewLotAllocator construye el asignador.
func NewLotAllocator() *LotAllocator { return &LotAllocator{} }

// Allocate planifica el consumo de qty del producto. No escribe nada; Consume aplica el plan.
func (a *LotAllocator) Allocate(ctx context.Context, repos repository.Repos, product *entity.Product, qty decimal.Decimal, _ time.Time) ([]Allocation, error) {
	if !qty.IsPositive() {
		return nil, domain.ErrInvalidInput
	}

	var (
		count      int
		candidates []domaininv.LotCandidate
		snapshots  = map[string]*decimal.Decimal{}
		err        error
	)
	if product.IsRawMaterial() {
		count, err = repos.Lots.CountRawLots(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		lots, err := repos.Lots.ListAvailableRawLots(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range lots {
			candidates = append(candidates, domaininv.LotCandidate{LotID: l.ID, LotCode: l.Code, Date: l.ReceivedDate, Available: l.Available()})
			snapshots[l.ID] = l.UnitCost
		}
	} else {
		count, err = repos.Lots.CountFinishedLots(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		lots, err := repos.Lots.ListAvailableFinishedLots(ctx, product.ID)
		if err != nil {
			return nil, err
		}
		for _, l := range lots {
			candidates = append(candidates, domaininv.LotCandidate{LotID: l.ID, LotCode: l.Code, Date: l.ProducedDate, Available: l.Available()})
			snapshots[l.ID] = l.UnitCost
		}
	}

	if count == 0 {
		return []Allocation{{Quantity: qty, UnitCost: product.Cost}}, nil
	}

	picks, available, ok := domaininv.PlanFIFO(candidates, qty)
	if !ok {
		return nil, &domain.InsufficientBatchStockError{ProductID: product.ID, Requested: qty, AvailableInLots: available}
	}

	dates := make(map[string]time.Time, len(candidates))
	for _, c := range candidates {
		dates[c.LotID] = c.Date
	}
	out := make([]Allocation, 0, len(picks))
	for _, p := range picks {
		cost, err := domaininv.ResolveCost(ctx,
			domaininv.Fixed(snapshots[p.LotID]),
			historyCost(repos.Prices, product.ID, dates[p.LotID]),
			domaininv.Fixed(&product.Cost),
		)
		if err != nil {
			return nil, err
		}
		out = append(out, Allocation{LotID: p.LotID, LotCode: p.LotCode, Quantity: p.Quantity, UnitCost: cost})
	}
	return out, nil
}

// Consume aplica el plan sobre los lotes con escrituras condicionales.
// Si otro consumo se adelantó, el lote ya no alcanza y se devuelve InsufficientBatchStockError.
func (a *LotAllocator) Consume(ctx context.Context, repos repository.Repos, product *entity.Product, allocs []Allocation, at time.Time) error {
	for _, al := range allocs {
		if al.Pseudo() {
			continue
		}
		var (
			ok  bool
			err error
		)
		if product.IsRawMaterial() {
			ok, err = repos.Lots.ConsumeRawLot(ctx, al.LotID, al.Quantity, at)
		} else {
			ok, err = repos.Lots.SellFromFinishedLot(ctx, al.LotID, al.Quantity)
		}
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InsufficientBatchStockError{ProductID: product.ID, Requested: al.Quantity, AvailableInLots: decimal.Zero}
		}
	}
	return nil
}

// historyCost costo del historial más cercano a la fecha del lote (<=), o el más antiguo si no hay previo.
func historyCost(prices repository.PriceHistoryRepository, productID string, at time.Time) domaininv.CostSource {
	return func(ctx context.Context) (decimal.Decimal, bool, error) {
		h, err := prices.LatestOnOrBefore(ctx, productID, at)
		if err != nil {
			return decimal.Zero, false, err
		}
		if h == nil {
			h, err = prices.Earliest(ctx, productID)
			if err != nil {
				return decimal.Zero, false, err
			}
		}
		if h == nil {
			return decimal.Zero, false, nil
		}
		return h.Cost, true, nil
	}
}
