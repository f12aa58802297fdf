package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*movementRepo)(nil)
	_ repository.SaleRepository              = (*saleRepo)(nil)
	_ repository.PurchaseRepository          = (*purchaseRepo)(nil)
	_ repository.ReturnRepository            = (*returnRepo)(nil)
)

type movementRepo struct{ t *tx }

func (r *movementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if !m.Quantity.IsPositive() {
		return &domain.IntegrityError{Constraint: "inventory_movements_quantity_check", Err: domain.ErrInvalidInput}
	}
	c := *m
	s.movements.add(r.t, &c)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movements.all(r.t) {
		if m.ID == id {
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

// collect devuelve copias de los movimientos que cumplen keep, del más reciente al más antiguo.
func (r *movementRepo) collect(keep func(m *entity.InventoryMovement) bool) []*entity.InventoryMovement {
	all := r.t.s.movements.all(r.t)
	out := []*entity.InventoryMovement{}
	for i := len(all) - 1; i >= 0; i-- {
		if keep(all[i]) {
			c := *all[i]
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

func (r *movementRepo) ListByProduct(_ context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := r.collect(func(m *entity.InventoryMovement) bool {
		if m.ProductID != productID {
			return false
		}
		if from != nil && m.Date.Before(*from) {
			return false
		}
		if to != nil && m.Date.After(*to) {
			return false
		}
		return true
	})
	return page(out, limit, offset), nil
}

func (r *movementRepo) ListBySale(_ context.Context, saleID string) ([]*entity.InventoryMovement, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.InventoryMovement{}
	for _, m := range s.movements.all(r.t) {
		if m.Links.SaleID == saleID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

type saleRepo struct{ t *tx }

func (r *saleRepo) Create(_ context.Context, sale *entity.Sale) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	if _, ok := s.sales.get(r.t, sale.ID); ok {
		return domain.ErrDuplicate
	}
	c := *sale
	c.Lines = nil
	s.sales.put(r.t, sale.ID, &c)
	return nil
}

func (r *saleRepo) AddLine(ctx context.Context, line *entity.SaleLine) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales.get(r.t, line.SaleID); !ok {
		return &domain.IntegrityError{Constraint: "sale_lines_sale_id_fkey", Err: domain.ErrNotFound}
	}
	if err := r.t.lockRow(ctx, "sale:"+line.SaleID); err != nil {
		return err
	}
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	var prev []entity.SaleLine
	if cur, ok := s.saleLines.get(r.t, line.SaleID); ok {
		prev = *cur
	}
	next := append(append([]entity.SaleLine(nil), prev...), *line)
	s.saleLines.put(r.t, line.SaleID, &next)
	return nil
}

func (r *saleRepo) UpdateTotal(ctx context.Context, saleID string, total decimal.Decimal) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "sale:"+saleID); err != nil {
		return err
	}
	sale, ok := s.sales.get(r.t, saleID)
	if !ok {
		return domain.ErrNotFound
	}
	next := *sale
	next.Total = total
	s.sales.put(r.t, saleID, &next)
	return nil
}

func (r *saleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sale, ok := s.sales.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *sale
	if lines, ok := s.saleLines.get(r.t, id); ok {
		c.Lines = append([]entity.SaleLine(nil), *lines...)
	}
	return &c, nil
}

func (r *saleRepo) SumTotalByMonth(_ context.Context, month, year int) (decimal.Decimal, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	s.sales.each(r.t, func(_ string, sale *entity.Sale) {
		if int(sale.Date.Month()) == month && sale.Date.Year() == year {
			sum = sum.Add(sale.Total)
		}
	})
	return sum, nil
}

type purchaseRepo struct{ t *tx }

func (r *purchaseRepo) Create(_ context.Context, p *entity.Purchase) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, ok := s.purchases.get(r.t, p.ID); ok {
		return domain.ErrDuplicate
	}
	c := *p
	c.Lines = nil
	s.purchases.put(r.t, p.ID, &c)
	return nil
}

func (r *purchaseRepo) AddLine(ctx context.Context, line *entity.PurchaseLine) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases.get(r.t, line.PurchaseID); !ok {
		return &domain.IntegrityError{Constraint: "purchase_lines_purchase_id_fkey", Err: domain.ErrNotFound}
	}
	if err := r.t.lockRow(ctx, "purchase:"+line.PurchaseID); err != nil {
		return err
	}
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	var prev []entity.PurchaseLine
	if cur, ok := s.purLines.get(r.t, line.PurchaseID); ok {
		prev = *cur
	}
	next := append(append([]entity.PurchaseLine(nil), prev...), *line)
	s.purLines.put(r.t, line.PurchaseID, &next)
	return nil
}

func (r *purchaseRepo) UpdateTotal(ctx context.Context, purchaseID string, total decimal.Decimal) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "purchase:"+purchaseID); err != nil {
		return err
	}
	p, ok := s.purchases.get(r.t, purchaseID)
	if !ok {
		return domain.ErrNotFound
	}
	next := *p
	next.Total = total
	s.purchases.put(r.t, purchaseID, &next)
	return nil
}

func (r *purchaseRepo) GetByID(_ context.Context, id string) (*entity.Purchase, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *p
	if lines, ok := s.purLines.get(r.t, id); ok {
		c.Lines = append([]entity.PurchaseLine(nil), *lines...)
	}
	return &c, nil
}

func (r *purchaseRepo) SumTotalByMonth(_ context.Context, month, year int) (decimal.Decimal, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := decimal.Zero
	s.purchases.each(r.t, func(_ string, p *entity.Purchase) {
		if int(p.Date.Month()) == month && p.Date.Year() == year {
			sum = sum.Add(p.Total)
		}
	})
	return sum, nil
}

type returnRepo struct{ t *tx }

func (r *returnRepo) Create(_ context.Context, ret *entity.ProductReturn) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if ret.ID == "" {
		ret.ID = uuid.New().String()
	}
	c := *ret
	s.returns.put(r.t, ret.ID, &c)
	return nil
}
