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
	_ repository.ProductRepository      = (*productRepo)(nil)
	_ repository.PriceHistoryRepository = (*priceRepo)(nil)
)

type productRepo struct{ t *tx }

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	return &c
}

func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if err := r.t.lockRow(ctx, "product-code:"+p.Code); err != nil {
		return err
	}
	if _, ok := s.products.get(r.t, p.ID); ok {
		return domain.ErrDuplicate
	}
	dup := false
	s.products.each(r.t, func(_ string, other *entity.Product) {
		if other.Code == p.Code {
			dup = true
		}
	})
	if dup {
		return domain.ErrDuplicate
	}
	s.products.put(r.t, p.ID, cloneProduct(p))
	return nil
}

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products.get(r.t, id)
	if !ok {
		return nil, nil
	}
	return cloneProduct(p), nil
}

func (r *productRepo) GetByCode(_ context.Context, code string) (*entity.Product, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *entity.Product
	s.products.each(r.t, func(_ string, p *entity.Product) {
		if p.Code == code {
			found = cloneProduct(p)
		}
	})
	return found, nil
}

func (r *productRepo) sorted(keep func(*entity.Product) bool) []*entity.Product {
	var out []*entity.Product
	r.t.s.products.each(r.t, func(_ string, p *entity.Product) {
		if keep == nil || keep(p) {
			out = append(out, cloneProduct(p))
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *productRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return page(r.sorted(nil), limit, offset), nil
}

func (r *productRepo) ListBelowReorderPoint(_ context.Context) ([]*entity.Product, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := r.sorted(func(p *entity.Product) bool {
		return p.ReorderPoint.IsPositive() && p.QuantityOnHand.LessThanOrEqual(p.ReorderPoint)
	})
	if out == nil {
		out = []*entity.Product{}
	}
	return out, nil
}

// mutate bloquea la fila y escribe en la capa de la transacción una copia modificada por fn.
// Se llama con s.mu tomado.
func (r *productRepo) mutate(ctx context.Context, id string, fn func(p *entity.Product)) error {
	s := r.t.s
	if err := r.t.lockRow(ctx, "product:"+id); err != nil {
		return err
	}
	p, ok := s.products.get(r.t, id)
	if !ok {
		return domain.ErrNotFound
	}
	next := cloneProduct(p)
	fn(next)
	s.products.put(r.t, id, next)
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.mutate(ctx, p.ID, func(cur *entity.Product) {
		qty := cur.QuantityOnHand
		*cur = *p
		cur.QuantityOnHand = qty
		cur.UpdatedAt = time.Now()
	})
}

func (r *productRepo) UpdateCost(ctx context.Context, id string, cost decimal.Decimal) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	return r.mutate(ctx, id, func(p *entity.Product) {
		p.Cost = cost
		p.UpdatedAt = time.Now()
	})
}

func (r *productRepo) LockNoWait(_ context.Context, id string) (*entity.Product, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products.get(r.t, id)
	if !ok {
		return nil, nil
	}
	if err := r.t.lockNoWait("product:" + id); err != nil {
		return nil, err
	}
	return cloneProduct(p), nil
}

func (r *productRepo) ApplyDelta(ctx context.Context, id string, delta decimal.Decimal) (decimal.Decimal, bool, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "product:"+id); err != nil {
		return decimal.Zero, false, err
	}
	p, ok := s.products.get(r.t, id)
	if !ok {
		return decimal.Zero, false, domain.ErrNotFound
	}
	next := p.QuantityOnHand.Add(delta)
	if next.IsNegative() {
		return p.QuantityOnHand, false, nil
	}
	err := r.mutate(ctx, id, func(p *entity.Product) {
		p.QuantityOnHand = next
		p.UpdatedAt = time.Now()
	})
	return next, err == nil, err
}

type priceRepo struct{ t *tx }

func (r *priceRepo) Create(_ context.Context, h *entity.PriceHistory) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	c := *h
	s.prices.add(r.t, &c)
	return nil
}

func (r *priceRepo) LatestOnOrBefore(_ context.Context, productID string, at time.Time) (*entity.PriceHistory, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.PriceHistory
	for _, h := range s.prices.all(r.t) {
		if h.ProductID != productID || h.RecordedAt.After(at) {
			continue
		}
		if best == nil || !h.RecordedAt.Before(best.RecordedAt) {
			best = h
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}

func (r *priceRepo) Earliest(_ context.Context, productID string) (*entity.PriceHistory, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.PriceHistory
	for _, h := range s.prices.all(r.t) {
		if h.ProductID == productID && (best == nil || h.RecordedAt.Before(best.RecordedAt)) {
			best = h
		}
	}
	if best == nil {
		return nil, nil
	}
	c := *best
	return &c, nil
}
