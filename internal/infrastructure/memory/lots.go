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
	_ repository.LotRepository    = (*lotRepo)(nil)
	_ repository.RecipeRepository = (*recipeRepo)(nil)
)

type lotRepo struct{ t *tx }

func (r *lotRepo) CreateRawLot(_ context.Context, lot *entity.RawMaterialLot) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	if _, ok := s.rawLots.get(r.t, lot.ID); ok {
		return domain.ErrDuplicate
	}
	c := *lot
	s.rawLots.put(r.t, lot.ID, &c)
	return nil
}

func (r *lotRepo) CreateFinishedLot(_ context.Context, lot *entity.FinishedGoodLot) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if lot.ID == "" {
		lot.ID = uuid.New().String()
	}
	if _, ok := s.finLots.get(r.t, lot.ID); ok {
		return domain.ErrDuplicate
	}
	c := *lot
	s.finLots.put(r.t, lot.ID, &c)
	return nil
}

func (r *lotRepo) GetRawLot(_ context.Context, id string) (*entity.RawMaterialLot, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rawLots.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *lotRepo) GetFinishedLot(_ context.Context, id string) (*entity.FinishedGoodLot, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.finLots.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *lotRepo) CountRawLots(_ context.Context, productID string) (int, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.rawLots.each(r.t, func(_ string, l *entity.RawMaterialLot) {
		if l.ProductID == productID {
			n++
		}
	})
	return n, nil
}

func (r *lotRepo) CountFinishedLots(_ context.Context, productID string) (int, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	s.finLots.each(r.t, func(_ string, l *entity.FinishedGoodLot) {
		if l.ProductID == productID {
			n++
		}
	})
	return n, nil
}

func (r *lotRepo) ListAvailableRawLots(_ context.Context, productID string) ([]*entity.RawMaterialLot, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.RawMaterialLot{}
	s.rawLots.each(r.t, func(_ string, l *entity.RawMaterialLot) {
		if l.ProductID == productID && l.Available().IsPositive() {
			c := *l
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedDate.Equal(out[j].ReceivedDate) {
			return out[i].ReceivedDate.Before(out[j].ReceivedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *lotRepo) ListAvailableFinishedLots(_ context.Context, productID string) ([]*entity.FinishedGoodLot, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.FinishedGoodLot{}
	s.finLots.each(r.t, func(_ string, l *entity.FinishedGoodLot) {
		if l.ProductID == productID && l.Available().IsPositive() {
			c := *l
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ProducedDate.Equal(out[j].ProducedDate) {
			return out[i].ProducedDate.Before(out[j].ProducedDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *lotRepo) ListExpiringRawLots(_ context.Context, until time.Time) ([]*entity.RawMaterialLot, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.RawMaterialLot{}
	s.rawLots.each(r.t, func(_ string, l *entity.RawMaterialLot) {
		if l.ExpiryDate != nil && !l.ExpiryDate.After(until) && l.Available().IsPositive() {
			c := *l
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryDate.Equal(*out[j].ExpiryDate) {
			return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *lotRepo) ConsumeRawLot(ctx context.Context, lotID string, qty decimal.Decimal, at time.Time) (bool, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "rawlot:"+lotID); err != nil {
		return false, err
	}
	l, ok := s.rawLots.get(r.t, lotID)
	if !ok {
		return false, domain.ErrNotFound
	}
	if l.Available().LessThan(qty) {
		return false, nil
	}
	next := *l
	next.ConsumedQuantity = next.ConsumedQuantity.Add(qty)
	if next.ExhaustedDate == nil && !next.Available().IsPositive() {
		d := at
		next.ExhaustedDate = &d
	}
	s.rawLots.put(r.t, lotID, &next)
	return true, nil
}

// finishedMutation aplica fn a una copia del lote final; fn devuelve false si no hay disponible suficiente.
func (r *lotRepo) finishedMutation(ctx context.Context, lotID string, fn func(l *entity.FinishedGoodLot) bool) (bool, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "finlot:"+lotID); err != nil {
		return false, err
	}
	l, ok := s.finLots.get(r.t, lotID)
	if !ok {
		return false, domain.ErrNotFound
	}
	next := *l
	if !fn(&next) {
		return false, nil
	}
	s.finLots.put(r.t, lotID, &next)
	return true, nil
}

func (r *lotRepo) SellFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error) {
	return r.finishedMutation(ctx, lotID, func(l *entity.FinishedGoodLot) bool {
		if l.Available().LessThan(qty) {
			return false
		}
		l.SoldQuantity = l.SoldQuantity.Add(qty)
		return true
	})
}

func (r *lotRepo) DiscardFromFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) (bool, error) {
	return r.finishedMutation(ctx, lotID, func(l *entity.FinishedGoodLot) bool {
		if l.Available().LessThan(qty) {
			return false
		}
		l.DiscardedQuantity = l.DiscardedQuantity.Add(qty)
		return true
	})
}

func (r *lotRepo) ReturnToFinishedLot(ctx context.Context, lotID string, qty decimal.Decimal) error {
	_, err := r.finishedMutation(ctx, lotID, func(l *entity.FinishedGoodLot) bool {
		l.ReturnedQuantity = l.ReturnedQuantity.Add(qty)
		return true
	})
	return err
}

func (r *lotRepo) CreateLotUsage(_ context.Context, u *entity.LotUsage) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	c := *u
	s.usages.add(r.t, &c)
	return nil
}

// LotUsages devuelve los consumos confirmados de un lote final.
func (s *Store) LotUsages(finishedLotID string) []entity.LotUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.LotUsage{}
	for _, u := range s.usages.rows {
		if u.FinishedLotID == finishedLotID {
			out = append(out, *u)
		}
	}
	return out
}

type recipeRepo struct{ t *tx }

func scopeKey(finishedProductID, batchCode string) string {
	return "recipe-scope:" + finishedProductID + "|" + batchCode
}

func (r *recipeRepo) ListActive(_ context.Context, finishedProductID, batchCode string) ([]*entity.RecipeLine, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.RecipeLine{}
	s.recipes.each(r.t, func(_ string, l *entity.RecipeLine) {
		if l.Active && l.FinishedProductID == finishedProductID && l.BatchCode == batchCode {
			c := *l
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RawMaterialID < out[j].RawMaterialID })
	return out, nil
}

func (r *recipeRepo) DeactivateScope(ctx context.Context, finishedProductID, batchCode string) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, scopeKey(finishedProductID, batchCode)); err != nil {
		return err
	}
	var off []*entity.RecipeLine
	s.recipes.each(r.t, func(_ string, l *entity.RecipeLine) {
		if l.Active && l.FinishedProductID == finishedProductID && l.BatchCode == batchCode {
			c := *l
			c.Active = false
			off = append(off, &c)
		}
	})
	for _, l := range off {
		s.recipes.put(r.t, l.ID, l)
	}
	return nil
}

func (r *recipeRepo) Create(ctx context.Context, line *entity.RecipeLine) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if line.ID == "" {
		line.ID = uuid.New().String()
	}
	if err := r.t.lockRow(ctx, scopeKey(line.FinishedProductID, line.BatchCode)); err != nil {
		return err
	}
	if line.Active {
		dup := false
		s.recipes.each(r.t, func(_ string, l *entity.RecipeLine) {
			if l.Active && l.FinishedProductID == line.FinishedProductID &&
				l.BatchCode == line.BatchCode && l.RawMaterialID == line.RawMaterialID {
				dup = true
			}
		})
		if dup {
			return domain.ErrDuplicate
		}
	}
	c := *line
	s.recipes.put(r.t, line.ID, &c)
	return nil
}
