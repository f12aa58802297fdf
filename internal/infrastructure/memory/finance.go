package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var (
	_ repository.FinanceRepository          = (*financeRepo)(nil)
	_ repository.RecurringExpenseRepository = (*recurringRepo)(nil)
	_ repository.BalanceRepository          = (*balanceRepo)(nil)
	_ repository.CustomerRepository         = (*customerRepo)(nil)
	_ repository.UserRepository             = (*userRepo)(nil)
)

type financeRepo struct{ t *tx }

func (r *financeRepo) Create(_ context.Context, ft *entity.FinancialTransaction) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if ft.ID == "" {
		ft.ID = uuid.New().String()
	}
	if _, ok := s.finance.get(r.t, ft.ID); ok {
		return domain.ErrDuplicate
	}
	c := *ft
	s.finance.put(r.t, ft.ID, &c)
	return nil
}

func (r *financeRepo) Update(ctx context.Context, ft *entity.FinancialTransaction) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "finance:"+ft.ID); err != nil {
		return err
	}
	if _, ok := s.finance.get(r.t, ft.ID); !ok {
		return domain.ErrNotFound
	}
	c := *ft
	s.finance.put(r.t, ft.ID, &c)
	return nil
}

func (r *financeRepo) Delete(ctx context.Context, id string) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "finance:"+id); err != nil {
		return err
	}
	if _, ok := s.finance.get(r.t, id); !ok {
		return domain.ErrNotFound
	}
	s.finance.put(r.t, id, nil)
	return nil
}

func (r *financeRepo) GetByID(_ context.Context, id string) (*entity.FinancialTransaction, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	ft, ok := s.finance.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *ft
	return &c, nil
}

func (r *financeRepo) ListByMonth(_ context.Context, month, year int) ([]*entity.FinancialTransaction, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.FinancialTransaction{}
	s.finance.each(r.t, func(_ string, ft *entity.FinancialTransaction) {
		if int(ft.Date.Month()) == month && ft.Date.Year() == year {
			c := *ft
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *financeRepo) ExistsDuplicateExpense(_ context.Context, date time.Time, amount decimal.Decimal, category, responsibleID, excludeID string) (bool, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	y, m, d := date.Date()
	found := false
	s.finance.each(r.t, func(_ string, ft *entity.FinancialTransaction) {
		if ft.ID == excludeID || ft.Type != entity.TransactionExpense {
			return
		}
		fy, fm, fd := ft.Date.Date()
		if fy == y && fm == m && fd == d && ft.Amount.Equal(amount) &&
			strings.EqualFold(ft.Category, category) && ft.ResponsibleID == responsibleID {
			found = true
		}
	})
	return found, nil
}

type recurringRepo struct{ t *tx }

func (r *recurringRepo) Create(_ context.Context, re *entity.RecurringExpense) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if re.ID == "" {
		re.ID = uuid.New().String()
	}
	c := *re
	s.recurring.put(r.t, re.ID, &c)
	return nil
}

func (r *recurringRepo) ListActive(_ context.Context) ([]*entity.RecurringExpense, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.RecurringExpense{}
	s.recurring.each(r.t, func(_ string, re *entity.RecurringExpense) {
		if re.Active {
			c := *re
			out = append(out, &c)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MarkGenerated marca la plantilla solo si no se generó ya en el mes de at.
// Espera el bloqueo de la fila, así que de dos llamadas concurrentes solo una devuelve true.
func (r *recurringRepo) MarkGenerated(ctx context.Context, id string, at time.Time) (bool, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := r.t.lockRow(ctx, "recurring:"+id); err != nil {
		return false, err
	}
	re, ok := s.recurring.get(r.t, id)
	if !ok {
		return false, domain.ErrNotFound
	}
	if last := re.LastGenerated; last != nil && last.Year() == at.Year() && last.Month() == at.Month() {
		return false, nil
	}
	next := *re
	d := at
	next.LastGenerated = &d
	s.recurring.put(r.t, id, &next)
	return true, nil
}

type balanceRepo struct{ t *tx }

func cloneBalance(b *entity.MonthlyBalance) *entity.MonthlyBalance {
	c := *b
	if b.Snapshot.IncomeByNature != nil {
		c.Snapshot.IncomeByNature = make(map[string]decimal.Decimal, len(b.Snapshot.IncomeByNature))
		for k, v := range b.Snapshot.IncomeByNature {
			c.Snapshot.IncomeByNature[k] = v
		}
	}
	return &c
}

func (r *balanceRepo) Get(_ context.Context, month, year int) (*entity.MonthlyBalance, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances.get(r.t, periodKey(month, year))
	if !ok {
		return nil, nil
	}
	return cloneBalance(b), nil
}

func (r *balanceRepo) Save(ctx context.Context, snap entity.BalanceSnapshot) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey(snap.Month, snap.Year)
	if err := r.t.lockRow(ctx, "balance:"+key); err != nil {
		return err
	}
	next := cloneBalance(&entity.MonthlyBalance{Month: snap.Month, Year: snap.Year, Snapshot: snap})
	if prev, ok := s.balances.get(r.t, key); ok {
		next.Locked = prev.Locked
	}
	s.balances.put(r.t, key, next)
	return nil
}

func (r *balanceRepo) SetLocked(ctx context.Context, month, year int, locked bool) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := periodKey(month, year)
	if err := r.t.lockRow(ctx, "balance:"+key); err != nil {
		return err
	}
	b, ok := s.balances.get(r.t, key)
	if !ok {
		return domain.ErrNotFound
	}
	next := cloneBalance(b)
	next.Locked = locked
	s.balances.put(r.t, key, next)
	return nil
}

type customerRepo struct{ t *tx }

func (r *customerRepo) Create(_ context.Context, c *entity.Customer) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if _, ok := s.customers.get(r.t, c.ID); ok {
		return domain.ErrDuplicate
	}
	cp := *c
	s.customers.put(r.t, c.ID, &cp)
	return nil
}

func (r *customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers.get(r.t, id)
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *customerRepo) List(_ context.Context, limit, offset int) ([]*entity.Customer, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.Customer{}
	s.customers.each(r.t, func(_ string, c *entity.Customer) {
		cp := *c
		out = append(out, &cp)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return page(out, limit, offset), nil
}

type userRepo struct{ t *tx }

func (r *userRepo) Create(ctx context.Context, u *entity.User) error {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if err := r.t.lockRow(ctx, "user-email:"+strings.ToLower(u.Email)); err != nil {
		return err
	}
	dup := false
	s.users.each(r.t, func(_ string, other *entity.User) {
		if strings.EqualFold(other.Email, u.Email) {
			dup = true
		}
	})
	if dup {
		return domain.ErrDuplicate
	}
	c := *u
	s.users.put(r.t, u.ID, &c)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users.get(r.t, id)
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	s := r.t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var found *entity.User
	s.users.each(r.t, func(_ string, u *entity.User) {
		if strings.EqualFold(u.Email, email) {
			c := *u
			found = &c
		}
	})
	return found, nil
}
