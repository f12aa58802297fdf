package finance

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
	"github.com/jhoicas/Fabrica-api/internal/testutil"
)

var D = testutil.D

// mapCache caché en memoria para observar lecturas y escrituras.
type mapCache struct {
	mu   sync.Mutex
	data map[string]entity.MonthlyBalance
	hits int
}

func newMapCache() *mapCache { return &mapCache{data: map[string]entity.MonthlyBalance{}} }

func (c *mapCache) Get(_ context.Context, month, year int) (*entity.MonthlyBalance, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[periodKey(month, year)]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &b, true, nil
}

func (c *mapCache) Set(_ context.Context, b *entity.MonthlyBalance, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[periodKey(b.Month, b.Year)] = *b
	return nil
}

func (c *mapCache) Delete(_ context.Context, month, year int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, periodKey(month, year))
	return nil
}

func setup(t *testing.T) (*testutil.Fixture, *BalanceRecalculator, *TransactionUseCase) {
	f := testutil.New(t)
	repos := f.Store.Repos()
	rc := NewBalanceRecalculator(f.Store, repos.Balances, newMapCache(), time.Minute, zerolog.Nop())
	return f, rc, NewTransactionUseCase(f.Store, repos, rc, zerolog.Nop())
}

func expense(amount, category string, date time.Time) dto.TransactionRequest {
	return dto.TransactionRequest{Type: entity.TransactionExpense, Amount: D(amount), Date: date, Category: category}
}

func TestTransactionCreate_RecomputesBalance(t *testing.T) {
	f, rc, uc := setup(t)
	date := testutil.Day(2025, 4, 10)

	res, err := uc.Create(f.Ctx, "u1", expense("100", "alquiler", date))
	require.NoError(t, err)
	assert.Equal(t, entity.CostTypeFixed, res.CostType)
	assert.True(t, res.Operating)
	assert.Equal(t, entity.NatureOperational, res.Nature)

	_, err = uc.Create(f.Ctx, "u1", dto.TransactionRequest{Type: entity.TransactionIncome, Amount: D("40"), Date: date, Category: "otros"})
	require.NoError(t, err)

	b, err := rc.Get(f.Ctx, 4, 2025)
	require.NoError(t, err)
	assert.True(t, b.Snapshot.FixedCosts.Equal(D("100")))
	assert.True(t, b.Snapshot.TotalIncome.Equal(D("40")))
	assert.True(t, b.Snapshot.NetProfit.Equal(D("-60")))
}

func TestTransactionCreate_Validation(t *testing.T) {
	f, _, uc := setup(t)
	_, err := uc.Create(f.Ctx, "u1", dto.TransactionRequest{Type: "OTRO", Amount: D("0"), CostType: "X", Nature: "Y"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	for _, field := range []string{"type", "amount", "date", "category", "cost_type", "nature"} {
		assert.Contains(t, ve.Fields, field)
	}
}

func TestTransactionCreate_RejectsDuplicateExpense(t *testing.T) {
	f, _, uc := setup(t)
	date := testutil.Day(2025, 4, 10)

	_, err := uc.Create(f.Ctx, "u1", expense("55.00", "Empaque", date))
	require.NoError(t, err)

	_, err = uc.Create(f.Ctx, "u1", expense("55", "empaque", date.Add(3*time.Hour)))
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	// otro responsable o un ingreso no cuentan como duplicado
	_, err = uc.Create(f.Ctx, "u2", expense("55", "empaque", date))
	assert.NoError(t, err)
	in := expense("55", "empaque", date)
	in.Type = entity.TransactionIncome
	_, err = uc.Create(f.Ctx, "u1", in)
	assert.NoError(t, err)
}

func TestTransaction_LockedPeriod(t *testing.T) {
	f, rc, uc := setup(t)
	date := testutil.Day(2025, 4, 10)
	created, err := uc.Create(f.Ctx, "u1", expense("10", "sueldos", date))
	require.NoError(t, err)

	closed, err := rc.ClosePeriod(f.Ctx, 4, 2025)
	require.NoError(t, err)
	assert.True(t, closed.Locked)

	_, err = uc.Create(f.Ctx, "u1", expense("20", "sueldos", date))
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)
	_, err = uc.Update(f.Ctx, created.ID, expense("30", "sueldos", testutil.Day(2025, 5, 1)))
	assert.ErrorIs(t, err, domain.ErrPeriodLocked)
	assert.ErrorIs(t, uc.Delete(f.Ctx, created.ID), domain.ErrPeriodLocked)

	reopened, err := rc.ReopenPeriod(f.Ctx, 4, 2025)
	require.NoError(t, err)
	assert.False(t, reopened.Locked)
	assert.NoError(t, uc.Delete(f.Ctx, created.ID))
}

func TestTransactionUpdate_MovesBetweenMonths(t *testing.T) {
	f, rc, uc := setup(t)
	created, err := uc.Create(f.Ctx, "u1", expense("10", "sueldos", testutil.Day(2025, 4, 10)))
	require.NoError(t, err)

	_, err = uc.Update(f.Ctx, created.ID, expense("10", "sueldos", testutil.Day(2025, 5, 2)))
	require.NoError(t, err)

	april, err := rc.Get(f.Ctx, 4, 2025)
	require.NoError(t, err)
	assert.True(t, april.Snapshot.FixedCosts.IsZero())
	may, err := rc.Get(f.Ctx, 5, 2025)
	require.NoError(t, err)
	assert.True(t, may.Snapshot.FixedCosts.Equal(D("10")))
}

func TestTransaction_NotFound(t *testing.T) {
	f, _, uc := setup(t)
	_, err := uc.GetByID(f.Ctx, "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.Update(f.Ctx, "x", expense("1", "sueldos", testutil.Day(2025, 1, 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(f.Ctx, "x"), domain.ErrNotFound)
}

func TestRecompute_Idempotent(t *testing.T) {
	f, rc, uc := setup(t)
	date := testutil.Day(2025, 6, 3)
	_, err := uc.Create(f.Ctx, "u1", expense("12.34", "materia_prima", date))
	require.NoError(t, err)

	first, err := rc.Recompute(f.Ctx, 6, 2025)
	require.NoError(t, err)
	second, err := rc.Recompute(f.Ctx, 6, 2025)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestRecompute_LockedPeriodUntouched(t *testing.T) {
	f, rc, uc := setup(t)
	_, err := uc.Create(f.Ctx, "u1", expense("10", "sueldos", testutil.Day(2025, 7, 1)))
	require.NoError(t, err)
	_, err = rc.ClosePeriod(f.Ctx, 7, 2025)
	require.NoError(t, err)

	// una venta escrita directamente no altera el período cerrado
	sale := &entity.Sale{ID: "s1", Date: testutil.Day(2025, 7, 2), SellerID: "u1", Total: D("500")}
	require.NoError(t, f.Store.Repos().Sales.Create(f.Ctx, sale))

	snap, err := rc.Recompute(f.Ctx, 7, 2025)
	require.NoError(t, err)
	assert.True(t, snap.Sales.IsZero())
}

func TestRecompute_InvalidPeriod(t *testing.T) {
	_, rc, _ := setup(t)
	_, err := rc.Recompute(context.Background(), 13, 2025)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = rc.Get(context.Background(), 0, 2025)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReopenPeriod_Missing(t *testing.T) {
	_, rc, _ := setup(t)
	_, err := rc.ReopenPeriod(context.Background(), 1, 2030)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_UsesCache(t *testing.T) {
	f := testutil.New(t)
	c := newMapCache()
	rc := NewBalanceRecalculator(f.Store, f.Store.Repos().Balances, c, time.Minute, zerolog.Nop())

	_, err := rc.Get(f.Ctx, 8, 2025)
	require.NoError(t, err)
	assert.Equal(t, 0, c.hits)
	_, err = rc.Get(f.Ctx, 8, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, c.hits)

	_, err = rc.ClosePeriod(f.Ctx, 8, 2025)
	require.NoError(t, err)
	b, err := rc.Get(f.Ctx, 8, 2025)
	require.NoError(t, err)
	assert.True(t, b.Locked)
}

func TestRecurringExpenses_GenerateOncePerMonth(t *testing.T) {
	f := testutil.New(t)
	repos := f.Store.Repos()
	rc := NewBalanceRecalculator(f.Store, repos.Balances, newMapCache(), time.Minute, zerolog.Nop())
	uc := NewRecurringExpenseUseCase(f.Store, rc, zerolog.Nop())

	require.NoError(t, repos.RecurringExpenses.Create(f.Ctx, &entity.RecurringExpense{
		ID: "r1", Name: "Arriendo", Category: "alquiler", Amount: D("800"), CutoffDay: 31, Active: true, ResponsibleID: "u1",
	}))
	require.NoError(t, repos.RecurringExpenses.Create(f.Ctx, &entity.RecurringExpense{
		ID: "r2", Name: "Viejo", Category: "seguros", Amount: D("50"), CutoffDay: 5, Active: false,
	}))

	created, err := uc.Generate(f.Ctx, testutil.Day(2025, 2, 10))
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, testutil.Day(2025, 2, 28), created[0].Date)
	assert.Equal(t, entity.CostTypeFixed, created[0].CostType)

	again, err := uc.Generate(f.Ctx, testutil.Day(2025, 2, 20))
	require.NoError(t, err)
	assert.Empty(t, again)

	feb, err := repos.Balances.Get(f.Ctx, 2, 2025)
	require.NoError(t, err)
	require.NotNil(t, feb)
	assert.True(t, feb.Snapshot.FixedCosts.Equal(D("800")))

	march, err := uc.Generate(f.Ctx, testutil.Day(2025, 3, 1))
	require.NoError(t, err)
	require.Len(t, march, 1)
	assert.Equal(t, testutil.Day(2025, 3, 31), march[0].Date)
}

// pausedRunner detiene el primer ListByMonth (ya leído) hasta que se cierre release.
type pausedRunner struct {
	inner   repository.TxRunner
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

type pausedFinance struct {
	repository.FinanceRepository
	r *pausedRunner
}

func (p pausedFinance) ListByMonth(ctx context.Context, month, year int) ([]*entity.FinancialTransaction, error) {
	out, err := p.FinanceRepository.ListByMonth(ctx, month, year)
	p.r.once.Do(func() {
		close(p.r.entered)
		<-p.r.release
	})
	return out, err
}

func (r *pausedRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	return r.inner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		repos.Finance = pausedFinance{FinanceRepository: repos.Finance, r: r}
		return fn(ctx, repos)
	})
}

func TestRecompute_AfterCommitNotServedByEarlierRun(t *testing.T) {
	f := testutil.New(t)
	repos := f.Store.Repos()
	runner := &pausedRunner{inner: f.Store, entered: make(chan struct{}), release: make(chan struct{})}
	rc := NewBalanceRecalculator(runner, repos.Balances, newMapCache(), time.Minute, zerolog.Nop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := rc.Recompute(f.Ctx, 4, 2025)
		assert.NoError(t, err)
	}()
	<-runner.entered

	// la primera corrida ya leyó las transacciones; este gasto se confirma después
	require.NoError(t, repos.Finance.Create(f.Ctx, &entity.FinancialTransaction{
		ID: "ft-100", Type: entity.TransactionExpense, Amount: D("100"), Date: testutil.Day(2025, 4, 15),
		Category: "sueldos", CostType: entity.CostTypeFixed, Operating: true, Nature: entity.NatureOperational,
	}))

	var after entity.BalanceSnapshot
	wg.Add(1)
	go func() {
		defer wg.Done()
		snap, err := rc.Recompute(f.Ctx, 4, 2025)
		assert.NoError(t, err)
		after = snap
	}()
	time.Sleep(20 * time.Millisecond)
	close(runner.release)
	wg.Wait()

	assert.True(t, after.TotalExpense.Equal(D("100")), "got %s", after.TotalExpense)
	stored, err := repos.Balances.Get(f.Ctx, 4, 2025)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Snapshot.TotalExpense.Equal(D("100")))
}

func TestRecurringExpenses_ConcurrentGenerateCreatesOne(t *testing.T) {
	f := testutil.New(t)
	repos := f.Store.Repos()
	rc := NewBalanceRecalculator(f.Store, repos.Balances, newMapCache(), time.Minute, zerolog.Nop())
	uc := NewRecurringExpenseUseCase(f.Store, rc, zerolog.Nop())
	require.NoError(t, repos.RecurringExpenses.Create(f.Ctx, &entity.RecurringExpense{
		ID: "r1", Name: "Arriendo", Category: "alquiler", Amount: D("800"), CutoffDay: 1, Active: true,
	}))

	const workers = 8
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := uc.Generate(f.Ctx, testutil.Day(2025, 9, 3))
			assert.NoError(t, err)
			mu.Lock()
			total += len(created)
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, total)
	txs, err := repos.Finance.ListByMonth(f.Ctx, 9, 2025)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestRecurringExpenses_SkipsClosedPeriod(t *testing.T) {
	f := testutil.New(t)
	repos := f.Store.Repos()
	rc := NewBalanceRecalculator(f.Store, repos.Balances, newMapCache(), time.Minute, zerolog.Nop())
	uc := NewRecurringExpenseUseCase(f.Store, rc, zerolog.Nop())
	require.NoError(t, repos.RecurringExpenses.Create(f.Ctx, &entity.RecurringExpense{
		ID: "r1", Name: "Arriendo", Category: "alquiler", Amount: D("800"), CutoffDay: 1, Active: true,
	}))
	_, err := rc.ClosePeriod(f.Ctx, 10, 2025)
	require.NoError(t, err)

	created, err := uc.Generate(f.Ctx, testutil.Day(2025, 10, 2))
	require.NoError(t, err)
	assert.Empty(t, created)
	txs, err := repos.Finance.ListByMonth(f.Ctx, 10, 2025)
	require.NoError(t, err)
	assert.Empty(t, txs)

	// al reabrir se genera
	_, err = rc.ReopenPeriod(f.Ctx, 10, 2025)
	require.NoError(t, err)
	created, err = uc.Generate(f.Ctx, testutil.Day(2025, 10, 2))
	require.NoError(t, err)
	assert.Len(t, created, 1)
}
