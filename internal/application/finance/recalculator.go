// Package finance mantiene el balance mensual consistente con ventas, compras y transacciones.
package finance

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domainfin "github.com/jhoicas/Fabrica-api/internal/domain/finance"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ Recomputer = (*BalanceRecalculator)(nil)

// BalanceRecalculator recalcula y guarda el balance de un período en su propia transacción.
// Los recálculos de un mismo período se serializan; una llamada solo reutiliza el resultado
// de una corrida que empezó después de ella, así que nunca devuelve un balance anterior a sus escrituras.
type BalanceRecalculator struct {
	txRunner repository.TxRunner
	balances repository.BalanceRepository
	cache    BalanceCache
	ttl      time.Duration
	gates    sync.Map // periodKey -> *periodGate
	group    singleflight.Group
	log      zerolog.Logger
}

// periodGate turnos de recálculo de un período.
type periodGate struct {
	mu        sync.Mutex
	requested atomic.Uint64
	done      uint64
	last      *entity.MonthlyBalance
}

// NewBalanceRecalculator construye el recalculador. balances es el repo de lectura (fuera de tx).
func NewBalanceRecalculator(txRunner repository.TxRunner, balances repository.BalanceRepository, cache BalanceCache, ttl time.Duration, log zerolog.Logger) *BalanceRecalculator {
	return &BalanceRecalculator{txRunner: txRunner, balances: balances, cache: cache, ttl: ttl, log: log}
}

func periodKey(month, year int) string { return fmt.Sprintf("%04d-%02d", year, month) }

func validPeriod(month, year int) error {
	if month < 1 || month > 12 || year < 1 {
		v := domain.NewValidationError()
		v.Add("period", "mes o año inválido")
		return v
	}
	return nil
}

// Recompute recalcula el balance de (month, year). Un período cerrado se devuelve sin tocar.
func (r *BalanceRecalculator) Recompute(ctx context.Context, month, year int) (entity.BalanceSnapshot, error) {
	if err := validPeriod(month, year); err != nil {
		return entity.BalanceSnapshot{}, err
	}
	b, err := r.gated(ctx, month, year)
	if err != nil {
		return entity.BalanceSnapshot{}, err
	}
	return b.Snapshot, nil
}

// gated toma turno en el período. Si mientras esperaba terminó una corrida que arrancó
// después de pedir turno, devuelve ese resultado; si no, recalcula.
func (r *BalanceRecalculator) gated(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	v, _ := r.gates.LoadOrStore(periodKey(month, year), &periodGate{})
	g := v.(*periodGate)
	ticket := g.requested.Add(1)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done >= ticket && g.last != nil {
		return g.last, nil
	}
	start := g.requested.Load()
	b, err := r.recompute(ctx, month, year)
	if err != nil {
		return nil, err
	}
	g.done = start
	g.last = b
	return b, nil
}

func (r *BalanceRecalculator) recompute(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	var result *entity.MonthlyBalance
	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		stored, err := repos.Balances.Get(ctx, month, year)
		if err != nil {
			return err
		}
		if stored != nil && stored.Locked {
			result = stored
			return nil
		}
		sales, err := repos.Sales.SumTotalByMonth(ctx, month, year)
		if err != nil {
			return err
		}
		purchases, err := repos.Purchases.SumTotalByMonth(ctx, month, year)
		if err != nil {
			return err
		}
		txs, err := repos.Finance.ListByMonth(ctx, month, year)
		if err != nil {
			return err
		}
		snap := domainfin.ComputeBalance(domainfin.Inputs{
			Month: month, Year: year, Sales: sales, Purchases: purchases, Transactions: txs,
		})
		if err := repos.Balances.Save(ctx, snap); err != nil {
			return err
		}
		result = &entity.MonthlyBalance{Month: month, Year: year, Snapshot: snap}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute balance %s: %w", periodKey(month, year), err)
	}
	r.store(ctx, result)
	r.log.Debug().Int("month", month).Int("year", year).Bool("locked", result.Locked).Msg("balance recalculado")
	return result, nil
}

// Get balance del período: caché, luego base de datos, y si no existe lo calcula.
func (r *BalanceRecalculator) Get(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	if err := validPeriod(month, year); err != nil {
		return nil, err
	}
	if b, ok, err := r.cache.Get(ctx, month, year); err != nil {
		r.log.Warn().Err(err).Msg("balance cache get")
	} else if ok {
		return b, nil
	}
	stored, err := r.balances.Get(ctx, month, year)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		r.store(ctx, stored)
		return stored, nil
	}
	// lecturas en frío concurrentes comparten un solo cálculo
	v, err, _ := r.group.Do(periodKey(month, year), func() (interface{}, error) {
		return r.gated(ctx, month, year)
	})
	if err != nil {
		return nil, err
	}
	return v.(*entity.MonthlyBalance), nil
}

// ClosePeriod recalcula y cierra el período; a partir de ahí Recompute no lo modifica.
func (r *BalanceRecalculator) ClosePeriod(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	if _, err := r.Recompute(ctx, month, year); err != nil {
		return nil, err
	}
	return r.setLocked(ctx, month, year, true)
}

// ReopenPeriod reabre un período cerrado.
func (r *BalanceRecalculator) ReopenPeriod(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	if err := validPeriod(month, year); err != nil {
		return nil, err
	}
	return r.setLocked(ctx, month, year, false)
}

func (r *BalanceRecalculator) setLocked(ctx context.Context, month, year int, locked bool) (*entity.MonthlyBalance, error) {
	var out *entity.MonthlyBalance
	err := r.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		stored, err := repos.Balances.Get(ctx, month, year)
		if err != nil {
			return err
		}
		if stored == nil {
			return domain.ErrNotFound
		}
		if err := repos.Balances.SetLocked(ctx, month, year, locked); err != nil {
			return err
		}
		stored.Locked = locked
		out = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := r.cache.Delete(ctx, month, year); err != nil {
		r.log.Warn().Err(err).Msg("balance cache delete")
	}
	r.log.Info().Int("month", month).Int("year", year).Bool("locked", locked).Msg("estado del período actualizado")
	return out, nil
}

// IsLocked indica si el período está cerrado.
func IsLocked(ctx context.Context, balances repository.BalanceRepository, date time.Time) (bool, error) {
	b, err := balances.Get(ctx, int(date.Month()), date.Year())
	if err != nil {
		return false, err
	}
	return b != nil && b.Locked, nil
}

func (r *BalanceRecalculator) store(ctx context.Context, b *entity.MonthlyBalance) {
	if err := r.cache.Set(ctx, b, r.ttl); err != nil {
		r.log.Warn().Err(err).Msg("balance cache set")
	}
}

// RecomputeAfter recalcula el mes de date; su falla se registra y no se propaga.
func RecomputeAfter(ctx context.Context, rc Recomputer, log zerolog.Logger, date time.Time) {
	if rc == nil {
		return
	}
	if _, err := rc.Recompute(ctx, int(date.Month()), date.Year()); err != nil {
		log.Error().Err(err).Time("date", date).Msg("recalcular balance")
	}
}
