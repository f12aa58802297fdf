// Package memory implementa los repositorios en memoria con transacciones y bloqueos de fila.
// Cada transacción escribe en su propia capa; al confirmar la capa se publica de una vez,
// así que fuera de la transacción nunca se ven escrituras pendientes.
// Sirve para pruebas y para STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// DefaultLockTimeout espera máxima de una escritura por un bloqueo de fila ajeno.
const DefaultLockTimeout = 2 * time.Second

// table filas confirmadas por ID. Las filas guardadas no se modifican: se reemplazan.
type table[T any] struct {
	rows map[string]*T
}

func newTable[T any]() *table[T] { return &table[T]{rows: map[string]*T{}} }

// get fila visible para t: lo escrito por la transacción y si no lo confirmado.
func (tb *table[T]) get(t *tx, id string) (*T, bool) {
	if w, ok := t.writes[tb][id]; ok {
		row := w.(*T)
		return row, row != nil
	}
	row, ok := tb.rows[id]
	return row, ok
}

// put escribe (o borra con nil) en la capa de t; sin transacción se confirma al instante.
func (tb *table[T]) put(t *tx, id string, row *T) {
	apply := func() {
		if row == nil {
			delete(tb.rows, id)
			return
		}
		tb.rows[id] = row
	}
	if t.id == 0 {
		apply()
		return
	}
	w := t.writes[tb]
	if w == nil {
		w = map[string]any{}
		t.writes[tb] = w
	}
	w[id] = row
	t.publish = append(t.publish, apply)
}

// each recorre las filas visibles para t.
func (tb *table[T]) each(t *tx, fn func(id string, row *T)) {
	w := t.writes[tb]
	for id, row := range tb.rows {
		if _, shadowed := w[id]; shadowed {
			continue
		}
		fn(id, row)
	}
	for id, v := range w {
		if row := v.(*T); row != nil {
			fn(id, row)
		}
	}
}

// journal filas solo de inserción, en orden de llegada.
type journal[T any] struct {
	rows []*T
}

func (j *journal[T]) add(t *tx, row *T) {
	if t.id == 0 {
		j.rows = append(j.rows, row)
		return
	}
	t.appends[j] = append(t.appends[j], row)
	t.publish = append(t.publish, func() { j.rows = append(j.rows, row) })
}

// all filas visibles para t: confirmadas y luego las propias.
func (j *journal[T]) all(t *tx) []*T {
	pending := t.appends[j]
	out := make([]*T, 0, len(j.rows)+len(pending))
	out = append(out, j.rows...)
	for _, v := range pending {
		out = append(out, v.(*T))
	}
	return out
}

// Store estado confirmado de todos los repositorios.
type Store struct {
	mu sync.Mutex

	products  *table[entity.Product]
	prices    *journal[entity.PriceHistory]
	rawLots   *table[entity.RawMaterialLot]
	finLots   *table[entity.FinishedGoodLot]
	usages    *journal[entity.LotUsage]
	recipes   *table[entity.RecipeLine]
	movements *journal[entity.InventoryMovement]
	sales     *table[entity.Sale]
	saleLines *table[[]entity.SaleLine]
	purchases *table[entity.Purchase]
	purLines  *table[[]entity.PurchaseLine]
	returns   *table[entity.ProductReturn]
	finance   *table[entity.FinancialTransaction]
	recurring *table[entity.RecurringExpense]
	balances  *table[entity.MonthlyBalance]
	customers *table[entity.Customer]
	users     *table[entity.User]

	rowLocks map[string]uint64
	// released se cierra (y se reemplaza) cada vez que una transacción suelta sus bloqueos.
	released    chan struct{}
	lockTimeout time.Duration
	nextTxID    atomic.Uint64
	readerView  *tx
}

// NewStore crea un store vacío.
func NewStore() *Store {
	s := &Store{
		products:    newTable[entity.Product](),
		prices:      &journal[entity.PriceHistory]{},
		rawLots:     newTable[entity.RawMaterialLot](),
		finLots:     newTable[entity.FinishedGoodLot](),
		usages:      &journal[entity.LotUsage]{},
		recipes:     newTable[entity.RecipeLine](),
		movements:   &journal[entity.InventoryMovement]{},
		sales:       newTable[entity.Sale](),
		saleLines:   newTable[[]entity.SaleLine](),
		purchases:   newTable[entity.Purchase](),
		purLines:    newTable[[]entity.PurchaseLine](),
		returns:     newTable[entity.ProductReturn](),
		finance:     newTable[entity.FinancialTransaction](),
		recurring:   newTable[entity.RecurringExpense](),
		balances:    newTable[entity.MonthlyBalance](),
		customers:   newTable[entity.Customer](),
		users:       newTable[entity.User](),
		rowLocks:    map[string]uint64{},
		released:    make(chan struct{}),
		lockTimeout: DefaultLockTimeout,
	}
	s.readerView = &tx{s: s}
	return s
}

// SetLockTimeout cambia la espera máxima por bloqueos de fila.
func (s *Store) SetLockTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockTimeout = d
}

// tx vista de una transacción. id 0 es la vista sin transacción (autocommit).
type tx struct {
	s       *Store
	id      uint64
	writes  map[any]map[string]any
	appends map[any][]any
	publish []func()
}

// lockRow toma el bloqueo de la fila esperando a que la suelte su dueño, como un UPDATE.
// Sin transacción solo espera. Se llama con s.mu tomado y lo devuelve tomado.
func (t *tx) lockRow(ctx context.Context, key string) error {
	s := t.s
	deadline := time.Now().Add(s.lockTimeout)
	for {
		holder, held := s.rowLocks[key]
		if !held || holder == t.id {
			if t.id != 0 {
				s.rowLocks[key] = t.id
			}
			return nil
		}
		wait := s.released
		s.mu.Unlock()
		timer := time.NewTimer(time.Until(deadline))
		var err error
		select {
		case <-wait:
		case <-timer.C:
			err = &domain.LockContentionError{Resource: key}
		case <-ctx.Done():
			err = ctx.Err()
		}
		timer.Stop()
		s.mu.Lock()
		if err != nil {
			return err
		}
	}
}

// lockNoWait toma el bloqueo o falla de inmediato si otra transacción lo tiene.
func (t *tx) lockNoWait(key string) error {
	if t.id == 0 {
		return nil
	}
	if holder, held := t.s.rowLocks[key]; held && holder != t.id {
		return &domain.LockContentionError{Resource: key}
	}
	t.s.rowLocks[key] = t.id
	return nil
}

func (t *tx) repos() repository.Repos {
	return repository.Repos{
		Products:          &productRepo{t},
		Prices:            &priceRepo{t},
		Lots:              &lotRepo{t},
		Recipes:           &recipeRepo{t},
		Movements:         &movementRepo{t},
		Sales:             &saleRepo{t},
		Purchases:         &purchaseRepo{t},
		Returns:           &returnRepo{t},
		Finance:           &financeRepo{t},
		RecurringExpenses: &recurringRepo{t},
		Balances:          &balanceRepo{t},
		Customers:         &customerRepo{t},
		Users:             &userRepo{t},
	}
}

// Repos repositorios fuera de transacción (cada escritura se confirma de inmediato).
func (s *Store) Repos() repository.Repos {
	return s.readerView.repos()
}

// Run ejecuta fn en una transacción. Si fn termina sin error sus escrituras se publican juntas;
// si falla (o entra en pánico) se descartan. Los bloqueos de fila se liberan al terminar.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) (err error) {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	t := &tx{s: s, id: s.nextTxID.Add(1), writes: map[any]map[string]any{}, appends: map[any][]any{}}
	committed := false
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if committed {
			for _, apply := range t.publish {
				apply()
			}
		}
		for key, holder := range s.rowLocks {
			if holder == t.id {
				delete(s.rowLocks, key)
			}
		}
		close(s.released)
		s.released = make(chan struct{})
	}()

	if err := fn(ctx, t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func periodKey(month, year int) string { return fmt.Sprintf("%04d-%02d", year, month) }

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
