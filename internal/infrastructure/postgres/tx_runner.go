package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED + bloqueos de fila).
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", mapError(err, "transaction"))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err, "transaction"))
	}
	return nil
}

// NewRepos construye todos los repositorios sobre q (pool para lecturas, tx dentro de Run).
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Products:          NewProductRepository(q),
		Prices:            NewPriceHistoryRepository(q),
		Lots:              NewLotRepository(q),
		Recipes:           NewRecipeRepository(q),
		Movements:         NewInventoryMovementRepository(q),
		Sales:             NewSaleRepository(q),
		Purchases:         NewPurchaseRepository(q),
		Returns:           NewReturnRepository(q),
		Finance:           NewFinanceRepository(q),
		RecurringExpenses: NewRecurringExpenseRepository(q),
		Balances:          NewBalanceRepository(q),
		Customers:         NewCustomerRepository(q),
		Users:             NewUserRepository(q),
	}
}
