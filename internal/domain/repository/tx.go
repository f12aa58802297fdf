package repository

import "context"

// Repos agrupa los repositorios. Dentro de TxRunner.Run todos comparten la misma transacción.
type Repos struct {
	Products          ProductRepository
	Prices            PriceHistoryRepository
	Lots              LotRepository
	Recipes           RecipeRepository
	Movements         InventoryMovementRepository
	Sales             SaleRepository
	Purchases         PurchaseRepository
	Returns           ReturnRepository
	Finance           FinanceRepository
	RecurringExpenses RecurringExpenseRepository
	Balances          BalanceRepository
	Customers         CustomerRepository
	Users             UserRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, repos Repos) error) error
}
