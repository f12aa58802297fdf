package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// FinanceRepository transacciones financieras (ingresos y gastos).
type FinanceRepository interface {
	Create(ctx context.Context, t *entity.FinancialTransaction) error
	Update(ctx context.Context, t *entity.FinancialTransaction) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*entity.FinancialTransaction, error)
	ListByMonth(ctx context.Context, month, year int) ([]*entity.FinancialTransaction, error)
	// ExistsDuplicateExpense gasto con misma fecha, monto, categoría y responsable (excluyendo excludeID).
	ExistsDuplicateExpense(ctx context.Context, date time.Time, amount decimal.Decimal, category, responsibleID, excludeID string) (bool, error)
}

// RecurringExpenseRepository plantillas de gasto mensual.
type RecurringExpenseRepository interface {
	Create(ctx context.Context, r *entity.RecurringExpense) error
	ListActive(ctx context.Context) ([]*entity.RecurringExpense, error)
	// MarkGenerated reclama la generación del mes de at; false si ya estaba generada en ese mes.
	MarkGenerated(ctx context.Context, id string, at time.Time) (bool, error)
}
