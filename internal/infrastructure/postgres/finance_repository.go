package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var (
	_ repository.FinanceRepository          = (*FinanceRepo)(nil)
	_ repository.RecurringExpenseRepository = (*RecurringExpenseRepo)(nil)
	_ repository.BalanceRepository          = (*BalanceRepo)(nil)
)

// FinanceRepo transacciones financieras.
type FinanceRepo struct {
	q Querier
}

// NewFinanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFinanceRepository(q Querier) *FinanceRepo {
	return &FinanceRepo{q: q}
}

const financeColumns = `id, type, amount, date, category, cost_type, operating, nature, channel, activity,
	description, responsible_id, reviewed, created_at`

func scanFinancial(row pgxScanner) (*entity.FinancialTransaction, error) {
	var t entity.FinancialTransaction
	var costType, nature, channel, activity, description, responsible *string
	err := row.Scan(&t.ID, &t.Type, &t.Amount, &t.Date, &t.Category, &costType, &t.Operating, &nature,
		&channel, &activity, &description, &responsible, &t.Reviewed, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.CostType = derefString(costType)
	t.Nature = derefString(nature)
	t.Channel = derefString(channel)
	t.Activity = derefString(activity)
	t.Description = derefString(description)
	t.ResponsibleID = derefString(responsible)
	return &t, nil
}

func (r *FinanceRepo) Create(ctx context.Context, t *entity.FinancialTransaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO financial_transactions (`+financeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.Type, t.Amount, t.Date, t.Category, nullString(t.CostType), t.Operating, nullString(t.Nature),
		nullString(t.Channel), nullString(t.Activity), nullString(t.Description), nullString(t.ResponsibleID),
		t.Reviewed, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert financial transaction: %w", mapError(err, "financial_transaction"))
	}
	return nil
}

func (r *FinanceRepo) Update(ctx context.Context, t *entity.FinancialTransaction) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE financial_transactions SET type = $2, amount = $3, date = $4, category = $5, cost_type = $6,
			operating = $7, nature = $8, channel = $9, activity = $10, description = $11, reviewed = $12
		WHERE id = $1`,
		t.ID, t.Type, t.Amount, t.Date, t.Category, nullString(t.CostType), t.Operating, nullString(t.Nature),
		nullString(t.Channel), nullString(t.Activity), nullString(t.Description), t.Reviewed)
	if err != nil {
		return fmt.Errorf("update financial transaction: %w", mapError(err, "financial_transaction:"+t.ID))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FinanceRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM financial_transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete financial transaction: %w", mapError(err, "financial_transaction:"+id))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *FinanceRepo) GetByID(ctx context.Context, id string) (*entity.FinancialTransaction, error) {
	t, err := scanFinancial(r.q.QueryRow(ctx, `SELECT `+financeColumns+` FROM financial_transactions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get financial transaction: %w", err)
	}
	return t, nil
}

func (r *FinanceRepo) ListByMonth(ctx context.Context, month, year int) ([]*entity.FinancialTransaction, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+financeColumns+` FROM financial_transactions
		WHERE EXTRACT(MONTH FROM date) = $1 AND EXTRACT(YEAR FROM date) = $2
		ORDER BY date, id`, month, year)
	if err != nil {
		return nil, fmt.Errorf("list financial transactions: %w", err)
	}
	list, err := collect(rows, scanFinancial)
	if err != nil {
		return nil, fmt.Errorf("scan financial transaction: %w", err)
	}
	return list, nil
}

func (r *FinanceRepo) ExistsDuplicateExpense(ctx context.Context, date time.Time, amount decimal.Decimal, category, responsibleID, excludeID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM financial_transactions
			WHERE type = 'EXPENSE' AND date::date = $1::date AND amount = $2
				AND lower(category) = lower($3) AND responsible_id IS NOT DISTINCT FROM $4
				AND ($5 = '' OR id::text <> $5)
		)`, date, amount, category, nullString(responsibleID), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate expense: %w", err)
	}
	return exists, nil
}

// RecurringExpenseRepo plantillas de gasto recurrente.
type RecurringExpenseRepo struct {
	q Querier
}

// NewRecurringExpenseRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecurringExpenseRepository(q Querier) *RecurringExpenseRepo {
	return &RecurringExpenseRepo{q: q}
}

func (r *RecurringExpenseRepo) Create(ctx context.Context, e *entity.RecurringExpense) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO recurring_expenses (id, name, category, amount, cutoff_day, active, nature, cost_type, responsible_id, last_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.Name, e.Category, e.Amount, e.CutoffDay, e.Active, nullString(e.Nature), nullString(e.CostType),
		nullString(e.ResponsibleID), e.LastGenerated, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recurring expense: %w", mapError(err, "recurring_expense"))
	}
	return nil
}

func (r *RecurringExpenseRepo) ListActive(ctx context.Context) ([]*entity.RecurringExpense, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, name, category, amount, cutoff_day, active, nature, cost_type, responsible_id, last_generated, created_at
		FROM recurring_expenses WHERE active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list recurring expenses: %w", err)
	}
	return collect(rows, func(row pgxScanner) (*entity.RecurringExpense, error) {
		var e entity.RecurringExpense
		var nature, costType, responsible *string
		if err := row.Scan(&e.ID, &e.Name, &e.Category, &e.Amount, &e.CutoffDay, &e.Active, &nature, &costType,
			&responsible, &e.LastGenerated, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recurring expense: %w", err)
		}
		e.Nature = derefString(nature)
		e.CostType = derefString(costType)
		e.ResponsibleID = derefString(responsible)
		return &e, nil
	})
}

func (r *RecurringExpenseRepo) MarkGenerated(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE recurring_expenses SET last_generated = $2
		WHERE id = $1
		  AND (last_generated IS NULL OR date_trunc('month', last_generated) <> date_trunc('month', $2::timestamptz))`,
		id, at)
	if err != nil {
		return false, fmt.Errorf("mark recurring expense: %w", mapError(err, "recurring_expense:"+id))
	}
	return cmd.RowsAffected() > 0, nil
}

// BalanceRepo balances mensuales; el snapshot se guarda como JSONB.
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

func (r *BalanceRepo) Get(ctx context.Context, month, year int) (*entity.MonthlyBalance, error) {
	var raw []byte
	b := entity.MonthlyBalance{Month: month, Year: year}
	err := r.q.QueryRow(ctx,
		`SELECT snapshot, locked FROM monthly_balances WHERE month = $1 AND year = $2`, month, year,
	).Scan(&raw, &b.Locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get balance: %w", err)
	}
	if err := json.Unmarshal(raw, &b.Snapshot); err != nil {
		return nil, fmt.Errorf("decode balance snapshot: %w", err)
	}
	return &b, nil
}

// Save upsert que conserva la bandera locked.
func (r *BalanceRepo) Save(ctx context.Context, snapshot entity.BalanceSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode balance snapshot: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO monthly_balances (month, year, snapshot, locked, updated_at)
		VALUES ($1, $2, $3, FALSE, now())
		ON CONFLICT (year, month) DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = now()`,
		snapshot.Month, snapshot.Year, raw)
	if err != nil {
		return fmt.Errorf("save balance: %w", mapError(err, fmt.Sprintf("balance:%d-%02d", snapshot.Year, snapshot.Month)))
	}
	return nil
}

func (r *BalanceRepo) SetLocked(ctx context.Context, month, year int, locked bool) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE monthly_balances SET locked = $3, updated_at = now() WHERE month = $1 AND year = $2`,
		month, year, locked)
	if err != nil {
		return fmt.Errorf("set balance lock: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
