package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domainfin "github.com/jhoicas/Fabrica-api/internal/domain/finance"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// RecurringExpenseUseCase genera los gastos mensuales a partir de sus plantillas.
type RecurringExpenseUseCase struct {
	txRunner   repository.TxRunner
	recomputer Recomputer
	log        zerolog.Logger
}

// NewRecurringExpenseUseCase construye el caso de uso.
func NewRecurringExpenseUseCase(txRunner repository.TxRunner, recomputer Recomputer, log zerolog.Logger) *RecurringExpenseUseCase {
	return &RecurringExpenseUseCase{txRunner: txRunner, recomputer: recomputer, log: log}
}

// cutoffDate día de corte dentro del mes de ref, acotado al último día del mes.
func cutoffDate(ref time.Time, day int) time.Time {
	if day < 1 {
		day = 1
	}
	last := time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		day = last
	}
	return time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, time.UTC)
}

// Generate crea a lo sumo una transacción por plantilla activa para el mes de today.
// Cada plantilla se reclama con MarkGenerated antes de insertar, así que ejecuciones
// concurrentes o repetidas en el mismo mes no crean duplicados. Un mes cerrado no se toca.
func (uc *RecurringExpenseUseCase) Generate(ctx context.Context, today time.Time) ([]*entity.FinancialTransaction, error) {
	var created []*entity.FinancialTransaction
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		locked, err := IsLocked(ctx, repos.Balances, today)
		if err != nil {
			return err
		}
		if locked {
			uc.log.Info().Time("month", cutoffDate(today, 1)).Msg("período cerrado, gastos recurrentes omitidos")
			return nil
		}
		templates, err := repos.RecurringExpenses.ListActive(ctx)
		if err != nil {
			return err
		}
		for _, g := range templates {
			if g.LastGenerated != nil && g.LastGenerated.Year() == today.Year() && g.LastGenerated.Month() == today.Month() {
				continue
			}
			date := cutoffDate(today, g.CutoffDay)
			claimed, err := repos.RecurringExpenses.MarkGenerated(ctx, g.ID, date)
			if err != nil {
				return err
			}
			if !claimed {
				continue
			}
			nature := g.Nature
			if nature == "" {
				nature = entity.NatureOperational
			}
			t := &entity.FinancialTransaction{
				ID:            uuid.New().String(),
				Type:          entity.TransactionExpense,
				Amount:        g.Amount,
				Date:          date,
				Category:      g.Category,
				CostType:      domainfin.ClassifyCostType(g.CostType, g.Category),
				Operating:     true,
				Nature:        nature,
				Description:   g.Name,
				ResponsibleID: g.ResponsibleID,
				CreatedAt:     time.Now(),
			}
			if err := repos.Finance.Create(ctx, t); err != nil {
				return err
			}
			created = append(created, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		RecomputeAfter(ctx, uc.recomputer, uc.log, cutoffDate(today, 1))
		uc.log.Info().Int("count", len(created)).Msg("gastos recurrentes generados")
	}
	return created, nil
}
