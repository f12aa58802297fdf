// Package jobs tareas en segundo plano (asynq): alertas de vencimiento y gastos recurrentes.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

const (
	// QueueDefault cola por defecto.
	QueueDefault = "default"
	// TaskExpiryAlerts revisa lotes por vencer y productos bajo punto de reorden.
	TaskExpiryAlerts = "inventory:expiry_alerts"
	// TaskRecurringExpenses genera los gastos recurrentes del mes.
	TaskRecurringExpenses = "finance:recurring_expenses"
)

// ExpiryAlertsPayload días de anticipación para la alerta.
type ExpiryAlertsPayload struct {
	Days int `json:"days"`
}

// RecurringExpensesPayload fecha de referencia; cero significa "ahora".
type RecurringExpensesPayload struct {
	At time.Time `json:"at"`
}

// NewExpiryAlertsTask construye la tarea de alertas.
func NewExpiryAlertsTask(days int) (*asynq.Task, error) {
	body, err := json.Marshal(ExpiryAlertsPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryAlerts, body, asynq.Queue(QueueDefault)), nil
}

// NewRecurringExpensesTask construye la tarea de gastos recurrentes.
func NewRecurringExpensesTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RecurringExpensesPayload{At: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecurringExpenses, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// AlertSource lo que la tarea de alertas necesita del inventario.
type AlertSource interface {
	ExpiringLots(ctx context.Context, days int) ([]dto.ExpiringLotDTO, error)
	GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error)
}

// ExpenseGenerator lo que la tarea de gastos necesita de finanzas.
type ExpenseGenerator interface {
	Generate(ctx context.Context, today time.Time) ([]*entity.FinancialTransaction, error)
}

// ExpiryAlertsJob registra en el log los lotes por vencer y los productos a reabastecer.
type ExpiryAlertsJob struct {
	source      AlertSource
	defaultDays int
	log         zerolog.Logger
}

// NewExpiryAlertsJob construye el job.
func NewExpiryAlertsJob(source AlertSource, defaultDays int, log zerolog.Logger) *ExpiryAlertsJob {
	return &ExpiryAlertsJob{source: source, defaultDays: defaultDays, log: log}
}

// Handle procesa TaskExpiryAlerts.
func (j *ExpiryAlertsJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryAlertsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	days := payload.Days
	if days <= 0 {
		days = j.defaultDays
	}

	lots, err := j.source.ExpiringLots(ctx, days)
	if err != nil {
		return fmt.Errorf("expiring lots: %w", err)
	}
	for _, l := range lots {
		j.log.Warn().
			Str("lot_code", l.LotCode).
			Str("product_id", l.ProductID).
			Int("days_left", l.DaysLeft).
			Str("available", l.Available.String()).
			Str("suggested_discount", l.SuggestedDiscount.String()).
			Msg("lote por vencer")
	}

	list, err := j.source.GenerateReplenishmentList(ctx)
	if err != nil {
		return fmt.Errorf("replenishment list: %w", err)
	}
	for _, s := range list {
		j.log.Info().
			Str("product_id", s.ProductID).
			Str("code", s.Code).
			Str("current_stock", s.CurrentStock.String()).
			Str("suggested_qty", s.SuggestedOrderQty.String()).
			Int("priority", s.Priority).
			Msg("reabastecer")
	}
	j.log.Info().Int("expiring", len(lots)).Int("replenish", len(list)).Msg("alertas de inventario")
	return nil
}

// RecurringExpensesJob genera los gastos recurrentes (idempotente por mes).
type RecurringExpensesJob struct {
	generator ExpenseGenerator
	now       func() time.Time
	log       zerolog.Logger
}

// NewRecurringExpensesJob construye el job.
func NewRecurringExpensesJob(generator ExpenseGenerator, log zerolog.Logger) *RecurringExpensesJob {
	return &RecurringExpensesJob{generator: generator, now: time.Now, log: log}
}

// Handle procesa TaskRecurringExpenses.
func (j *RecurringExpensesJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload RecurringExpensesPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	at := payload.At
	if at.IsZero() {
		at = j.now()
	}
	created, err := j.generator.Generate(ctx, at)
	if err != nil {
		return fmt.Errorf("generate recurring expenses: %w", err)
	}
	j.log.Info().Int("created", len(created)).Time("at", at).Msg("gastos recurrentes generados")
	return nil
}
