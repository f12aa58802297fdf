package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/finance"
)

// RecurringEnqueuer encola la generación de gastos recurrentes en el worker.
type RecurringEnqueuer interface {
	EnqueueRecurringExpenses(ctx context.Context, at time.Time) (*asynq.TaskInfo, error)
}

// FinanceHandler transacciones financieras y balance mensual.
type FinanceHandler struct {
	transactions *finance.TransactionUseCase
	balances     *finance.BalanceRecalculator
	recurring    *finance.RecurringExpenseUseCase
	enqueuer     RecurringEnqueuer
	val          *Validator
	resp         *Responder
	now          func() time.Time
}

// NewFinanceHandler construye el handler. enqueuer puede ser nil: entonces la generación corre en línea.
func NewFinanceHandler(
	transactions *finance.TransactionUseCase,
	balances *finance.BalanceRecalculator,
	recurring *finance.RecurringExpenseUseCase,
	enqueuer RecurringEnqueuer,
	val *Validator,
	resp *Responder,
) *FinanceHandler {
	return &FinanceHandler{
		transactions: transactions, balances: balances, recurring: recurring, enqueuer: enqueuer,
		val: val, resp: resp, now: time.Now,
	}
}

// CreateTransaction godoc
// @Summary      Registrar transacción financiera
// @Tags         finance
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransactionRequest  true  "Ingreso o gasto"
// @Success      201   {object}  dto.TransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/finance/transactions [post]
func (h *FinanceHandler) CreateTransaction(c *fiber.Ctx) error {
	var in dto.TransactionRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.transactions.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetTransaction obtiene una transacción.
func (h *FinanceHandler) GetTransaction(c *fiber.Ctx) error {
	out, err := h.transactions.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// UpdateTransaction modifica una transacción.
func (h *FinanceHandler) UpdateTransaction(c *fiber.Ctx) error {
	var in dto.TransactionRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.transactions.Update(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// DeleteTransaction elimina una transacción.
func (h *FinanceHandler) DeleteTransaction(c *fiber.Ctx) error {
	if err := h.transactions.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.resp.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetBalance godoc
// @Summary      Balance mensual
// @Tags         finance
// @Security     Bearer
// @Produce      json
// @Param        month  query  int  true  "Mes (1-12)"
// @Param        year   query  int  true  "Año"
// @Success      200    {object}  entity.MonthlyBalance
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/finance/balance [get]
func (h *FinanceHandler) GetBalance(c *fiber.Ctx) error {
	var p dto.PeriodRequest
	if err := h.val.parseQuery(c, &p); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.balances.Get(c.UserContext(), p.Month, p.Year)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// ClosePeriod recalcula y cierra el período.
func (h *FinanceHandler) ClosePeriod(c *fiber.Ctx) error {
	var p dto.PeriodRequest
	if err := h.val.parseBody(c, &p); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.balances.ClosePeriod(c.UserContext(), p.Month, p.Year)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// ReopenPeriod reabre un período cerrado.
func (h *FinanceHandler) ReopenPeriod(c *fiber.Ctx) error {
	var p dto.PeriodRequest
	if err := h.val.parseBody(c, &p); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.balances.ReopenPeriod(c.UserContext(), p.Month, p.Year)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// RunRecurringExpenses genera los gastos recurrentes del mes: encola en el worker si hay Redis, si no corre en línea.
func (h *FinanceHandler) RunRecurringExpenses(c *fiber.Ctx) error {
	now := h.now()
	if h.enqueuer != nil {
		info, err := h.enqueuer.EnqueueRecurringExpenses(c.UserContext(), now)
		if err != nil {
			return h.resp.Error(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"task_id": info.ID, "queue": info.Queue})
	}
	created, err := h.recurring.Generate(c.UserContext(), now)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(fiber.Map{"created": len(created)})
}
