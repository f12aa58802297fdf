package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domainfin "github.com/jhoicas/Fabrica-api/internal/domain/finance"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// TransactionUseCase altas, cambios y bajas de transacciones financieras.
// Cada cambio recalcula el balance de los meses afectados.
type TransactionUseCase struct {
	txRunner   repository.TxRunner
	repos      repository.Repos
	recomputer Recomputer
	log        zerolog.Logger
}

// NewTransactionUseCase construye el caso de uso.
func NewTransactionUseCase(txRunner repository.TxRunner, repos repository.Repos, recomputer Recomputer, log zerolog.Logger) *TransactionUseCase {
	return &TransactionUseCase{txRunner: txRunner, repos: repos, recomputer: recomputer, log: log}
}

func validateTransaction(in dto.TransactionRequest) error {
	v := domain.NewValidationError()
	if in.Type != entity.TransactionIncome && in.Type != entity.TransactionExpense {
		v.Add("type", "debe ser INCOME o EXPENSE")
	}
	if !in.Amount.IsPositive() {
		v.Add("amount", "debe ser mayor que cero")
	}
	if in.Date.IsZero() {
		v.Add("date", "requerida")
	}
	if in.Category == "" {
		v.Add("category", "requerida")
	}
	switch in.CostType {
	case "", entity.CostTypeFixed, entity.CostTypeVariable:
	default:
		v.Add("cost_type", "debe ser FIXED o VARIABLE")
	}
	switch in.Nature {
	case "", entity.NatureOperational, entity.NatureStructural, entity.NatureFinancial:
	default:
		v.Add("nature", "debe ser OPERATIONAL, STRUCTURAL o FINANCIAL")
	}
	return v.OrNil()
}

func applyRequest(t *entity.FinancialTransaction, in dto.TransactionRequest) {
	t.Type = in.Type
	t.Amount = in.Amount
	t.Date = in.Date
	t.Category = in.Category
	t.Operating = in.Operating == nil || *in.Operating
	t.Nature = in.Nature
	if t.Nature == "" {
		t.Nature = entity.NatureOperational
	}
	t.CostType = ""
	if t.Type == entity.TransactionExpense {
		t.CostType = domainfin.ClassifyCostType(in.CostType, in.Category)
	}
	t.Channel = in.Channel
	t.Activity = in.Activity
	t.Description = in.Description
}

// checkWritable rechaza gastos duplicados y escrituras en períodos cerrados.
func checkWritable(ctx context.Context, repos repository.Repos, t *entity.FinancialTransaction, excludeID string) error {
	locked, err := IsLocked(ctx, repos.Balances, t.Date)
	if err != nil {
		return err
	}
	if locked {
		return domain.ErrPeriodLocked
	}
	if t.Type != entity.TransactionExpense {
		return nil
	}
	dup, err := repos.Finance.ExistsDuplicateExpense(ctx, t.Date, t.Amount, t.Category, t.ResponsibleID, excludeID)
	if err != nil {
		return err
	}
	if dup {
		return fmt.Errorf("%w: ya existe un gasto con la misma fecha, monto, categoría y responsable", domain.ErrDuplicate)
	}
	return nil
}

// Create registra la transacción y recalcula su mes.
func (uc *TransactionUseCase) Create(ctx context.Context, userID string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	if err := validateTransaction(in); err != nil {
		return nil, err
	}
	t := &entity.FinancialTransaction{ID: uuid.New().String(), ResponsibleID: userID, CreatedAt: time.Now()}
	applyRequest(t, in)

	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := checkWritable(ctx, repos, t, ""); err != nil {
			return err
		}
		return repos.Finance.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	RecomputeAfter(ctx, uc.recomputer, uc.log, t.Date)
	return toTransactionResponse(t), nil
}

// Update modifica la transacción; si cambia de mes se recalculan el mes anterior y el nuevo.
func (uc *TransactionUseCase) Update(ctx context.Context, id string, in dto.TransactionRequest) (*dto.TransactionResponse, error) {
	if err := validateTransaction(in); err != nil {
		return nil, err
	}
	var (
		t       *entity.FinancialTransaction
		oldDate time.Time
	)
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Finance.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		oldDate = current.Date
		if locked, err := IsLocked(ctx, repos.Balances, oldDate); err != nil {
			return err
		} else if locked {
			return domain.ErrPeriodLocked
		}
		applyRequest(current, in)
		if err := checkWritable(ctx, repos, current, current.ID); err != nil {
			return err
		}
		t = current
		return repos.Finance.Update(ctx, current)
	})
	if err != nil {
		return nil, err
	}
	RecomputeAfter(ctx, uc.recomputer, uc.log, t.Date)
	if oldDate.Month() != t.Date.Month() || oldDate.Year() != t.Date.Year() {
		RecomputeAfter(ctx, uc.recomputer, uc.log, oldDate)
	}
	return toTransactionResponse(t), nil
}

// Delete elimina la transacción y recalcula su mes.
func (uc *TransactionUseCase) Delete(ctx context.Context, id string) error {
	var date time.Time
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		current, err := repos.Finance.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if locked, err := IsLocked(ctx, repos.Balances, current.Date); err != nil {
			return err
		} else if locked {
			return domain.ErrPeriodLocked
		}
		date = current.Date
		return repos.Finance.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	RecomputeAfter(ctx, uc.recomputer, uc.log, date)
	return nil
}

// GetByID obtiene una transacción.
func (uc *TransactionUseCase) GetByID(ctx context.Context, id string) (*dto.TransactionResponse, error) {
	t, err := uc.repos.Finance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return toTransactionResponse(t), nil
}

func toTransactionResponse(t *entity.FinancialTransaction) *dto.TransactionResponse {
	return &dto.TransactionResponse{
		ID:            t.ID,
		Type:          t.Type,
		Amount:        t.Amount,
		Date:          t.Date,
		Category:      t.Category,
		CostType:      t.CostType,
		Operating:     t.Operating,
		Nature:        t.Nature,
		Channel:       t.Channel,
		Activity:      t.Activity,
		Description:   t.Description,
		ResponsibleID: t.ResponsibleID,
	}
}
