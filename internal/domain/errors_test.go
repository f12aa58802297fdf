package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Fabrica-api/internal/domain"
)

func TestTypedErrors_MatchSentinels(t *testing.T) {
	stock := &domain.InsufficientStockError{ProductID: "p", Requested: decimal.NewFromInt(5), Available: decimal.NewFromInt(5), SafetyStock: decimal.NewFromInt(1)}
	assert.ErrorIs(t, fmt.Errorf("venta: %w", stock), domain.ErrInsufficientStock)
	assert.True(t, stock.Shortfall().Equal(decimal.NewFromInt(1)))

	batch := &domain.InsufficientBatchStockError{ProductID: "p", Requested: decimal.NewFromInt(7), AvailableInLots: decimal.NewFromInt(4)}
	assert.ErrorIs(t, batch, domain.ErrInsufficientBatchStock)
	assert.True(t, batch.Shortfall().Equal(decimal.NewFromInt(3)))

	cause := errors.New("55P03")
	lock := &domain.LockContentionError{Resource: "product:p", Err: cause}
	assert.ErrorIs(t, lock, domain.ErrLockContention)
	assert.ErrorIs(t, lock, cause)
	assert.True(t, domain.IsRetryable(fmt.Errorf("tx: %w", lock)))
	assert.False(t, domain.IsRetryable(stock))

	assert.ErrorIs(t, &domain.IntegrityError{Err: cause}, domain.ErrIntegrity)
}

func TestValidationError(t *testing.T) {
	v := domain.NewValidationError()
	assert.NoError(t, v.OrNil())

	v.Add("lines", "al menos una línea")
	v.Add("lines[0].quantity", "debe ser mayor que cero")

	err := v.OrNil()
	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Fields, 2)
}
