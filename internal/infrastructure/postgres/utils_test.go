package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Fabrica-api/internal/domain"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"nowait", "55P03", domain.ErrLockContention},
		{"deadlock", "40P01", domain.ErrLockContention},
		{"serialization", "40001", domain.ErrLockContention},
		{"unique", "23505", domain.ErrDuplicate},
		{"check", "23514", domain.ErrIntegrity},
		{"fk", "23503", domain.ErrIntegrity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pgErr := &pgconn.PgError{Code: tt.code, ConstraintName: "c"}
			err := mapError(fmt.Errorf("exec: %w", pgErr), "product:1")
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, pgErr)
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	plain := errors.New("conexión cerrada")
	assert.Same(t, plain, mapError(plain, "x"))
	assert.NoError(t, mapError(nil, "x"))
	assert.False(t, domain.IsRetryable(mapError(plain, "x")))
	assert.True(t, domain.IsRetryable(mapError(&pgconn.PgError{Code: "55P03"}, "x")))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23514"}))
}

func TestMapError_InvalidTextRepresentation(t *testing.T) {
	err := mapError(fmt.Errorf("get product: %w", &pgconn.PgError{Code: "22P02"}), "product:abc")
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, ve.Fields, "product_id")

	err = mapError(&pgconn.PgError{Code: "22P02"}, "")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "id")
}
