package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas salvo decimal).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrInsufficientBatchStock = errors.New("stock insuficiente en lotes")
	ErrLockContention         = errors.New("recurso ocupado, reintente")
	ErrIntegrity              = errors.New("violación de integridad")
	ErrPeriodLocked           = errors.New("período cerrado")
)

// ValidationError agrupa mensajes por campo ({campo: [mensajes]}).
// La venta nunca se intenta cuando se produce.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError crea un error vacío listo para acumular mensajes.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add agrega un mensaje al campo.
func (e *ValidationError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors indica si hay al menos un mensaje.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil devuelve nil si no hay mensajes (evita el nil-interface no nulo).
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validación: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError stock agregado insuficiente (incluye violación del stock mínimo).
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
	SafetyStock decimal.Decimal
}

// Shortfall cantidad que falta para poder atender la solicitud respetando el stock mínimo.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	usable := e.Available.Sub(e.SafetyStock)
	if usable.IsNegative() {
		usable = decimal.Zero
	}
	return e.Requested.Sub(usable)
}

func (e *InsufficientStockError) Error() string {
	if e.SafetyStock.IsPositive() {
		return fmt.Sprintf("stock insuficiente para %s: solicitado %s, disponible %s, mínimo %s",
			e.ProductID, e.Requested, e.Available, e.SafetyStock)
	}
	return fmt.Sprintf("stock insuficiente para %s: solicitado %s, disponible %s",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientBatchStockError la suma de los lotes no cubre la cantidad, aunque el agregado lo permita.
type InsufficientBatchStockError struct {
	ProductID       string
	Requested       decimal.Decimal
	AvailableInLots decimal.Decimal
}

// Shortfall cantidad no cubierta por lotes.
func (e *InsufficientBatchStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.AvailableInLots)
}

func (e *InsufficientBatchStockError) Error() string {
	return fmt.Sprintf("lotes insuficientes para %s: solicitado %s, disponible en lotes %s",
		e.ProductID, e.Requested, e.AvailableInLots)
}

func (e *InsufficientBatchStockError) Unwrap() error { return ErrInsufficientBatchStock }

// LockContentionError la fila está bloqueada por otra transacción; el llamador decide reintentar.
type LockContentionError struct {
	Resource string
	Err      error
}

func (e *LockContentionError) Error() string {
	return fmt.Sprintf("recurso ocupado (%s), reintente", e.Resource)
}

func (e *LockContentionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrLockContention}
	}
	return []error{ErrLockContention, e.Err}
}

// IntegrityError violación inesperada de una restricción de la base.
type IntegrityError struct {
	Constraint string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("violación de integridad (%s): %v", e.Constraint, e.Err)
	}
	return fmt.Sprintf("violación de integridad: %v", e.Err)
}

func (e *IntegrityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIntegrity}
	}
	return []error{ErrIntegrity, e.Err}
}

// IsRetryable indica si el error es transitorio (contención de bloqueo).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLockContention)
}
