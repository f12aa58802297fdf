package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Fabrica-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
	codeInvalidTextRep       = "22P02"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// mapError traduce errores de PostgreSQL a errores de dominio; el resto se devuelve tal cual.
// 55P03/40P01/40001 son contención (reintentable), 23505 duplicado, el resto de clase 23 integridad
// y 22P02 (p.ej. un uuid mal formado) error de validación.
func mapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == codeLockNotAvailable, pgErr.Code == codeDeadlockDetected, pgErr.Code == codeSerializationFailure:
		return &domain.LockContentionError{Resource: resource, Err: err}
	case pgErr.Code == codeUniqueViolation:
		return errors.Join(domain.ErrDuplicate, err)
	case strings.HasPrefix(pgErr.Code, "23"):
		return &domain.IntegrityError{Constraint: pgErr.ConstraintName, Err: err}
	case pgErr.Code == codeInvalidTextRep:
		v := domain.NewValidationError()
		v.Add(resourceField(resource), "formato inválido")
		return v
	}
	return err
}

// resourceField nombre de campo para un recurso "tipo:id".
func resourceField(resource string) string {
	kind, _, _ := strings.Cut(resource, ":")
	if kind == "" {
		return "id"
	}
	return kind + "_id"
}

// nullString convierte "" en NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
