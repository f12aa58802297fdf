package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
)

// Responder traduce errores de dominio a respuestas HTTP.
type Responder struct {
	log        zerolog.Logger
	retryAfter string
}

// NewResponder construye el traductor; retryAfterSeconds va en el header Retry-After de los 503.
func NewResponder(log zerolog.Logger, retryAfterSeconds int) *Responder {
	if retryAfterSeconds <= 0 {
		retryAfterSeconds = 1
	}
	return &Responder{log: log, retryAfter: strconv.Itoa(retryAfterSeconds)}
}

// Error escribe la respuesta para err.
func (r *Responder) Error(c *fiber.Ctx, err error) error {
	var (
		validation *domain.ValidationError
		stock      *domain.InsufficientStockError
		batch      *domain.InsufficientBatchStockError
	)
	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Errors: validation.Fields})
	case errors.As(err, &stock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_STOCK", Message: stock.Error(), ProductID: stock.ProductID, Shortfall: stock.Shortfall().String(),
		})
	case errors.As(err, &batch):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code: "INSUFFICIENT_BATCH_STOCK", Message: batch.Error(), ProductID: batch.ProductID, Shortfall: batch.Shortfall().String(),
		})
	case errors.Is(err, domain.ErrLockContention):
		c.Set(fiber.HeaderRetryAfter, r.retryAfter)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "RESOURCE_BUSY", Message: "recurso ocupado, reintente", Retryable: true})
	case errors.Is(err, domain.ErrPeriodLocked):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "PERIOD_LOCKED", Message: "el período está cerrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	ev := r.log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path())
	if errors.Is(err, domain.ErrIntegrity) {
		ev = ev.Bool("integrity", true)
	}
	ev.Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// FiberErrorHandler para fiber.Config.ErrorHandler: errores propios de fiber conservan su status.
func (r *Responder) FiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_" + strconv.Itoa(fe.Code), Message: fe.Message})
	}
	return r.Error(c, err)
}
