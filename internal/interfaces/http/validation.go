package http

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
)

// Validator valida los DTO de entrada y devuelve *domain.ValidationError con claves JSON.
type Validator struct {
	v *validator.Validate
}

// NewValidator registra los tags propios: dgt / dgte comparan decimal.Decimal contra el parámetro.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("dgt", decimalCompare(func(d, p decimal.Decimal) bool { return d.GreaterThan(p) }))
	_ = v.RegisterValidation("dgte", decimalCompare(func(d, p decimal.Decimal) bool { return d.GreaterThanOrEqual(p) }))
	return &Validator{v: v}
}

func decimalCompare(ok func(d, p decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		p, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(d, p)
	}
}

// Struct valida s; nil si no hay errores.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := domain.NewValidationError()
	for _, fe := range fieldErrs {
		out.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return out
}

// fieldPath quita el nombre del struct raíz: "CreateSaleRequest.lines[0].quantity" -> "lines[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "requerido"
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	case "email":
		return "email inválido"
	case "uuid":
		return "identificador inválido"
	case "dgt":
		return fmt.Sprintf("debe ser mayor que %s", fe.Param())
	case "dgte":
		return fmt.Sprintf("debe ser mayor o igual a %s", fe.Param())
	default:
		return fe.Error()
	}
}

// parseBody decodifica el JSON y lo valida.
func (val *Validator) parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		v := domain.NewValidationError()
		v.Add("body", "cuerpo inválido")
		return v
	}
	return val.Struct(out)
}

// parseQuery decodifica los query params y los valida.
func (val *Validator) parseQuery(c *fiber.Ctx, out interface{}) error {
	if err := c.QueryParser(out); err != nil {
		v := domain.NewValidationError()
		v.Add("query", "parámetros inválidos")
		return v
	}
	return val.Struct(out)
}
