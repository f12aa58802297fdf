package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/auth"
	"github.com/jhoicas/Fabrica-api/internal/application/dto"
)

// AuthHandler maneja el login.
type AuthHandler struct {
	uc   *auth.AuthUseCase
	val  *Validator
	resp *Responder
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, val *Validator, resp *Responder) *AuthHandler {
	return &AuthHandler{uc: uc, val: val, resp: resp}
}

// Login godoc
// @Summary      Iniciar sesión
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.uc.Login(c.UserContext(), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}
