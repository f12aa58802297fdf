package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/purchasing"
)

// PurchaseHandler recepción de compras.
type PurchaseHandler struct {
	uc   *purchasing.ReceivePurchaseUseCase
	val  *Validator
	resp *Responder
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(uc *purchasing.ReceivePurchaseUseCase, val *Validator, resp *Responder) *PurchaseHandler {
	return &PurchaseHandler{uc: uc, val: val, resp: resp}
}

// Create godoc
// @Summary      Registrar compra
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseRequest  true  "Líneas de la compra"
// @Success      201   {object}  dto.PurchaseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.uc.ReceivePurchase(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
