package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain"
)

// InventoryHandler ajustes, movimientos, devoluciones, descartes y alertas.
type InventoryHandler struct {
	movements     *inventory.RegisterMovementUseCase
	returns       *inventory.ReturnsUseCase
	replenishment *inventory.ReplenishmentUseCase
	expiryDays    int
	val           *Validator
	resp          *Responder
}

// NewInventoryHandler construye el handler. expiryDays es la ventana por defecto de /expiring-lots.
func NewInventoryHandler(
	movements *inventory.RegisterMovementUseCase,
	returns *inventory.ReturnsUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	expiryDays int,
	val *Validator,
	resp *Responder,
) *InventoryHandler {
	return &InventoryHandler{movements: movements, returns: returns, replenishment: replenishment, expiryDays: expiryDays, val: val, resp: resp}
}

// RegisterMovement godoc
// @Summary      Registrar ajuste de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type (IN/OUT/ADJUSTMENT), quantity, unit_cost (entradas)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	mov, err := h.movements.RegisterMovementFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}  dto.MovementResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return h.resp.Error(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return h.resp.Error(c, err)
	}
	var page dto.PageRequest
	if err := h.val.parseQuery(c, &page); err != nil {
		return h.resp.Error(c, err)
	}
	list, err := h.movements.ListByProduct(c.UserContext(), c.Params("id"), from, to, page)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(list)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos en o bajo su stock mínimo con la cantidad sugerida de pedido, mayor déficit primero.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

// GetExpiringLots lotes de materia prima que vencen dentro de ?days= días.
func (h *InventoryHandler) GetExpiringLots(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.expiryDays)
	list, err := h.replenishment.ExpiringLots(c.UserContext(), days)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "lots": list})
}

// RegisterReturn godoc
// @Summary      Registrar devolución de cliente
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterReturnRequest  true  "Producto, lote y cantidad devuelta"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/returns [post]
func (h *InventoryHandler) RegisterReturn(c *fiber.Ctx) error {
	var in dto.RegisterReturnRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	ret, err := h.returns.RegisterReturn(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":              ret.ID,
		"product_id":      ret.ProductID,
		"finished_lot_id": ret.FinishedLotID,
		"quantity":        ret.Quantity,
		"refund":          ret.Refund,
		"date":            ret.Date,
	})
}

// Discard descarta producto de un lote final.
func (h *InventoryHandler) Discard(c *fiber.Ctx) error {
	var in dto.DiscardRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	mov, err := h.returns.DiscardFromLot(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResponse(mov))
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse("2006-01-02", raw); err != nil {
			v := domain.NewValidationError()
			v.Add(key, "fecha inválida (RFC3339 o YYYY-MM-DD)")
			return nil, v
		}
	}
	return &t, nil
}
