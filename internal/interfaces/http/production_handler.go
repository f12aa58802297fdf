package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/inventory"
	"github.com/jhoicas/Fabrica-api/internal/application/production"
)

// ProductionHandler producción, recetas y unidades producibles.
type ProductionHandler struct {
	production *production.RegisterProductionUseCase
	recipes    *inventory.RecipeUseCase
	val        *Validator
	resp       *Responder
}

// NewProductionHandler construye el handler.
func NewProductionHandler(p *production.RegisterProductionUseCase, recipes *inventory.RecipeUseCase, val *Validator, resp *Responder) *ProductionHandler {
	return &ProductionHandler{production: p, recipes: recipes, val: val, resp: resp}
}

// Register godoc
// @Summary      Registrar producción
// @Tags         production
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterProductionRequest  true  "Producto, cantidad y lote"
// @Success      201   {object}  dto.ProductionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/production [post]
func (h *ProductionHandler) Register(c *fiber.Ctx) error {
	var in dto.RegisterProductionRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.production.RegisterProduction(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// DefineRecipe reemplaza la receta activa del producto (y batch_code, si viene).
func (h *ProductionHandler) DefineRecipe(c *fiber.Ctx) error {
	var in dto.DefineRecipeRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	lines, err := h.recipes.DefineRecipe(c.UserContext(), c.Params("productId"), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("productId"), "batch_code": in.BatchCode, "lines": len(lines)})
}

// Producible unidades producibles con el stock actual.
func (h *ProductionHandler) Producible(c *fiber.Ctx) error {
	out, err := h.recipes.ProducibleUnits(c.UserContext(), c.Params("productId"), c.Query("batch_code"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}
