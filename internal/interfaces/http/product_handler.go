package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/application/usecase"
)

// ProductHandler maneja las peticiones HTTP para Product (protegido).
type ProductHandler struct {
	uc   *usecase.ProductUseCase
	val  *Validator
	resp *Responder
}

// NewProductHandler construye el handler.
func NewProductHandler(uc *usecase.ProductUseCase, val *Validator, resp *Responder) *ProductHandler {
	return &ProductHandler{uc: uc, val: val, resp: resp}
}

// Create godoc
// @Summary      Crear producto
// @Tags         products
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProductRequest  true  "Datos del producto"
// @Success      201   {object}  dto.ProductResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/products [post]
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProductRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar productos
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200     {object}  dto.ProductListResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := h.val.parseQuery(c, &page); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.uc.List(c.UserContext(), page)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}

// UpdatePrice cambia precio y/o costo; el cambio queda en el historial.
func (h *ProductHandler) UpdatePrice(c *fiber.Ctx) error {
	var in dto.UpdatePriceRequest
	if err := h.val.parseBody(c, &in); err != nil {
		return h.resp.Error(c, err)
	}
	out, err := h.uc.UpdatePrice(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return h.resp.Error(c, err)
	}
	return c.JSON(out)
}
