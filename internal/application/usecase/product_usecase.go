package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// ProductUseCase alta y consulta de productos. El stock se maneja vía ledger, nunca aquí.
type ProductUseCase struct {
	txRunner repository.TxRunner
	repos    repository.Repos
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(txRunner repository.TxRunner, repos repository.Repos) *ProductUseCase {
	return &ProductUseCase{txRunner: txRunner, repos: repos}
}

// Create crea un producto con stock cero y su primer registro de historial de precios.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	existing, err := uc.repos.Products.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	v := domain.NewValidationError()
	if in.Price.IsNegative() {
		v.Add("price", "no puede ser negativo")
	}
	if in.Cost.IsNegative() {
		v.Add("cost", "no puede ser negativo")
	}
	if in.ReorderPoint.IsNegative() {
		v.Add("reorder_point", "no puede ser negativo")
	}
	if in.Kind != entity.KindRawMaterial && in.Kind != entity.KindFinishedGood {
		v.Add("kind", "debe ser RAW_MATERIAL o FINISHED_GOOD")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		ID:             uuid.New().String(),
		Code:           in.Code,
		Name:           in.Name,
		Category:       in.Category,
		Family:         in.Family,
		UnitMeasure:    in.UnitMeasure,
		Price:          in.Price,
		Cost:           in.Cost,
		QuantityOnHand: decimal.Zero,
		ReorderPoint:   in.ReorderPoint,
		SupplierID:     in.SupplierID,
		Kind:           entity.KindFromName(in.Kind, in.WastePercent, in.YieldFactor),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		return repos.Prices.Create(ctx, &entity.PriceHistory{
			ID: uuid.New().String(), ProductID: product.ID, Price: product.Price, Cost: product.Cost, RecordedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// UpdatePrice cambia precio y/o costo y deja el cambio en el historial.
func (uc *ProductUseCase) UpdatePrice(ctx context.Context, id string, in dto.UpdatePriceRequest) (*dto.ProductResponse, error) {
	if (in.Price != nil && in.Price.IsNegative()) || (in.Cost != nil && in.Cost.IsNegative()) {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.Product
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Products.LockNoWait(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Cost != nil {
			p.Cost = *in.Cost
		}
		p.UpdatedAt = time.Now()
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return repos.Prices.Create(ctx, &entity.PriceHistory{
			ID: uuid.New().String(), ProductID: p.ID, Price: p.Price, Cost: p.Cost, RecordedAt: p.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return toProductResponse(out), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repos.Products.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	kind, _, _ := entity.KindParams(p.Kind)
	return &dto.ProductResponse{
		ID:             p.ID,
		Code:           p.Code,
		Name:           p.Name,
		Category:       p.Category,
		Family:         p.Family,
		UnitMeasure:    p.UnitMeasure,
		Kind:           kind,
		Price:          p.Price,
		Cost:           p.Cost,
		QuantityOnHand: p.QuantityOnHand,
		ReorderPoint:   p.ReorderPoint,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
