package inventory

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/application/dto"
	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// RecipeUseCase define recetas y calcula unidades producibles.
type RecipeUseCase struct {
	txRunner repository.TxRunner
	repos    repository.Repos
	resolver *RecipeResolver
}

// NewRecipeUseCase construye el caso de uso; repos son los de lectura (fuera de tx).
func NewRecipeUseCase(txRunner repository.TxRunner, repos repository.Repos, resolver *RecipeResolver) *RecipeUseCase {
	return &RecipeUseCase{txRunner: txRunner, repos: repos, resolver: resolver}
}

// DefineRecipe reemplaza la receta activa del alcance indicado.
func (uc *RecipeUseCase) DefineRecipe(ctx context.Context, productID string, in dto.DefineRecipeRequest) ([]*entity.RecipeLine, error) {
	lines := make([]RecipeLineInput, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, RecipeLineInput{RawMaterialID: l.RawMaterialID, QuantityPerUnit: l.QuantityPerUnit})
	}
	var out []*entity.RecipeLine
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		product, err := repos.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		out, err = uc.resolver.DefineRecipe(ctx, repos, product, in.BatchCode, lines)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ProducibleUnits unidades del producto final que se pueden producir con el stock actual.
func (uc *RecipeUseCase) ProducibleUnits(ctx context.Context, productID, batchCode string) (*dto.ProducibleResponse, error) {
	product, err := uc.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if !product.IsFinishedGood() {
		return nil, domain.ErrInvalidInput
	}
	units, err := uc.resolver.ProducibleUnits(ctx, uc.repos, product, batchCode)
	if err != nil {
		return nil, err
	}
	return &dto.ProducibleResponse{ProductID: productID, BatchCode: batchCode, Units: units}, nil
}
