package repository

import (
	"context"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
)

// RecipeRepository líneas de receta por producto final y alcance (batchCode "" = por defecto).
type RecipeRepository interface {
	ListActive(ctx context.Context, finishedProductID, batchCode string) ([]*entity.RecipeLine, error)
	DeactivateScope(ctx context.Context, finishedProductID, batchCode string) error
	Create(ctx context.Context, line *entity.RecipeLine) error
}
