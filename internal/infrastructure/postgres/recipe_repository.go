package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

var _ repository.RecipeRepository = (*RecipeRepo)(nil)

// RecipeRepo líneas de receta.
type RecipeRepo struct {
	q Querier
}

// NewRecipeRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecipeRepository(q Querier) *RecipeRepo {
	return &RecipeRepo{q: q}
}

func scanRecipeLine(row pgxScanner) (*entity.RecipeLine, error) {
	var l entity.RecipeLine
	if err := row.Scan(&l.ID, &l.FinishedProductID, &l.RawMaterialID, &l.QuantityPerUnit,
		&l.BatchCode, &l.Active, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *RecipeRepo) ListActive(ctx context.Context, finishedProductID, batchCode string) ([]*entity.RecipeLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, finished_product_id, raw_material_id, quantity_per_unit, batch_code, active, created_at
		FROM recipe_lines WHERE finished_product_id = $1 AND batch_code = $2 AND active
		ORDER BY raw_material_id`, finishedProductID, batchCode)
	if err != nil {
		return nil, fmt.Errorf("list recipe: %w", err)
	}
	list, err := collect(rows, scanRecipeLine)
	if err != nil {
		return nil, fmt.Errorf("scan recipe line: %w", err)
	}
	return list, nil
}

func (r *RecipeRepo) DeactivateScope(ctx context.Context, finishedProductID, batchCode string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE recipe_lines SET active = FALSE
		WHERE finished_product_id = $1 AND batch_code = $2 AND active`, finishedProductID, batchCode)
	if err != nil {
		return fmt.Errorf("deactivate recipe: %w", mapError(err, "recipe:"+finishedProductID))
	}
	return nil
}

func (r *RecipeRepo) Create(ctx context.Context, l *entity.RecipeLine) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO recipe_lines (id, finished_product_id, raw_material_id, quantity_per_unit, batch_code, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.FinishedProductID, l.RawMaterialID, l.QuantityPerUnit, l.BatchCode, l.Active, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recipe line: %w", mapError(err, "recipe"))
	}
	return nil
}
