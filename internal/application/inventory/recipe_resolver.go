package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	domaininv "github.com/jhoicas/Fabrica-api/internal/domain/inventory"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// Requirement materia prima necesaria para una cantidad de producto final.
type Requirement struct {
	RawMaterial *entity.Product
	Quantity    decimal.Decimal
}

// RecipeLineInput línea de receta a definir.
type RecipeLineInput struct {
	RawMaterialID   string
	QuantityPerUnit decimal.Decimal
}

// RecipeResolver resuelve recetas activas y calcula requerimientos.
type RecipeResolver struct{}

// NewRecipeResolver construye el resolver.
func NewRecipeResolver() *RecipeResolver { return &RecipeResolver{} }

// ActiveLines líneas activas del alcance batchCode si existen; si no, las de la receta por defecto.
func (r *RecipeResolver) ActiveLines(ctx context.Context, repos repository.Repos, productID, batchCode string) ([]*entity.RecipeLine, error) {
	if batchCode != "" {
		lines, err := repos.Recipes.ListActive(ctx, productID, batchCode)
		if err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}
	return repos.Recipes.ListActive(ctx, productID, "")
}

// RawMaterialIDs IDs de materia prima de la receta activa (para bloquear antes de consumir).
func (r *RecipeResolver) RawMaterialIDs(ctx context.Context, repos repository.Repos, productID, batchCode string) ([]string, error) {
	lines, err := r.ActiveLines(ctx, repos, productID, batchCode)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.RawMaterialID)
	}
	return ids, nil
}

// Requirements por_unidad × (qty / rendimiento) × (1 + merma) por cada línea activa.
// La receta está expresada por tanda; con rendimiento 1 (el valor por defecto) una tanda es una unidad.
// Es la inversa de ProducibleUnits. Sin receta no hay consumo.
func (r *RecipeResolver) Requirements(ctx context.Context, repos repository.Repos, finished *entity.Product, qty decimal.Decimal, batchCode string) ([]Requirement, error) {
	lines, err := r.ActiveLines(ctx, repos, finished.ID, batchCode)
	if err != nil {
		return nil, err
	}
	batches := qty
	if y := finished.Yield(); !y.Equal(decimal.NewFromInt(1)) {
		batches = qty.Div(y)
	}
	reqs := make([]Requirement, 0, len(lines))
	for _, l := range lines {
		raw, err := repos.Products.GetByID(ctx, l.RawMaterialID)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			return nil, domain.ErrNotFound
		}
		waste := decimal.Zero
		if rm, ok := raw.Kind.(entity.RawMaterial); ok {
			waste = rm.WastePercent
		}
		reqs = append(reqs, Requirement{
			RawMaterial: raw,
			Quantity:    domaininv.Requirement(l.QuantityPerUnit, batches, waste),
		})
	}
	return reqs, nil
}

// ProducibleUnits unidades producibles con el stock agregado actual de cada materia prima.
func (r *RecipeResolver) ProducibleUnits(ctx context.Context, repos repository.Repos, finished *entity.Product, batchCode string) (decimal.Decimal, error) {
	lines, err := r.ActiveLines(ctx, repos, finished.ID, batchCode)
	if err != nil {
		return decimal.Zero, err
	}
	inputs := make([]domaininv.RecipeInput, 0, len(lines))
	for _, l := range lines {
		raw, err := repos.Products.GetByID(ctx, l.RawMaterialID)
		if err != nil {
			return decimal.Zero, err
		}
		if raw == nil {
			return decimal.Zero, domain.ErrNotFound
		}
		waste := decimal.Zero
		if rm, ok := raw.Kind.(entity.RawMaterial); ok {
			waste = rm.WastePercent
		}
		inputs = append(inputs, domaininv.RecipeInput{PerUnit: l.QuantityPerUnit, WastePercent: waste, Available: raw.QuantityOnHand})
	}
	return domaininv.ProducibleUnits(inputs, finished.Yield()), nil
}

// DefineRecipe reemplaza la receta activa del alcance (producto, batchCode): desactiva la anterior
// y crea las nuevas líneas en la misma transacción.
func (r *RecipeResolver) DefineRecipe(ctx context.Context, repos repository.Repos, finished *entity.Product, batchCode string, lines []RecipeLineInput) ([]*entity.RecipeLine, error) {
	v := domain.NewValidationError()
	if !finished.IsFinishedGood() {
		v.Add("product_id", "la receta debe ser de un producto final")
	}
	if len(lines) == 0 {
		v.Add("lines", "la receta necesita al menos una línea")
	}
	seen := map[string]bool{}
	for i, l := range lines {
		field := fmt.Sprintf("lines[%d]", i)
		if !l.QuantityPerUnit.IsPositive() {
			v.Add(field+".quantity_per_unit", "debe ser mayor que cero")
		}
		if seen[l.RawMaterialID] {
			v.Add(field+".raw_material_id", "materia prima repetida")
		}
		seen[l.RawMaterialID] = true
		raw, err := repos.Products.GetByID(ctx, l.RawMaterialID)
		if err != nil {
			return nil, err
		}
		if raw == nil || !raw.IsRawMaterial() {
			v.Add(field+".raw_material_id", "no es una materia prima existente")
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := repos.Recipes.DeactivateScope(ctx, finished.ID, batchCode); err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*entity.RecipeLine, 0, len(lines))
	for _, l := range lines {
		line := &entity.RecipeLine{
			ID:                uuid.New().String(),
			FinishedProductID: finished.ID,
			RawMaterialID:     l.RawMaterialID,
			QuantityPerUnit:   l.QuantityPerUnit,
			BatchCode:         batchCode,
			Active:            true,
			CreatedAt:         now,
		}
		if err := repos.Recipes.Create(ctx, line); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, nil
}
