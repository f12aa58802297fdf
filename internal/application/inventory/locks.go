package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/Fabrica-api/internal/domain"
	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/jhoicas/Fabrica-api/internal/domain/repository"
)

// CanonicalOrder deduplica y ordena ascendente los IDs; todo bloqueo de productos sigue este orden.
func CanonicalOrder(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LockProducts bloquea (NOWAIT) los productos en orden canónico y devuelve sus filas frescas.
// Un bloqueo ocupado corta la operación con *domain.LockContentionError.
func LockProducts(ctx context.Context, products repository.ProductRepository, ids []string) (map[string]*entity.Product, error) {
	ordered := CanonicalOrder(ids)
	locked := make(map[string]*entity.Product, len(ordered))
	for _, id := range ordered {
		p, err := products.LockNoWait(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		locked[id] = p
	}
	return locked, nil
}
