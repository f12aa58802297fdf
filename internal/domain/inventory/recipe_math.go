package inventory

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// Requirement cantidad de materia prima para qty unidades: por_unidad × qty × (1 + merma).
func Requirement(perUnit, qty, wastePercent decimal.Decimal) decimal.Decimal {
	return perUnit.Mul(qty).Mul(one.Add(wastePercent))
}

// RecipeInput una línea de receta con el disponible de su materia prima.
type RecipeInput struct {
	PerUnit      decimal.Decimal
	WastePercent decimal.Decimal
	Available    decimal.Decimal
}

// ProducibleUnits mínimo sobre las líneas de floor(disponible / (por_unidad × (1 + merma))) × rendimiento.
// Sin líneas no hay nada producible.
func ProducibleUnits(lines []RecipeInput, yieldFactor decimal.Decimal) decimal.Decimal {
	if len(lines) == 0 {
		return decimal.Zero
	}
	if !yieldFactor.IsPositive() {
		yieldFactor = one
	}
	var min *decimal.Decimal
	for _, l := range lines {
		need := l.PerUnit.Mul(one.Add(l.WastePercent))
		if !need.IsPositive() {
			continue
		}
		avail := l.Available
		if avail.IsNegative() {
			avail = decimal.Zero
		}
		batches := avail.Div(need).Floor()
		if min == nil || batches.LessThan(*min) {
			b := batches
			min = &b
		}
	}
	if min == nil {
		return decimal.Zero
	}
	return min.Mul(yieldFactor)
}
