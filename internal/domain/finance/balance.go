// Package finance contiene el cálculo puro del balance mensual.
package finance

import (
	"strings"

	"github.com/jhoicas/Fabrica-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var (
	fixedCategories = map[string]bool{
		"alquiler": true, "sueldos": true, "seguros": true, "servicios": true,
	}
	variableCategories = map[string]bool{
		"materia_prima": true, "empaque": true, "transporte_pedido": true, "comisiones": true,
	}
)

// ClassifyCostType tipo de costo explícito o, si falta, el que corresponde a la categoría.
// Devuelve "" cuando no se puede clasificar.
func ClassifyCostType(costType, category string) string {
	if costType == entity.CostTypeFixed || costType == entity.CostTypeVariable {
		return costType
	}
	c := strings.ToLower(strings.TrimSpace(category))
	switch {
	case fixedCategories[c]:
		return entity.CostTypeFixed
	case variableCategories[c]:
		return entity.CostTypeVariable
	}
	return ""
}

// IsOperating una transacción es operativa si está marcada así y su naturaleza es operacional.
func IsOperating(t *entity.FinancialTransaction) bool {
	return t.Operating && (t.Nature == "" || t.Nature == entity.NatureOperational)
}

// Inputs totales del período.
type Inputs struct {
	Month        int
	Year         int
	Sales        decimal.Decimal
	Purchases    decimal.Decimal
	Transactions []*entity.FinancialTransaction
}

// ComputeBalance calcula el snapshot del mes. Es determinista: mismas entradas, mismo resultado.
func ComputeBalance(in Inputs) entity.BalanceSnapshot {
	s := entity.BalanceSnapshot{
		Month:          in.Month,
		Year:           in.Year,
		Sales:          in.Sales,
		Purchases:      in.Purchases,
		IncomeByNature: map[string]decimal.Decimal{},
	}

	var incomes, expenses, operatingIncome decimal.Decimal
	variable := in.Purchases
	for _, t := range in.Transactions {
		nature := t.Nature
		if nature == "" {
			nature = entity.NatureOperational
		}
		switch t.Type {
		case entity.TransactionIncome:
			incomes = incomes.Add(t.Amount)
			s.IncomeByNature[nature] = s.IncomeByNature[nature].Add(t.Amount)
			if IsOperating(t) {
				operatingIncome = operatingIncome.Add(t.Amount)
			}
		case entity.TransactionExpense:
			expenses = expenses.Add(t.Amount)
			ct := ClassifyCostType(t.CostType, t.Category)
			if IsOperating(t) {
				switch ct {
				case entity.CostTypeVariable:
					variable = variable.Add(t.Amount)
				case entity.CostTypeFixed:
					s.FixedCosts = s.FixedCosts.Add(t.Amount)
				default:
					s.UnclassifiedExpenses = s.UnclassifiedExpenses.Add(t.Amount)
				}
				continue
			}
			switch nature {
			case entity.NatureFinancial:
				s.FinancialExpenses = s.FinancialExpenses.Add(t.Amount)
			case entity.NatureStructural:
				s.StructuralExpenses = s.StructuralExpenses.Add(t.Amount)
			}
			if ct == entity.CostTypeFixed {
				s.NonOperatingFixed = s.NonOperatingFixed.Add(t.Amount)
			} else if nature == entity.NatureOperational {
				s.UnclassifiedExpenses = s.UnclassifiedExpenses.Add(t.Amount)
			}
		}
	}

	s.VariableCosts = variable
	s.TotalFixedCosts = s.FixedCosts.Add(s.NonOperatingFixed)
	s.OperatingIncome = in.Sales.Add(operatingIncome)
	s.OperatingProfit = s.OperatingIncome.Sub(s.FixedCosts.Add(s.VariableCosts))
	s.TotalIncome = in.Sales.Add(incomes)
	s.TotalExpense = in.Purchases.Add(expenses)
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpense)

	if in.Sales.IsPositive() {
		ratio := decimal.NewFromInt(1).Sub(s.VariableCosts.DivRound(in.Sales, 8))
		s.ContributionMarginRatio = &ratio
		if ratio.IsPositive() {
			op := s.FixedCosts.DivRound(ratio, 2)
			total := s.TotalFixedCosts.DivRound(ratio, 2)
			s.BreakEvenOperating = &op
			s.BreakEvenTotal = &total
		}
	}
	return s
}
