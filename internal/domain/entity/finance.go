package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de transacción financiera.
const (
	TransactionIncome  = "INCOME"
	TransactionExpense = "EXPENSE"
)

// Tipos de costo.
const (
	CostTypeFixed    = "FIXED"
	CostTypeVariable = "VARIABLE"
)

// Naturaleza de la transacción.
const (
	NatureOperational = "OPERATIONAL"
	NatureStructural  = "STRUCTURAL"
	NatureFinancial   = "FINANCIAL"
)

// FinancialTransaction ingreso o gasto registrado fuera de ventas y compras.
type FinancialTransaction struct {
	ID            string
	Type          string
	Amount        decimal.Decimal
	Date          time.Time
	Category      string
	CostType      string // FIXED, VARIABLE o vacío
	Operating     bool
	Nature        string
	Channel       string
	Activity      string
	Description   string
	ResponsibleID string
	Reviewed      bool
	CreatedAt     time.Time
}

// RecurringExpense plantilla mensual de gasto; genera a lo sumo una transacción por mes.
type RecurringExpense struct {
	ID            string
	Name          string
	Category      string
	Amount        decimal.Decimal
	CutoffDay     int
	Active        bool
	Nature        string
	CostType      string
	ResponsibleID string
	LastGenerated *time.Time
	CreatedAt     time.Time
}

// BalanceSnapshot cifras del mes. No lleva marca de tiempo: dos recálculos iguales serializan igual.
type BalanceSnapshot struct {
	Month                   int                        `json:"month"`
	Year                    int                        `json:"year"`
	Sales                   decimal.Decimal            `json:"sales"`
	Purchases               decimal.Decimal            `json:"purchases"`
	OperatingIncome         decimal.Decimal            `json:"operating_income"`
	IncomeByNature          map[string]decimal.Decimal `json:"income_by_nature"`
	VariableCosts           decimal.Decimal            `json:"variable_costs"`
	FixedCosts              decimal.Decimal            `json:"fixed_costs"`
	FinancialExpenses       decimal.Decimal            `json:"financial_expenses"`
	StructuralExpenses      decimal.Decimal            `json:"structural_expenses"`
	NonOperatingFixed       decimal.Decimal            `json:"non_operating_fixed"`
	TotalFixedCosts         decimal.Decimal            `json:"total_fixed_costs"`
	UnclassifiedExpenses    decimal.Decimal            `json:"unclassified_expenses"`
	OperatingProfit         decimal.Decimal            `json:"operating_profit"`
	TotalIncome             decimal.Decimal            `json:"total_income"`
	TotalExpense            decimal.Decimal            `json:"total_expense"`
	NetProfit               decimal.Decimal            `json:"net_profit"`
	ContributionMarginRatio *decimal.Decimal           `json:"contribution_margin_ratio"`
	BreakEvenOperating      *decimal.Decimal           `json:"break_even_operating"`
	BreakEvenTotal          *decimal.Decimal           `json:"break_even_total"`
}

// MonthlyBalance snapshot almacenado por (mes, año) con su bandera de cierre.
type MonthlyBalance struct {
	Month    int             `json:"month"`
	Year     int             `json:"year"`
	Snapshot BalanceSnapshot `json:"snapshot"`
	Locked   bool            `json:"locked"`
}
