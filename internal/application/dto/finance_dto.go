package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionRequest alta o modificación de una transacción financiera.
// Operating nil = true. Nature vacío = OPERATIONAL.
type TransactionRequest struct {
	Type        string          `json:"type" validate:"required,oneof=INCOME EXPENSE"`
	Amount      decimal.Decimal `json:"amount" validate:"dgt=0"`
	Date        time.Time       `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	CostType    string          `json:"cost_type" validate:"omitempty,oneof=FIXED VARIABLE"`
	Operating   *bool           `json:"operating"`
	Nature      string          `json:"nature" validate:"omitempty,oneof=OPERATIONAL STRUCTURAL FINANCIAL"`
	Channel     string          `json:"channel" validate:"max=50"`
	Activity    string          `json:"activity" validate:"max=100"`
	Description string          `json:"description" validate:"max=500"`
}

// TransactionResponse salida de una transacción.
type TransactionResponse struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Category      string          `json:"category"`
	CostType      string          `json:"cost_type,omitempty"`
	Operating     bool            `json:"operating"`
	Nature        string          `json:"nature"`
	Channel       string          `json:"channel,omitempty"`
	Activity      string          `json:"activity,omitempty"`
	Description   string          `json:"description,omitempty"`
	ResponsibleID string          `json:"responsible_id"`
}

// PeriodRequest mes y año de un balance.
type PeriodRequest struct {
	Month int `json:"month" query:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" query:"year" validate:"required,min=2000,max=2100"`
}
