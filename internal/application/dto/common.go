package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
// Errors trae los mensajes por campo en errores de validación.
type ErrorResponse struct {
	Code      string              `json:"code"`
	Message   string              `json:"message"`
	Errors    map[string][]string `json:"errors,omitempty"`
	ProductID string              `json:"product_id,omitempty"`
	Shortfall string              `json:"shortfall,omitempty"`
	Retryable bool                `json:"retryable,omitempty"`
}
