package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleVentas     = "ventas"
	RoleProduccion = "produccion"
	RoleFinanzas   = "finanzas"
)

// User usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
