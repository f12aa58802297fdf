package entity

import "time"

// Customer cliente (opcional en una venta).
type Customer struct {
	ID        string
	Name      string
	Contact   string
	Email     string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
