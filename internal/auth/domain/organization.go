package domain

import "time"

// Organization groups users for admin reporting. Every scanned record
// is owned by exactly one user, and report queries are scoped to the
// admin's organization.
type Organization struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
