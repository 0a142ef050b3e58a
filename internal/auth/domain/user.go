package domain

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID             string    `gorm:"primaryKey" json:"id"`
	Email          string    `gorm:"uniqueIndex" json:"email"`
	Password       string    `json:"-"` // Never return password in JSON
	Name           string    `json:"name"`
	OrganizationID string    `gorm:"index" json:"organization_id"`
	Role           string    `json:"role"` // "admin" or "member"
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type RefreshToken struct {
	Token     string    `gorm:"primaryKey" json:"token"`
	UserID    string    `gorm:"index" json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
