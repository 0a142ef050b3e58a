package repository

import authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"

// UserRepository defines the persistence contract for users and app
// refresh tokens (the JWT session tokens, not provider OAuth tokens).
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	FindByOrganization(organizationID string) ([]*authdomain.User, error)
	Update(user *authdomain.User) error

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}

// OrganizationRepository defines the persistence contract for organizations.
type OrganizationRepository interface {
	Create(org *authdomain.Organization) error
	FindByID(id string) (*authdomain.Organization, error)
	FindByName(name string) (*authdomain.Organization, error)
}
