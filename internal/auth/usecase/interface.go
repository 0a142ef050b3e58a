package usecase

import (
	authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"
	authdto "github.com/WesleyKang13/cybersecurity/internal/auth/dto"
)

// AuthUsecase defines the interface for authentication use cases
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)

	// AddMember lets an admin provision a member account inside their
	// own organization.
	AddMember(admin *authdomain.User, req *authdto.AddMemberRequest) (*authdomain.User, error)
}
