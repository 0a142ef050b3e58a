package repository

import (
	"errors"
	"time"

	authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// organizationRepository implements OrganizationRepository interface
type organizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new instance of organizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{
		db: db,
	}
}

func (r *organizationRepository) Create(org *authdomain.Organization) error {
	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	org.CreatedAt = time.Now()
	org.UpdatedAt = time.Now()
	return r.db.Create(org).Error
}

func (r *organizationRepository) FindByID(id string) (*authdomain.Organization, error) {
	var org authdomain.Organization
	err := r.db.Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindByName(name string) (*authdomain.Organization, error) {
	var org authdomain.Organization
	err := r.db.Where("name = ?", name).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}
