package repository

import (
	"errors"
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// credentialRepository implements CredentialRepository interface
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new instance of credentialRepository
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{
		db: db,
	}
}

func (r *credentialRepository) FindByUserAndProvider(userID, provider string) (*scandomain.OAuthCredential, error) {
	var cred scandomain.OAuthCredential
	err := r.db.Where("user_id = ? AND provider = ?", userID, provider).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) FindConnected(provider string) ([]*scandomain.OAuthCredential, error) {
	var creds []*scandomain.OAuthCredential
	err := r.db.Where("provider = ? AND access_token <> ''", provider).Find(&creds).Error
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (r *credentialRepository) Save(cred *scandomain.OAuthCredential) error {
	existing, err := r.FindByUserAndProvider(cred.UserID, cred.Provider)
	if err != nil {
		return err
	}

	now := time.Now()
	if existing == nil {
		cred.ID = uuid.New().String()
		cred.CreatedAt = now
		cred.UpdatedAt = now
		return r.db.Create(cred).Error
	}

	cred.ID = existing.ID
	cred.CreatedAt = existing.CreatedAt
	cred.UpdatedAt = now
	return r.db.Save(cred).Error
}

// UpdateTokens re-reads the credential under a row lock before merging,
// so two concurrent refreshes for the same user serialize instead of
// one overwriting the other with a stale access token. The merge keeps
// the stored refresh token when the provider response omits one.
func (r *credentialRepository) UpdateTokens(userID, provider string, tok *oauth2.Token) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var cred scandomain.OAuthCredential
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND provider = ?", userID, provider).
			First(&cred).Error
		if err != nil {
			return err
		}

		cred.ApplyToken(tok)
		cred.UpdatedAt = time.Now()
		return tx.Save(&cred).Error
	})
}

func (r *credentialRepository) Clear(userID, provider string) error {
	return r.db.Model(&scandomain.OAuthCredential{}).
		Where("user_id = ? AND provider = ?", userID, provider).
		Updates(map[string]interface{}{
			"access_token":  "",
			"refresh_token": "",
			"expires_at":    time.Time{},
			"updated_at":    time.Now(),
		}).Error
}
