package repository

import (
	"errors"
	"time"

	"github.com/WesleyKang13/cybersecurity/pkg/ai"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// scannedEmailRepository implements ScannedEmailRepository interface
type scannedEmailRepository struct {
	db *gorm.DB
}

// NewScannedEmailRepository creates a new instance of scannedEmailRepository
func NewScannedEmailRepository(db *gorm.DB) ScannedEmailRepository {
	return &scannedEmailRepository{
		db: db,
	}
}

// ExistsByMessageID checks whether a provider message id was already
// scanned for this user. Unscoped so archived (soft-deleted) records
// still count: a human already triaged those.
func (r *scannedEmailRepository) ExistsByMessageID(userID, messageID string) (bool, error) {
	var count int64
	err := r.db.Unscoped().
		Model(&scandomain.ScannedEmail{}).
		Where("user_id = ? AND google_message_id = ?", userID, messageID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *scannedEmailRepository) Create(email *scandomain.ScannedEmail) error {
	if email.ID == "" {
		email.ID = uuid.New().String()
	}
	now := time.Now()
	email.CreatedAt = now
	email.UpdatedAt = now
	return r.db.Create(email).Error
}

func (r *scannedEmailRepository) FindLatestByUser(userID string, limit int) ([]*scandomain.ScannedEmail, error) {
	var emails []*scandomain.ScannedEmail
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *scannedEmailRepository) FindThreatsByUsers(userIDs []string) ([]*scandomain.ScannedEmail, error) {
	var emails []*scandomain.ScannedEmail
	err := r.db.Where("user_id IN ? AND is_threat = ?", userIDs, true).
		Order("created_at DESC").
		Find(&emails).Error
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func (r *scannedEmailRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&scandomain.ScannedEmail{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *scannedEmailRepository) CountThreatsByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&scandomain.ScannedEmail{}).
		Where("user_id = ? AND is_threat = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *scannedEmailRepository) CountInRange(userIDs []string, start, end time.Time, threatsOnly bool) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := r.db.Model(&scandomain.ScannedEmail{}).
		Where("user_id IN ? AND created_at BETWEEN ? AND ?", userIDs, start, end)
	if threatsOnly {
		query = query.Where("is_threat = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *scannedEmailRepository) CountVerifiedInRange(userIDs []string, start, end time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Unscoped().
		Model(&scandomain.ScannedEmail{}).
		Where("user_id IN ? AND created_at BETWEEN ? AND ? AND severity = ?", userIDs, start, end, ai.SeverityVerified).
		Count(&count).Error
	return count, err
}

// MarkVerifiedSafe records the human triage decision and archives the
// row. The archived record keeps serving the dedup check and the
// verified-safe report counts.
func (r *scannedEmailRepository) MarkVerifiedSafe(userID, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&scandomain.ScannedEmail{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"severity":   ai.SeverityVerified,
				"is_threat":  false,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("scanned email not found")
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&scandomain.ScannedEmail{}).Error
	})
}
