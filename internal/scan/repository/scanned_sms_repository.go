package repository

import (
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// scannedSmsRepository implements ScannedSmsRepository interface
type scannedSmsRepository struct {
	db *gorm.DB
}

// NewScannedSmsRepository creates a new instance of scannedSmsRepository
func NewScannedSmsRepository(db *gorm.DB) ScannedSmsRepository {
	return &scannedSmsRepository{
		db: db,
	}
}

func (r *scannedSmsRepository) Create(sms *scandomain.ScannedSms) error {
	if sms.ID == "" {
		sms.ID = uuid.New().String()
	}
	now := time.Now()
	sms.CreatedAt = now
	sms.UpdatedAt = now
	return r.db.Create(sms).Error
}

func (r *scannedSmsRepository) FindLatestByUser(userID string, limit int) ([]*scandomain.ScannedSms, error) {
	var messages []*scandomain.ScannedSms
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *scannedSmsRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&scandomain.ScannedSms{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *scannedSmsRepository) CountThreatsByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&scandomain.ScannedSms{}).
		Where("user_id = ? AND is_threat = ?", userID, true).
		Count(&count).Error
	return count, err
}

func (r *scannedSmsRepository) CountInRange(userIDs []string, start, end time.Time, threatsOnly bool) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	query := r.db.Model(&scandomain.ScannedSms{}).
		Where("user_id IN ? AND created_at BETWEEN ? AND ?", userIDs, start, end)
	if threatsOnly {
		query = query.Where("is_threat = ?", true)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}
