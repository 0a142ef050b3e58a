package domain

import (
	"time"

	"gorm.io/gorm"
)

// ScannedEmail is one classified inbox message. Records are immutable
// after creation except for the verified-safe archival marker: archived
// rows are soft-deleted so they stay visible to dedup and reporting.
type ScannedEmail struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	UserID          string         `gorm:"uniqueIndex:idx_scanned_emails_user_message" json:"user_id"`
	GoogleMessageID string         `gorm:"uniqueIndex:idx_scanned_emails_user_message" json:"google_message_id"`
	Subject         string         `json:"subject"`
	Sender          string         `json:"sender"`
	Snippet         string         `json:"snippet"`
	IsThreat        bool           `json:"is_threat"`
	Severity        string         `json:"severity"`
	RiskScore       int            `json:"risk_score"`
	Reason          string         `json:"reason"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// ScannedSms is one classified user-submitted text message. There is no
// provider message id: every submission is scanned and stored
// independently.
type ScannedSms struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"index" json:"user_id"`
	Sender      string         `json:"sender"`
	Content     string         `json:"content"`
	IsThreat    bool           `json:"is_threat"`
	Severity    string         `json:"severity"`
	RiskScore   int            `json:"risk_score"`
	Type        string         `json:"type"`
	Explanation string         `json:"explanation"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
