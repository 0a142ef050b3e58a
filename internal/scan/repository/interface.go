package repository

import (
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"golang.org/x/oauth2"
)

// CredentialRepository defines the persistence contract for provider
// OAuth credentials.
type CredentialRepository interface {
	FindByUserAndProvider(userID, provider string) (*scandomain.OAuthCredential, error)
	// FindConnected returns every credential that still holds tokens,
	// used by the scheduler to enumerate scannable users.
	FindConnected(provider string) ([]*scandomain.OAuthCredential, error)
	// Save upserts the credential for its user+provider pair.
	Save(cred *scandomain.OAuthCredential) error
	// UpdateTokens merges a provider token response into the stored
	// credential under a row lock, so concurrent refreshes cannot
	// overwrite each other and the refresh token is never lost.
	UpdateTokens(userID, provider string, tok *oauth2.Token) error
	// Clear blanks the stored tokens on disconnect; the row is kept.
	Clear(userID, provider string) error
}

// ScannedEmailRepository defines the persistence contract for classified
// inbox messages.
type ScannedEmailRepository interface {
	// ExistsByMessageID checks the full history, including soft-deleted
	// records, so an archived message is never re-scanned.
	ExistsByMessageID(userID, messageID string) (bool, error)
	Create(email *scandomain.ScannedEmail) error
	FindLatestByUser(userID string, limit int) ([]*scandomain.ScannedEmail, error)
	// FindThreatsByUsers returns threat records for the given users,
	// newest first.
	FindThreatsByUsers(userIDs []string) ([]*scandomain.ScannedEmail, error)
	CountByUser(userID string) (int64, error)
	CountThreatsByUser(userID string) (int64, error)
	CountInRange(userIDs []string, start, end time.Time, threatsOnly bool) (int64, error)
	// CountVerifiedInRange includes soft-deleted rows: verified-safe
	// items are archived but stay part of historical reporting.
	CountVerifiedInRange(userIDs []string, start, end time.Time) (int64, error)
	// MarkVerifiedSafe flags the record as human-verified and archives
	// it (soft delete).
	MarkVerifiedSafe(userID, id string) error
}

// ScannedSmsRepository defines the persistence contract for classified
// SMS submissions.
type ScannedSmsRepository interface {
	Create(sms *scandomain.ScannedSms) error
	FindLatestByUser(userID string, limit int) ([]*scandomain.ScannedSms, error)
	CountByUser(userID string) (int64, error)
	CountThreatsByUser(userID string) (int64, error)
	CountInRange(userIDs []string, start, end time.Time, threatsOnly bool) (int64, error)
}
