package usecase

import (
	"context"
	"time"

	authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"
	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	scandto "github.com/WesleyKang13/cybersecurity/internal/scan/dto"
	"github.com/WesleyKang13/cybersecurity/pkg/ai"
)

// ScanUsecase drives the classify-and-persist pipeline for one user.
type ScanUsecase interface {
	// ScanUserInbox fetches the latest inbox messages, skips everything
	// already scanned and persists a verdict per new message. Returns
	// the number of newly scanned messages. A user without a stored
	// credential is a no-op, not an error.
	ScanUserInbox(ctx context.Context, userID string) (int, error)

	// AnalyzeSms classifies one user-submitted message synchronously
	// and always persists the record, fallback verdicts included.
	AnalyzeSms(ctx context.Context, userID, sender, message string) (*ai.Verdict, error)

	// GoogleAuthURL builds the consent URL for connecting a mailbox.
	GoogleAuthURL(state string) string
	// ConnectGoogle exchanges the OAuth code and stores the credential.
	ConnectGoogle(ctx context.Context, userID, code string) error
	// DisconnectGoogle clears the stored credential.
	DisconnectGoogle(userID string) error
	// IsConnected reports whether the user has a usable credential.
	IsConnected(userID string) (bool, error)
}

// DashboardUsecase produces the per-user feed and the admin report.
type DashboardUsecase interface {
	GetDashboard(userID, filter string) (*scandto.DashboardResponse, error)
	GetOrgReport(organizationID string, start, end time.Time) (*scandto.OrgReport, error)
	GetOrgThreats(organizationID string) ([]*scandomain.ScannedEmail, error)
	ListOrgMembers(organizationID string) ([]*authdomain.User, error)
	VerifySafe(userID, recordID string) error
}
