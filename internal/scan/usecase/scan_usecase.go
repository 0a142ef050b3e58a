package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	"github.com/WesleyKang13/cybersecurity/internal/scan/repository"
	"github.com/WesleyKang13/cybersecurity/pkg/ai"

	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// ErrClassifierNotConfigured is returned when GEMINI_API_KEY is missing.
// A configuration fault is surfaced immediately, never retried.
var ErrClassifierNotConfigured = errors.New("classifier is not configured")

const (
	maxSmsSenderLen  = 100
	maxSmsMessageLen = 1000
)

// scanUsecase implements ScanUsecase interface
type scanUsecase struct {
	credRepo   repository.CredentialRepository
	emailRepo  repository.ScannedEmailRepository
	smsRepo    repository.ScannedSmsRepository
	mail       scandomain.MailProvider
	classifier ai.ThreatClassifier
	oauthCfg   *oauth2.Config
	fetchLimit int
}

// NewScanUsecase creates a new instance of scanUsecase. classifier may
// be nil when no API key is configured; scanning then degrades to the
// configuration-fault error.
func NewScanUsecase(
	credRepo repository.CredentialRepository,
	emailRepo repository.ScannedEmailRepository,
	smsRepo repository.ScannedSmsRepository,
	mail scandomain.MailProvider,
	classifier ai.ThreatClassifier,
	oauthCfg *oauth2.Config,
	fetchLimit int,
) ScanUsecase {
	if fetchLimit <= 0 {
		fetchLimit = 5
	}
	return &scanUsecase{
		credRepo:   credRepo,
		emailRepo:  emailRepo,
		smsRepo:    smsRepo,
		mail:       mail,
		classifier: classifier,
		oauthCfg:   oauthCfg,
		fetchLimit: fetchLimit,
	}
}

// ScanUserInbox pulls the latest messages for one user and classifies
// everything not seen before. One bad message never stops the batch:
// classifier failures degrade to fallback verdicts inside the client,
// and duplicate writes are treated as "already scanned".
func (u *scanUsecase) ScanUserInbox(ctx context.Context, userID string) (int, error) {
	cred, err := u.credRepo.FindByUserAndProvider(userID, scandomain.ProviderGoogle)
	if err != nil {
		return 0, err
	}
	if !cred.Connected() {
		// Not connected: nothing to scan.
		return 0, nil
	}

	if u.classifier == nil {
		return 0, ErrClassifierNotConfigured
	}

	messages, err := u.mail.FetchLatestEmails(ctx, cred, u.fetchLimit, func(tok *oauth2.Token) error {
		return u.credRepo.UpdateTokens(userID, scandomain.ProviderGoogle, tok)
	})
	if err != nil {
		return 0, fmt.Errorf("fetch inbox for user %s: %w", userID, err)
	}

	scanned := 0
	for _, msg := range messages {
		exists, err := u.emailRepo.ExistsByMessageID(userID, msg.ID)
		if err != nil {
			return scanned, err
		}
		if exists {
			continue
		}

		verdict := u.classifier.ClassifyEmail(ctx, msg.Subject, msg.From, msg.Snippet)

		record := &scandomain.ScannedEmail{
			UserID:          userID,
			GoogleMessageID: msg.ID,
			Subject:         msg.Subject,
			Sender:          msg.From,
			Snippet:         msg.Snippet,
			IsThreat:        verdict.IsThreat,
			Severity:        verdict.Severity,
			RiskScore:       verdict.RiskScore,
			Reason:          verdict.Reason,
		}

		if err := u.emailRepo.Create(record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent scan got there first; the unique index
				// on (user, message id) is the real duplicate guard.
				log.Printf("[Scan] message %s already recorded for user %s, skipping", msg.ID, userID)
				continue
			}
			return scanned, err
		}
		scanned++
	}

	return scanned, nil
}

func (u *scanUsecase) AnalyzeSms(ctx context.Context, userID, sender, message string) (*ai.Verdict, error) {
	sender = strings.TrimSpace(sender)
	message = strings.TrimSpace(message)

	if sender == "" || message == "" {
		return nil, errors.New("sender and message are required")
	}
	if len(sender) > maxSmsSenderLen {
		return nil, fmt.Errorf("sender exceeds %d characters", maxSmsSenderLen)
	}
	if len(message) > maxSmsMessageLen {
		return nil, fmt.Errorf("message exceeds %d characters", maxSmsMessageLen)
	}

	if u.classifier == nil {
		return nil, ErrClassifierNotConfigured
	}

	verdict := u.classifier.ClassifySms(ctx, sender, message)

	// Persist regardless of the classification outcome so the record
	// is never silently lost. There is no dedup key for SMS: every
	// submission is stored independently.
	record := &scandomain.ScannedSms{
		UserID:      userID,
		Sender:      sender,
		Content:     message,
		IsThreat:    verdict.IsThreat,
		Severity:    verdict.Severity,
		RiskScore:   verdict.RiskScore,
		Type:        verdict.Type,
		Explanation: verdict.Reason,
	}
	if err := u.smsRepo.Create(record); err != nil {
		return nil, err
	}

	return verdict, nil
}

func (u *scanUsecase) GoogleAuthURL(state string) string {
	return u.oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent select_account"),
	)
}

func (u *scanUsecase) ConnectGoogle(ctx context.Context, userID, code string) error {
	tok, err := u.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("google code exchange failed: %w", err)
	}

	cred, err := u.credRepo.FindByUserAndProvider(userID, scandomain.ProviderGoogle)
	if err != nil {
		return err
	}
	if cred == nil {
		cred = &scandomain.OAuthCredential{
			UserID:   userID,
			Provider: scandomain.ProviderGoogle,
		}
	}
	cred.ApplyToken(tok)

	return u.credRepo.Save(cred)
}

func (u *scanUsecase) DisconnectGoogle(userID string) error {
	return u.credRepo.Clear(userID, scandomain.ProviderGoogle)
}

func (u *scanUsecase) IsConnected(userID string) (bool, error) {
	cred, err := u.credRepo.FindByUserAndProvider(userID, scandomain.ProviderGoogle)
	if err != nil {
		return false, err
	}
	return cred.Connected(), nil
}
