package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	"github.com/WesleyKang13/cybersecurity/pkg/ai"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
)

type stubScanUsecase struct {
	scans   atomic.Int32
	block   chan struct{}
	scanErr error
}

func (s *stubScanUsecase) ScanUserInbox(ctx context.Context, userID string) (int, error) {
	s.scans.Add(1)
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return 1, s.scanErr
}

func (s *stubScanUsecase) AnalyzeSms(ctx context.Context, userID, sender, message string) (*ai.Verdict, error) {
	return nil, nil
}

func (s *stubScanUsecase) GoogleAuthURL(state string) string { return "" }
func (s *stubScanUsecase) ConnectGoogle(ctx context.Context, userID, code string) error {
	return nil
}
func (s *stubScanUsecase) DisconnectGoogle(userID string) error    { return nil }
func (s *stubScanUsecase) IsConnected(userID string) (bool, error) { return true, nil }

type stubCredRepo struct {
	creds []*scandomain.OAuthCredential
}

func (s *stubCredRepo) FindByUserAndProvider(userID, provider string) (*scandomain.OAuthCredential, error) {
	return nil, nil
}

func (s *stubCredRepo) FindConnected(provider string) ([]*scandomain.OAuthCredential, error) {
	return s.creds, nil
}

func (s *stubCredRepo) Save(cred *scandomain.OAuthCredential) error { return nil }
func (s *stubCredRepo) UpdateTokens(userID, provider string, tok *oauth2.Token) error {
	return nil
}
func (s *stubCredRepo) Clear(userID, provider string) error { return nil }

func connectedCreds(userIDs ...string) []*scandomain.OAuthCredential {
	creds := make([]*scandomain.OAuthCredential, 0, len(userIDs))
	for _, id := range userIDs {
		creds = append(creds, &scandomain.OAuthCredential{
			UserID:      id,
			Provider:    scandomain.ProviderGoogle,
			AccessToken: "access",
		})
	}
	return creds
}

func TestRunScanCycleScansEveryConnectedUser(t *testing.T) {
	uc := &stubScanUsecase{}
	s := NewScanScheduler(uc, &stubCredRepo{creds: connectedCreds("u1", "u2", "u3")}, time.Minute, time.Minute)

	s.runScanCycle()

	assert.Equal(t, int32(3), uc.scans.Load())
}

func TestRunScanCycleSkipsUserStillInFlight(t *testing.T) {
	uc := &stubScanUsecase{block: make(chan struct{})}
	s := NewScanScheduler(uc, &stubCredRepo{creds: connectedCreds("u1")}, time.Minute, time.Minute)

	// Hold the user's slot as if a previous scan were still running.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.runScanCycle()
	}()

	// Wait until the blocked scan has started.
	for uc.scans.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	s.runScanCycle()
	assert.Equal(t, int32(1), uc.scans.Load())

	close(uc.block)
	wg.Wait()

	// Slot released: the next cycle scans again.
	s.runScanCycle()
	assert.Equal(t, int32(2), uc.scans.Load())
}

func TestScanUserToleratesReconnectRequired(t *testing.T) {
	uc := &stubScanUsecase{scanErr: scandomain.ErrReconnectRequired}
	s := NewScanScheduler(uc, &stubCredRepo{creds: connectedCreds("u1")}, time.Minute, time.Minute)

	// Must not panic or retry; the user is reported, not rescanned.
	s.runScanCycle()
	assert.Equal(t, int32(1), uc.scans.Load())
}

func TestTryAcquireIsExclusivePerUser(t *testing.T) {
	s := NewScanScheduler(&stubScanUsecase{}, &stubCredRepo{}, time.Minute, time.Minute)

	assert.True(t, s.tryAcquire("u1"))
	assert.False(t, s.tryAcquire("u1"))
	assert.True(t, s.tryAcquire("u2"))

	s.release("u1")
	assert.True(t, s.tryAcquire("u1"))
}
