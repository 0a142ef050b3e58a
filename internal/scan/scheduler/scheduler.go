package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	"github.com/WesleyKang13/cybersecurity/internal/scan/repository"
	"github.com/WesleyKang13/cybersecurity/internal/scan/usecase"
)

// ScanScheduler periodically scans the inbox of every connected user.
// Each user runs in its own goroutine with a wall-clock bound, so one
// hung mailbox cannot stall the whole cycle; a user that is still
// running when the next tick fires is skipped, not doubled up.
type ScanScheduler struct {
	scanUsecase usecase.ScanUsecase
	credRepo    repository.CredentialRepository
	interval    time.Duration
	userTimeout time.Duration
	stopChan    chan struct{}

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

// NewScanScheduler creates a new scheduler
func NewScanScheduler(scanUsecase usecase.ScanUsecase, credRepo repository.CredentialRepository, interval, userTimeout time.Duration) *ScanScheduler {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	if userTimeout <= 0 {
		userTimeout = 90 * time.Second
	}
	return &ScanScheduler{
		scanUsecase: scanUsecase,
		credRepo:    credRepo,
		interval:    interval,
		userTimeout: userTimeout,
		stopChan:    make(chan struct{}),
		inFlight:    make(map[string]struct{}),
	}
}

// Start begins the scheduler loop
func (s *ScanScheduler) Start() {
	log.Printf("[Scheduler] starting inbox scan scheduler (interval: %s)", s.interval)

	go func() {
		// Run immediately on start
		s.runScanCycle()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runScanCycle()
			case <-s.stopChan:
				log.Println("[Scheduler] scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *ScanScheduler) Stop() {
	close(s.stopChan)
}

// runScanCycle enumerates connected users and dispatches one scan task
// per user. Failures are isolated per user: a broken credential or a
// down mailbox only affects that user's task.
func (s *ScanScheduler) runScanCycle() {
	creds, err := s.credRepo.FindConnected(scandomain.ProviderGoogle)
	if err != nil {
		log.Printf("[Scheduler] failed to list connected users: %v", err)
		return
	}

	if len(creds) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, cred := range creds {
		userID := cred.UserID
		if !s.tryAcquire(userID) {
			log.Printf("[Scheduler] scan still running for user %s, skipping this cycle", userID)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.release(userID)
			s.scanUser(userID)
		}()
	}
	wg.Wait()
}

func (s *ScanScheduler) scanUser(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.userTimeout)
	defer cancel()

	scanned, err := s.scanUsecase.ScanUserInbox(ctx, userID)
	switch {
	case err == nil:
		if scanned > 0 {
			log.Printf("[Scheduler] scanned %d new messages for user %s", scanned, userID)
		}
	case errors.Is(err, scandomain.ErrReconnectRequired), errors.Is(err, scandomain.ErrNoRefreshToken):
		// Terminal for this user: only a new authorization fixes it.
		// The dashboard surfaces the reconnect prompt; retrying here
		// would just burn quota.
		log.Printf("[Scheduler] user %s needs to reconnect their mailbox: %v", userID, err)
	case errors.Is(err, context.DeadlineExceeded):
		log.Printf("[Scheduler] scan for user %s exceeded %s, will retry next cycle", userID, s.userTimeout)
	default:
		log.Printf("[Scheduler] scan failed for user %s: %v", userID, err)
	}
}

func (s *ScanScheduler) tryAcquire(userID string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, running := s.inFlight[userID]; running {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *ScanScheduler) release(userID string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, userID)
}
