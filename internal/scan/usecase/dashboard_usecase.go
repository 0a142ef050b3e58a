package usecase

import (
	"math"
	"sort"
	"time"

	authdomain "github.com/WesleyKang13/cybersecurity/internal/auth/domain"
	authrepo "github.com/WesleyKang13/cybersecurity/internal/auth/repository"
	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"
	scandto "github.com/WesleyKang13/cybersecurity/internal/scan/dto"
	"github.com/WesleyKang13/cybersecurity/internal/scan/repository"
)

const feedLimit = 20

// dashboardUsecase implements DashboardUsecase interface
type dashboardUsecase struct {
	emailRepo repository.ScannedEmailRepository
	smsRepo   repository.ScannedSmsRepository
	credRepo  repository.CredentialRepository
	userRepo  authrepo.UserRepository
}

// NewDashboardUsecase creates a new instance of dashboardUsecase
func NewDashboardUsecase(
	emailRepo repository.ScannedEmailRepository,
	smsRepo repository.ScannedSmsRepository,
	credRepo repository.CredentialRepository,
	userRepo authrepo.UserRepository,
) DashboardUsecase {
	return &dashboardUsecase{
		emailRepo: emailRepo,
		smsRepo:   smsRepo,
		credRepo:  credRepo,
		userRepo:  userRepo,
	}
}

// GetDashboard builds the merged feed of recent verdicts across both
// message sources, newest first, optionally filtered.
func (u *dashboardUsecase) GetDashboard(userID, filter string) (*scandto.DashboardResponse, error) {
	cred, err := u.credRepo.FindByUserAndProvider(userID, scandomain.ProviderGoogle)
	if err != nil {
		return nil, err
	}
	isConnected := cred.Connected()

	var stats scandto.DashboardStats

	feed := make([]*scandto.FeedItem, 0, 2*feedLimit)

	if isConnected {
		stats.EmailsScanned, err = u.emailRepo.CountByUser(userID)
		if err != nil {
			return nil, err
		}
		emailThreats, err := u.emailRepo.CountThreatsByUser(userID)
		if err != nil {
			return nil, err
		}
		stats.Threats += emailThreats

		emails, err := u.emailRepo.FindLatestByUser(userID, feedLimit)
		if err != nil {
			return nil, err
		}
		for _, e := range emails {
			feed = append(feed, &scandto.FeedItem{
				ID:        "email_" + e.ID,
				Source:    "email",
				Subject:   e.Subject,
				Sender:    e.Sender,
				Snippet:   e.Snippet,
				IsThreat:  e.IsThreat,
				Severity:  e.Severity,
				RiskScore: e.RiskScore,
				Reason:    e.Reason,
				CreatedAt: e.CreatedAt,
			})
		}
	}

	stats.SmsScanned, err = u.smsRepo.CountByUser(userID)
	if err != nil {
		return nil, err
	}
	smsThreats, err := u.smsRepo.CountThreatsByUser(userID)
	if err != nil {
		return nil, err
	}
	stats.Threats += smsThreats

	smsList, err := u.smsRepo.FindLatestByUser(userID, feedLimit)
	if err != nil {
		return nil, err
	}
	for _, s := range smsList {
		feed = append(feed, &scandto.FeedItem{
			ID:        "sms_" + s.ID,
			Source:    "sms",
			Subject:   truncate(s.Content, 40),
			Sender:    s.Sender,
			IsThreat:  s.IsThreat,
			Severity:  s.Severity,
			RiskScore: s.RiskScore,
			Reason:    s.Explanation,
			CreatedAt: s.CreatedAt,
		})
	}

	switch filter {
	case "threats":
		feed = filterFeed(feed, func(item *scandto.FeedItem) bool { return item.IsThreat })
	case "email":
		feed = filterFeed(feed, func(item *scandto.FeedItem) bool { return item.Source == "email" })
	case "sms":
		feed = filterFeed(feed, func(item *scandto.FeedItem) bool { return item.Source == "sms" })
	default:
		filter = "all"
	}

	sort.Slice(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})
	if len(feed) > feedLimit {
		feed = feed[:feedLimit]
	}

	return &scandto.DashboardResponse{
		Stats:        stats,
		IsConnected:  isConnected,
		RecentAlerts: feed,
		Filter:       filter,
	}, nil
}

// GetOrgReport aggregates date-range counts across the organization's
// members. Verified-safe counts include archived (soft-deleted) rows.
func (u *dashboardUsecase) GetOrgReport(organizationID string, start, end time.Time) (*scandto.OrgReport, error) {
	members, err := u.userRepo.FindByOrganization(organizationID)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}

	totalEmails, err := u.emailRepo.CountInRange(memberIDs, start, end, false)
	if err != nil {
		return nil, err
	}
	emailThreats, err := u.emailRepo.CountInRange(memberIDs, start, end, true)
	if err != nil {
		return nil, err
	}
	verifiedSafe, err := u.emailRepo.CountVerifiedInRange(memberIDs, start, end)
	if err != nil {
		return nil, err
	}

	totalSms, err := u.smsRepo.CountInRange(memberIDs, start, end, false)
	if err != nil {
		return nil, err
	}
	smsThreats, err := u.smsRepo.CountInRange(memberIDs, start, end, true)
	if err != nil {
		return nil, err
	}

	breakdown := make([]*scandto.MemberStats, 0, len(members))
	for _, m := range members {
		emailCount, err := u.emailRepo.CountInRange([]string{m.ID}, start, end, false)
		if err != nil {
			return nil, err
		}
		if emailCount == 0 {
			// Only members with activity show up in the breakdown.
			continue
		}
		threatCount, err := u.emailRepo.CountInRange([]string{m.ID}, start, end, true)
		if err != nil {
			return nil, err
		}
		verifiedCount, err := u.emailRepo.CountVerifiedInRange([]string{m.ID}, start, end)
		if err != nil {
			return nil, err
		}
		breakdown = append(breakdown, &scandto.MemberStats{
			Name:          m.Name,
			EmailCount:    emailCount,
			ThreatCount:   threatCount,
			VerifiedCount: verifiedCount,
		})
	}

	return &scandto.OrgReport{
		DateRange: start.Format("Jan 02") + " - " + end.Format("Jan 02, 2006"),
		EmailStats: scandto.ChannelStats{
			Total:        totalEmails,
			Threats:      emailThreats,
			VerifiedSafe: verifiedSafe,
		},
		SmsStats: scandto.ChannelStats{
			Total:   totalSms,
			Threats: smsThreats,
		},
		UserBreakdown:   breakdown,
		ProtectionScore: protectionScore(totalEmails+totalSms, emailThreats+smsThreats),
	}, nil
}

func (u *dashboardUsecase) GetOrgThreats(organizationID string) ([]*scandomain.ScannedEmail, error) {
	members, err := u.userRepo.FindByOrganization(organizationID)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.ID)
	}
	if len(memberIDs) == 0 {
		return []*scandomain.ScannedEmail{}, nil
	}

	return u.emailRepo.FindThreatsByUsers(memberIDs)
}

func (u *dashboardUsecase) ListOrgMembers(organizationID string) ([]*authdomain.User, error) {
	return u.userRepo.FindByOrganization(organizationID)
}

func (u *dashboardUsecase) VerifySafe(userID, recordID string) error {
	return u.emailRepo.MarkVerifiedSafe(userID, recordID)
}

// protectionScore normalizes the threat-to-total ratio to 0-100, one
// decimal place. An empty period counts as fully protected.
func protectionScore(totalItems, totalThreats int64) float64 {
	if totalItems == 0 {
		return 100
	}
	score := float64(totalItems-totalThreats) / float64(totalItems) * 100
	return math.Round(score*10) / 10
}

func filterFeed(feed []*scandto.FeedItem, keep func(*scandto.FeedItem) bool) []*scandto.FeedItem {
	out := feed[:0]
	for _, item := range feed {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// truncate shortens s to max runes, never splitting a multi-byte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
