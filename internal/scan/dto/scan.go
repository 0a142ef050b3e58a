package dto

import "time"

type SmsAnalyzeRequest struct {
	Sender  string `json:"sender" binding:"required,max=100"`
	Message string `json:"message" binding:"required,max=1000"`
}

// FeedItem is one entry of the merged email+SMS dashboard feed.
type FeedItem struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // "email" or "sms"
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Snippet   string    `json:"snippet,omitempty"`
	IsThreat  bool      `json:"is_threat"`
	Severity  string    `json:"severity"`
	RiskScore int       `json:"risk_score"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type DashboardStats struct {
	EmailsScanned int64 `json:"emails_scanned"`
	SmsScanned    int64 `json:"sms_scanned"`
	Threats       int64 `json:"threats"`
}

type DashboardResponse struct {
	Stats        DashboardStats `json:"stats"`
	IsConnected  bool           `json:"is_connected"`
	RecentAlerts []*FeedItem    `json:"recent_alerts"`
	Filter       string         `json:"filter"`
}

type ChannelStats struct {
	Total        int64 `json:"total"`
	Threats      int64 `json:"threats"`
	VerifiedSafe int64 `json:"verified_safe,omitempty"`
}

type MemberStats struct {
	Name          string `json:"name"`
	EmailCount    int64  `json:"email_count"`
	ThreatCount   int64  `json:"threat_count"`
	VerifiedCount int64  `json:"verified_count"`
}

// OrgReport is the organization-scoped date-range report for admins.
type OrgReport struct {
	DateRange       string         `json:"date_range"`
	EmailStats      ChannelStats   `json:"email_stats"`
	SmsStats        ChannelStats   `json:"sms_stats"`
	UserBreakdown   []*MemberStats `json:"user_breakdown"`
	ProtectionScore float64        `json:"protection_score"`
}
