package ai

import "context"

// Severity levels a verdict can carry. "verified" is set by a human
// reviewer when archiving an item as safe, never by the classifier.
const (
	SeverityClean    = "clean"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
	SeverityVerified = "verified"
)

// ThreatRiskThreshold is the policy cutoff: is_threat should only be
// true when risk_score is above this value.
const ThreatRiskThreshold = 30

// Verdict is the structured classification result for one message.
type Verdict struct {
	IsThreat  bool   `json:"is_threat"`
	Severity  string `json:"severity"`
	RiskScore int    `json:"risk_score"`
	Reason    string `json:"reason"`
	Type      string `json:"type,omitempty"`
}

// ThreatClassifier is the interface for AI threat classification.
// Implement this interface to add new AI providers (Gemini, Ollama, OpenAI, etc.)
type ThreatClassifier interface {
	// ClassifyEmail analyzes email metadata for phishing. It always
	// returns a usable verdict: upstream failures degrade to a safe
	// fallback instead of an error.
	ClassifyEmail(ctx context.Context, subject, sender, snippet string) *Verdict

	// ClassifySms analyzes a user-submitted SMS for smishing. Same
	// degradation contract as ClassifyEmail.
	ClassifySms(ctx context.Context, sender, message string) *Verdict
}
