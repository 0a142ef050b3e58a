package ai

import "log"

// FallbackVerdict returns the safe default used when classification is
// unavailable or the model response cannot be parsed. It must never
// block the pipeline: records are persisted with this verdict rather
// than dropped.
func FallbackVerdict(reason string) *Verdict {
	return &Verdict{
		IsThreat:  false,
		Severity:  SeverityClean,
		RiskScore: 0,
		Reason:    reason,
	}
}

// Normalize fills missing fields with safe defaults and checks the
// risk-score policy. The policy says is_threat should only be true when
// risk_score > 30; a response violating it is logged but accepted as-is.
func Normalize(v *Verdict) *Verdict {
	if v.Severity == "" {
		v.Severity = SeverityClean
	}
	if v.Reason == "" {
		v.Reason = "AI verification complete."
	}
	if v.RiskScore < 0 {
		v.RiskScore = 0
	}
	if v.RiskScore > 100 {
		v.RiskScore = 100
	}

	if v.IsThreat && v.RiskScore <= ThreatRiskThreshold {
		log.Printf("[AI] inconsistent verdict: is_threat=true with risk_score=%d", v.RiskScore)
	}
	if !v.IsThreat && v.RiskScore > ThreatRiskThreshold {
		log.Printf("[AI] inconsistent verdict: is_threat=false with risk_score=%d", v.RiskScore)
	}

	return v
}
