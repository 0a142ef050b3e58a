package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/WesleyKang13/cybersecurity/pkg/ai"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// ErrClassifierUnavailable is returned by generateContent after all
// retry attempts have been exhausted.
var ErrClassifierUnavailable = errors.New("gemini: classifier unavailable")

// Service calls the Gemini generateContent endpoint to classify
// messages as phishing/smishing threats. A shared rate limiter gates
// every outbound request so concurrent per-user scans respect the API
// quota together, not just individually.
type Service struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewService creates a Gemini classifier. The API key is required: a
// missing key is a configuration fault, not something to retry around.
func NewService(apiKey, model string, limiter *rate.Limiter) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required for the Gemini classifier")
	}
	if model == "" {
		model = "gemini-flash-latest"
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Service{
		apiKey:         apiKey,
		model:          model,
		baseURL:        defaultBaseURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		limiter:        limiter,
		retryAttempts:  3,
		retryBaseDelay: 1 * time.Second,
	}, nil
}

// ClassifyEmail implements ai.ThreatClassifier
func (s *Service) ClassifyEmail(ctx context.Context, subject, sender, snippet string) *ai.Verdict {
	prompt := fmt.Sprintf(`You are a cynical Tier-3 SOC Analyst. Analyze this email for phishing/impersonation.

METADATA:
- Subject: '%s'
- Sender: '%s'
- Snippet: '%s'

CRITICAL SCORING RULES (0-100):
1. IMPERSONATION (100 RISK): Subject mentions Big Brand (Netflix, Google, Bank) BUT Sender is Public Domain (@gmail) or Mismatch.
2. URGENCY (80-90 RISK): 'Verify', 'Suspended', 'Payment Declined'.
3. CLEAN (0): Known social/newsletter domains or personal chats.

IMPORTANT: Only set is_threat to true if risk_score is more than 30.

OUTPUT FORMAT (JSON ONLY):
{
  "is_threat": boolean,
  "severity": "clean" | "low" | "medium" | "high",
  "risk_score": integer (0-100),
  "reason": "Mandatory 1 sentence explanation."
}`, sanitize(subject), sanitize(sender), sanitize(snippet))

	return s.classify(ctx, prompt)
}

// ClassifySms implements ai.ThreatClassifier
func (s *Service) ClassifySms(ctx context.Context, sender, message string) *ai.Verdict {
	prompt := fmt.Sprintf(`Role: Smishing Detection Expert.
Analyze the following SMS for fraud.

Sender: '%s'
Message: '%s'

SCORING CRITERIA:
- Identity Mismatch: Claims to be a bank/utility but comes from a standard 10-digit mobile number or suspicious shortcode.
- Link Analysis: Flag any URL shorteners or non-official domains.
- Tone: Look for 'Urgent Action Required', 'Package Pending', or 'Tax Refund'.
- If the message is standard for the organization it claims to be from, it is safe.

is_threat = true ONLY if risk_score > 30.

OUTPUT FORMAT (Strict JSON):
{
  "is_threat": boolean,
  "risk_score": 0-100,
  "severity": "low" | "medium" | "high" | "critical",
  "type": "Phishing" | "Impersonation" | "Spam" | "Clean",
  "reason": "Clear, concise sentence."
}`, sanitize(sender), sanitize(message))

	return s.classify(ctx, prompt)
}

// classify runs the prompt through generateContent and parses the
// verdict, degrading to a safe default on any failure.
func (s *Service) classify(ctx context.Context, prompt string) *ai.Verdict {
	text, err := s.generateContent(ctx, prompt)
	if err != nil {
		log.Printf("[Gemini] classification failed: %v", err)
		return ai.FallbackVerdict("AI unavailable")
	}

	verdict, err := parseVerdict(text)
	if err != nil {
		log.Printf("[Gemini] unparsable model response: %v", err)
		return ai.FallbackVerdict("AI response could not be parsed")
	}

	return ai.Normalize(verdict)
}

// generateContent posts the prompt to the Gemini API with bounded
// retries. Rate-limit (429) and server (5xx) responses and network
// faults are retried with a doubling delay; any other non-200 status is
// terminal.
func (s *Service) generateContent(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"safetySettings": []map[string]string{
			{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
			{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	delay := s.retryBaseDelay

	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		// Cooperative throttle shared across all scan workers.
		if err := s.limiter.Wait(ctx); err != nil {
			return "", err
		}

		text, retryable, err := s.doRequest(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
		log.Printf("[Gemini] attempt %d/%d failed: %v", attempt, s.retryAttempts, err)
	}

	return "", fmt.Errorf("%w: %v", ErrClassifierUnavailable, lastErr)
}

func (s *Service) doRequest(ctx context.Context, url string, body []byte) (text string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// Network fault: worth another attempt.
		return "", true, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("gemini API error (%d)", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", false, fmt.Errorf("failed to parse response envelope: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", false, errors.New("no candidates returned")
	}

	return result.Candidates[0].Content.Parts[0].Text, false, nil
}

// parseVerdict extracts the verdict JSON from the generated text. The
// model frequently wraps its output in markdown code fences or prefixes
// it with a language tag, so known wrapper tokens are stripped first.
func parseVerdict(text string) (*ai.Verdict, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "json"))

	// Some responses still carry prose around the object.
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start != -1 && end > start {
		cleaned = cleaned[start : end+1]
	}

	// The rubric names the field "reason" but older prompts said
	// "explanation"; accept either.
	var raw struct {
		IsThreat    bool   `json:"is_threat"`
		Severity    string `json:"severity"`
		RiskScore   int    `json:"risk_score"`
		Reason      string `json:"reason"`
		Explanation string `json:"explanation"`
		Type        string `json:"type"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, err
	}

	reason := raw.Reason
	if reason == "" {
		reason = raw.Explanation
	}

	return &ai.Verdict{
		IsThreat:  raw.IsThreat,
		Severity:  raw.Severity,
		RiskScore: raw.RiskScore,
		Reason:    reason,
		Type:      raw.Type,
	}, nil
}

// sanitize escapes quotes and backslashes so message content cannot
// break out of the quoted prompt fields.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
