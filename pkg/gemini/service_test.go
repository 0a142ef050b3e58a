package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewService("test-key", "test-model", nil)
	require.NoError(t, err)
	svc.baseURL = srv.URL
	svc.retryBaseDelay = time.Millisecond

	return svc
}

func candidateResponse(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{
				"parts": []map[string]any{{"text": text}},
			}},
		},
	})
	return body
}

func TestNewServiceRequiresAPIKey(t *testing.T) {
	_, err := NewService("", "test-model", nil)
	require.Error(t, err)
}

func TestClassifyEmailParsesFencedResponse(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse("```json\n{\"is_threat\": true, \"severity\": \"high\", \"risk_score\": 85, \"reason\": \"Brand impersonation from public domain.\"}\n```"))
	})

	verdict := svc.ClassifyEmail(context.Background(), "Netflix: payment declined", "billing@gmail.com", "Update your payment details now")

	assert.True(t, verdict.IsThreat)
	assert.Equal(t, "high", verdict.Severity)
	assert.Equal(t, 85, verdict.RiskScore)
	assert.Equal(t, "Brand impersonation from public domain.", verdict.Reason)
}

func TestClassifyRetriesOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(candidateResponse(`{"is_threat": false, "severity": "clean", "risk_score": 0, "reason": "Routine newsletter."}`))
	})

	verdict := svc.ClassifyEmail(context.Background(), "Weekly digest", "news@example.com", "This week in Go")

	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, verdict.IsThreat)
	assert.Equal(t, "clean", verdict.Severity)
}

func TestClassifyFallsBackAfterExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	verdict := svc.ClassifySms(context.Background(), "+15551234567", "Your package is pending, click here")

	assert.Equal(t, int32(3), calls.Load())
	assert.False(t, verdict.IsThreat)
	assert.Equal(t, "clean", verdict.Severity)
	assert.Equal(t, 0, verdict.RiskScore)
	assert.Equal(t, "AI unavailable", verdict.Reason)
}

func TestClassifyDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	verdict := svc.ClassifySms(context.Background(), "BANK", "Verify your account")

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "AI unavailable", verdict.Reason)
}

func TestClassifyFallsBackOnUnparsableResponse(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(candidateResponse("I'm sorry, I cannot classify this message."))
	})

	verdict := svc.ClassifyEmail(context.Background(), "Hello", "friend@example.com", "Lunch tomorrow?")

	assert.False(t, verdict.IsThreat)
	assert.Equal(t, "AI response could not be parsed", verdict.Reason)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantErr   bool
		isThreat  bool
		riskScore int
		reason    string
	}{
		{
			name:      "plain json",
			text:      `{"is_threat": true, "severity": "high", "risk_score": 90, "reason": "Urgency bait."}`,
			isThreat:  true,
			riskScore: 90,
			reason:    "Urgency bait.",
		},
		{
			name:      "fenced with language tag",
			text:      "```json\n{\"is_threat\": false, \"severity\": \"clean\", \"risk_score\": 0, \"reason\": \"Personal chat.\"}\n```",
			riskScore: 0,
			reason:    "Personal chat.",
		},
		{
			name:      "bare json prefix",
			text:      "json {\"is_threat\": false, \"risk_score\": 5, \"reason\": \"Known sender.\"}",
			riskScore: 5,
			reason:    "Known sender.",
		},
		{
			name:      "prose around object",
			text:      "Here is my analysis:\n{\"is_threat\": true, \"risk_score\": 75, \"reason\": \"Shortened link.\"}\nLet me know if you need more.",
			isThreat:  true,
			riskScore: 75,
			reason:    "Shortened link.",
		},
		{
			name:      "explanation field accepted as reason",
			text:      `{"is_threat": true, "risk_score": 80, "explanation": "Sender mismatch."}`,
			isThreat:  true,
			riskScore: 80,
			reason:    "Sender mismatch.",
		},
		{
			name:    "no json at all",
			text:    "cannot help with that",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, err := parseVerdict(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.isThreat, verdict.IsThreat)
			assert.Equal(t, tt.riskScore, verdict.RiskScore)
			assert.Equal(t, tt.reason, verdict.Reason)
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, `It\'s \"urgent\"`, sanitize(`It's "urgent"`))
	assert.Equal(t, `path\\to\\file`, sanitize(`path\to\file`))
}
