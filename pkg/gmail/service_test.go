package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
)

// fakeGmail serves the token endpoint and the two Gmail calls the
// fetcher makes, tracking call counts per path.
type fakeGmail struct {
	tokenCalls atomic.Int32
	listCalls  atomic.Int32

	tokenStatus int
	// list returns 401 until this many calls have been rejected.
	rejectLists int32

	validToken string
}

func (f *fakeGmail) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			f.tokenCalls.Add(1)
			if f.tokenStatus != 0 {
				w.WriteHeader(f.tokenStatus)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-access",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})

		case strings.HasSuffix(r.URL.Path, "/messages"):
			calls := f.listCalls.Add(1)
			if calls <= f.rejectLists || r.Header.Get("Authorization") != "Bearer "+f.validToken {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"messages": []map[string]string{{"id": "m1"}},
			})

		case strings.Contains(r.URL.Path, "/messages/"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"id":      "m1",
				"snippet": "Verify your account now",
				"payload": map[string]any{
					"headers": []map[string]string{
						{"name": "Subject", "value": "Payment declined"},
						{"name": "From", "value": "billing@gmail.com"},
					},
				},
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestService(t *testing.T, fake *fakeGmail) *Service {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	svc := NewService("client-id", "client-secret")
	svc.endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/auth",
		TokenURL: srv.URL + "/token",
	}
	svc.apiOptions = []option.ClientOption{option.WithEndpoint(srv.URL)}

	return svc
}

func freshCred() *scandomain.OAuthCredential {
	return &scandomain.OAuthCredential{
		UserID:       "user-1",
		Provider:     scandomain.ProviderGoogle,
		AccessToken:  "valid-access",
		RefreshToken: "stored-refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
}

func TestFetchLatestEmailsReturnsMetadata(t *testing.T) {
	fake := &fakeGmail{validToken: "valid-access"}
	svc := newTestService(t, fake)

	messages, err := svc.FetchLatestEmails(context.Background(), freshCred(), 5, nil)

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "Payment declined", messages[0].Subject)
	assert.Equal(t, "billing@gmail.com", messages[0].From)
	assert.Equal(t, "Verify your account now", messages[0].Snippet)
	assert.Zero(t, fake.tokenCalls.Load())
}

func TestFetchRetriesOnceAfterUnauthorized(t *testing.T) {
	// The token looks fresh locally but Gmail rejects it: one refresh,
	// one retry, then success with the refreshed token.
	fake := &fakeGmail{validToken: "fresh-access", rejectLists: 1}
	svc := newTestService(t, fake)

	cred := freshCred()
	var persisted *oauth2.Token
	messages, err := svc.FetchLatestEmails(context.Background(), cred, 5, func(tok *oauth2.Token) error {
		persisted = tok
		return nil
	})

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	assert.Equal(t, int32(2), fake.listCalls.Load())

	// The refreshed token was merged and reported for persistence, and
	// the stored refresh token survived a response that omitted one.
	require.NotNil(t, persisted)
	assert.Equal(t, "fresh-access", persisted.AccessToken)
	assert.Equal(t, "fresh-access", cred.AccessToken)
	assert.Equal(t, "stored-refresh", cred.RefreshToken)
}

func TestFetchRefreshesProactivelyWhenExpired(t *testing.T) {
	fake := &fakeGmail{validToken: "fresh-access"}
	svc := newTestService(t, fake)

	cred := freshCred()
	cred.ExpiresAt = time.Now().Add(-time.Minute)

	messages, err := svc.FetchLatestEmails(context.Background(), cred, 5, nil)

	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int32(1), fake.tokenCalls.Load())
	assert.Equal(t, int32(1), fake.listCalls.Load())
	assert.Equal(t, "fresh-access", cred.AccessToken)
}

func TestFetchSurfacesReconnectRequiredWhenRefreshRejected(t *testing.T) {
	fake := &fakeGmail{validToken: "fresh-access", tokenStatus: http.StatusBadRequest}
	svc := newTestService(t, fake)

	cred := freshCred()
	cred.ExpiresAt = time.Now().Add(-time.Minute)

	_, err := svc.FetchLatestEmails(context.Background(), cred, 5, nil)

	assert.ErrorIs(t, err, scandomain.ErrReconnectRequired)
	assert.Zero(t, fake.listCalls.Load())
}

func TestFetchSurfacesNoRefreshToken(t *testing.T) {
	fake := &fakeGmail{validToken: "fresh-access"}
	svc := newTestService(t, fake)

	cred := freshCred()
	cred.ExpiresAt = time.Now().Add(-time.Minute)
	cred.RefreshToken = ""

	_, err := svc.FetchLatestEmails(context.Background(), cred, 5, nil)

	assert.ErrorIs(t, err, scandomain.ErrNoRefreshToken)
	assert.Zero(t, fake.tokenCalls.Load())
}

func TestFetchRejectsDisconnectedCredential(t *testing.T) {
	fake := &fakeGmail{validToken: "fresh-access"}
	svc := newTestService(t, fake)

	cred := &scandomain.OAuthCredential{UserID: "user-1", Provider: scandomain.ProviderGoogle}

	_, err := svc.FetchLatestEmails(context.Background(), cred, 5, nil)

	assert.ErrorIs(t, err, scandomain.ErrReconnectRequired)
}
