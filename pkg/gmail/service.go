package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	scandomain "github.com/WesleyKang13/cybersecurity/internal/scan/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = scandomain.TokenUpdateFunc

// Service wraps the Gmail REST API for inbox scanning. It implements
// scandomain.MailProvider.
type Service struct {
	clientID     string
	clientSecret string

	endpoint   oauth2.Endpoint
	apiOptions []option.ClientOption
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		endpoint:     google.Endpoint,
	}
}

// OAuthConfig returns the oauth2 config used for both the consent flow
// and refresh-token exchange.
func (s *Service) OAuthConfig(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     s.endpoint,
	}
}

// FetchLatestEmails lists the most recent inbox messages and extracts
// subject/sender/snippet per message.
//
// Credential handling ("auto-heal"): if the locally tracked expiry has
// passed, the token is refreshed before the first call. If Gmail still
// answers 401 mid-fetch, the token is refreshed once more and the fetch
// retried exactly once - never an unbounded loop.
func (s *Service) FetchLatestEmails(ctx context.Context, cred *scandomain.OAuthCredential, limit int, onTokenRefresh scandomain.TokenUpdateFunc) ([]*scandomain.InboxMessage, error) {
	if !cred.Connected() && cred.RefreshToken == "" {
		return nil, scandomain.ErrReconnectRequired
	}

	if cred.Expired(time.Now()) {
		if err := s.refreshAccessToken(ctx, cred, onTokenRefresh); err != nil {
			return nil, err
		}
	}

	messages, err := s.listMessages(ctx, cred, limit)
	if err != nil {
		if !isUnauthorized(err) {
			return nil, err
		}
		// Token rejected despite looking fresh locally. Refresh with
		// the stored refresh token and retry the fetch one last time.
		if err := s.refreshAccessToken(ctx, cred, onTokenRefresh); err != nil {
			return nil, err
		}
		return s.listMessages(ctx, cred, limit)
	}

	return messages, nil
}

func (s *Service) listMessages(ctx context.Context, cred *scandomain.OAuthCredential, limit int) ([]*scandomain.InboxMessage, error) {
	token := &oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
	}

	opts := append([]option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(token))}, s.apiOptions...)
	srv, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	user := "me"
	listResp, err := srv.Users.Messages.List(user).
		LabelIds("INBOX").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	messages := make([]*scandomain.InboxMessage, 0, len(listResp.Messages))
	for _, msg := range listResp.Messages {
		details, err := srv.Users.Messages.Get(user, msg.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From").
			Context(ctx).
			Do()
		if err != nil {
			return nil, err
		}

		subject := getHeader(details.Payload, "Subject")
		if subject == "" {
			subject = "No Subject"
		}
		from := getHeader(details.Payload, "From")
		if from == "" {
			from = "Unknown"
		}

		messages = append(messages, &scandomain.InboxMessage{
			ID:      msg.Id,
			Subject: subject,
			From:    from,
			Snippet: details.Snippet,
		})
	}

	return messages, nil
}

// refreshAccessToken exchanges the stored refresh token for a new
// access token and reports the merged result through the callback so it
// is persisted before the fetch continues.
func (s *Service) refreshAccessToken(ctx context.Context, cred *scandomain.OAuthCredential, onTokenRefresh scandomain.TokenUpdateFunc) error {
	if cred.RefreshToken == "" {
		return scandomain.ErrNoRefreshToken
	}

	conf := s.OAuthConfig("")
	src := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})

	tok, err := src.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", scandomain.ErrReconnectRequired, err)
	}

	cred.ApplyToken(tok)

	if onTokenRefresh != nil {
		if err := onTokenRefresh(tok); err != nil {
			// The in-memory credential is still valid for this fetch;
			// the next cycle will refresh and save again.
			log.Printf("[Gmail] failed to persist refreshed token for user %s: %v", cred.UserID, err)
		}
	}

	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized
	}
	return false
}

func getHeader(payload *gmail.MessagePart, name string) string {
	if payload == nil {
		return ""
	}
	for _, header := range payload.Headers {
		if header.Name == name {
			return header.Value
		}
	}
	return ""
}
