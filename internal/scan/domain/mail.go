package domain

import (
	"context"
	"errors"
)

// ErrNoRefreshToken means the stored credential has no refresh token,
// so an expired access token cannot be renewed. Terminal: the user must
// reconnect their account.
var ErrNoRefreshToken = errors.New("no refresh token stored")

// ErrReconnectRequired means the provider rejected the credential (or
// its refresh) and the user has to authorize the mailbox again. The
// scheduler must not retry past this.
var ErrReconnectRequired = errors.New("mailbox credential rejected, reconnection required")

// InboxMessage is the metadata slice of one fetched mailbox message.
type InboxMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    string `json:"from"`
	Snippet string `json:"snippet"`
}

// MailProvider abstracts the mailbox API. Implementations own the
// credential refresh cycle: proactive renewal before use and exactly
// one refresh-and-retry on an unauthorized response mid-fetch. Every
// refreshed token is reported through onTokenRefresh before the fetch
// continues.
type MailProvider interface {
	FetchLatestEmails(ctx context.Context, cred *OAuthCredential, limit int, onTokenRefresh TokenUpdateFunc) ([]*InboxMessage, error)
}
