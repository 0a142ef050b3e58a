package domain

import (
	"time"

	"golang.org/x/oauth2"
)

// ProviderGoogle is the only mail provider currently wired.
const ProviderGoogle = "google"

// OAuthCredential stores a user's provider tokens. One row per
// user+provider pair; disconnecting clears the secrets but keeps the row.
type OAuthCredential struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"uniqueIndex:idx_credentials_user_provider" json:"user_id"`
	Provider     string    `gorm:"uniqueIndex:idx_credentials_user_provider" json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (OAuthCredential) TableName() string {
	return "oauth_credentials"
}

// Connected reports whether the credential holds a usable access token.
func (c *OAuthCredential) Connected() bool {
	return c != nil && c.AccessToken != ""
}

// Expired reports whether the locally tracked expiry has passed.
func (c *OAuthCredential) Expired(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

// ApplyToken merges a provider token response into the credential.
// Google usually omits the refresh token when refreshing, so the stored
// one is only overwritten when the response actually carries a new one.
// Dropping it would force the user to reconnect within the hour.
func (c *OAuthCredential) ApplyToken(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	if tok.AccessToken != "" {
		c.AccessToken = tok.AccessToken
	}
	if tok.RefreshToken != "" {
		c.RefreshToken = tok.RefreshToken
	}
	switch {
	case !tok.Expiry.IsZero():
		c.ExpiresAt = tok.Expiry
	case tok.AccessToken != "":
		// Provider declared no ttl; assume the standard hour.
		c.ExpiresAt = time.Now().Add(1 * time.Hour)
	}
}

// Clear blanks the secrets on user-initiated disconnect.
func (c *OAuthCredential) Clear() {
	c.AccessToken = ""
	c.RefreshToken = ""
	c.ExpiresAt = time.Time{}
}

// TokenUpdateFunc is a callback that persists refreshed provider tokens.
type TokenUpdateFunc func(tok *oauth2.Token) error
