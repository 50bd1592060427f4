// Package model defines domain entities shared by the session controller and stores.
package model

// User is the cached copy of the server-side identity. It is always replaced
// wholesale on a successful auth operation, never field-patched, to avoid
// drift from the server's source of truth.
type User struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Locale           string `json:"locale"`
	IsActive         bool   `json:"is_active"`
	EmailVerified    bool   `json:"email_verified"`
	SubscriptionTier string `json:"subscription_tier"`
}

// TokenPair collects issued access/refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
