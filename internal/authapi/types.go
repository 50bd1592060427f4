package authapi

import "github.com/johnpapajani/rezi-web-sub002/internal/model"

// SignUpRequest is the payload for POST /auth/signup.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
	Locale   string `json:"locale"`
	IsActive bool   `json:"is_active"`
}

// AuthResponse is the combined payload returned by signup and login: both new
// tokens and the full profile in one round trip, so callers never need a
// second request to learn who signed in.
type AuthResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	UserID           string `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	Locale           string `json:"locale"`
	IsActive         bool   `json:"is_active"`
	EmailVerified    bool   `json:"email_verified"`
	SubscriptionTier string `json:"subscription_tier"`
}

// User builds the domain profile embedded in the response.
func (r *AuthResponse) User() *model.User {
	return &model.User{
		ID:               r.UserID,
		Name:             r.Name,
		Email:            r.Email,
		Phone:            r.Phone,
		Locale:           r.Locale,
		IsActive:         r.IsActive,
		EmailVerified:    r.EmailVerified,
		SubscriptionTier: r.SubscriptionTier,
	}
}

// Tokens extracts the issued token pair.
func (r *AuthResponse) Tokens() model.TokenPair {
	return model.TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

// RefreshResponse is the payload returned by POST /auth/refresh. Only tokens
// rotate on refresh; the profile is not re-sent.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Tokens extracts the rotated token pair.
func (r *RefreshResponse) Tokens() model.TokenPair {
	return model.TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}
