// Package authapi is a stateless HTTP client for the Rezi authentication API.
// Every operation makes exactly one outbound request and returns either a
// typed response or a normalized *Error.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Endpoint paths, relative to the configured base URL.
const (
	pathSignUp            = "/auth/signup"
	pathSignIn            = "/auth/login"
	pathRefresh           = "/auth/refresh"
	pathLogout            = "/auth/logout"
	pathSendVerification  = "/auth/send-verification-email"
	pathVerifyEmail       = "/auth/verify-email"
	pathForgotPassword    = "/auth/forgot-password"
	pathResetPassword     = "/auth/reset-password"
	defaultRequestTimeout = 30 * time.Second
)

// Client issues auth requests against a remote base URL. It holds no token
// state; callers supply credentials per call.
type Client struct {
	baseURL string
	hc      *http.Client
	log     *zap.Logger
}

// New constructs a Client. A nil httpClient falls back to a client with a
// 30s timeout; a nil logger disables logging.
func New(baseURL string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: httpClient, log: log}
}

// SignUp registers a new account and returns tokens plus the full profile.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.postJSON(ctx, pathSignUp, req, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignIn authenticates with email/password. The server expects OAuth2-style
// form fields (username, password), not JSON.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathSignIn,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, transportError(pathSignIn, err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out AuthResponse
	if err := c.send(httpReq, pathSignIn, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RefreshResponse, error) {
	body := map[string]string{"refresh_token": refreshToken}
	var out RefreshResponse
	if err := c.postJSON(ctx, pathRefresh, body, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout invalidates the session server-side. Both tokens are supplied by the
// caller; the access token authorizes the call, the refresh token is revoked.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	return c.postJSON(ctx, pathLogout, body, accessToken, nil)
}

// SendVerificationEmail asks the server to (re)send the verification mail for
// the authenticated account.
func (c *Client) SendVerificationEmail(ctx context.Context, accessToken string) error {
	return c.postJSON(ctx, pathSendVerification, nil, accessToken, nil)
}

// VerifyEmail redeems an emailed verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.postJSON(ctx, pathVerifyEmail, map[string]string{"token": token}, "", nil)
}

// ForgotPassword requests a password-reset mail.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.postJSON(ctx, pathForgotPassword, map[string]string{"email": email}, "", nil)
}

// ResetPassword redeems a reset token with a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "new_password": newPassword}
	return c.postJSON(ctx, pathResetPassword, body, "", nil)
}

// postJSON issues a JSON POST and decodes the response into out (out may be
// nil when the body is irrelevant). bearer, when set, is sent as an
// Authorization header.
func (c *Client) postJSON(ctx context.Context, path string, body any, bearer string, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return transportError(path, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, rd)
	if err != nil {
		return transportError(path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.send(req, path, out)
}

// send executes the request and funnels every failure into *Error.
func (c *Client) send(req *http.Request, path string, out any) error {
	if id, err := uuid.NewV4(); err == nil {
		req.Header.Set("X-Request-ID", id.String())
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Debug("auth request failed", zap.String("endpoint", path), zap.Error(err))
		return transportError(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := responseError(path, resp.StatusCode, raw)
		c.log.Debug("auth request rejected",
			zap.String("endpoint", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Detail: "malformed response body", Status: resp.StatusCode, Endpoint: path}
		}
	}
	return nil
}
