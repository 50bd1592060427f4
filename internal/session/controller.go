// Package session owns the client-side authentication session: the current
// user, token lifecycle, and the forced-expiry broadcast. The Controller is
// the single writer of session state; guards and UI only read.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/johnpapajani/rezi-web-sub002/internal/authapi"
	"github.com/johnpapajani/rezi-web-sub002/internal/errs"
	"github.com/johnpapajani/rezi-web-sub002/internal/model"
	"github.com/johnpapajani/rezi-web-sub002/internal/tokenstore"
)

// expiredDetail is the user-visible message set when the session is
// invalidated from outside (e.g. a 401 on an unrelated API call).
const expiredDetail = "session expired, please sign in again"

// API is the slice of the auth client the controller depends on.
type API interface {
	SignUp(ctx context.Context, req authapi.SignUpRequest) (*authapi.AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*authapi.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*authapi.RefreshResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	SendVerificationEmail(ctx context.Context, accessToken string) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Controller is the session state machine. All mutations go through it; the
// token store and the in-memory user/error fields have no other writer.
type Controller struct {
	store *tokenstore.Store
	api   API
	log   *zap.Logger

	mu       sync.RWMutex
	user     *model.User
	loadingN int
	lastErr  *authapi.Error
	// epoch increments on every clear (sign-out or forced expiry). In-flight
	// operations capture it at start and discard their result on mismatch, so
	// a forced clear always wins over a success that resolves later.
	epoch uint64

	refreshGroup singleflight.Group

	obsMu     sync.Mutex
	observers []func()
}

// New constructs a Controller in the uninitialized state.
func New(store *tokenstore.Store, api API, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{store: store, api: api, log: log}
}

// Initialize restores the session from storage. It runs the full protocol,
// including the refresh round trip when needed, before IsLoading drops:
//
//  1. Valid stored access token: adopt the cached profile, no network call.
//  2. Else valid stored refresh token: exactly one refresh attempt; on
//     success store the rotated pair and adopt the cached profile.
//  3. Else: clear storage and end unauthenticated.
//
// It is safe to re-invoke at any time; concurrent invocations share one
// refresh call.
func (c *Controller) Initialize(ctx context.Context) error {
	epoch := c.beginOp()
	defer c.endOp()

	if c.store.AccessTokenValid(ctx) {
		u, _ := c.store.User(ctx)
		c.adopt(epoch, u)
		return nil
	}

	if refresh, ok := c.store.RefreshToken(ctx); ok && c.store.RefreshTokenValid(ctx) {
		pair, err := c.refreshTokens(ctx, refresh)
		if err == nil {
			u, _ := c.store.User(ctx)
			c.mu.Lock()
			if c.epoch == epoch {
				if serr := c.store.SetTokens(ctx, pair); serr != nil {
					c.mu.Unlock()
					return serr
				}
				c.user = u
			}
			c.mu.Unlock()
			return nil
		}
		c.log.Debug("token refresh failed during initialization", zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	return c.store.Clear(ctx)
}

// refreshTokens performs the refresh call, collapsing concurrent attempts
// into a single network round trip.
func (c *Controller) refreshTokens(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		resp, err := c.api.Refresh(ctx, refreshToken)
		if err != nil {
			return nil, err
		}
		return resp.Tokens(), nil
	})
	if err != nil {
		return model.TokenPair{}, err
	}
	return v.(model.TokenPair), nil
}

// SignIn authenticates and, on success, atomically persists the new token
// pair plus profile and publishes the user. The failure is recorded as the
// session's last error and re-raised to the caller.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	epoch := c.beginOp()
	defer c.endOp()

	resp, err := c.api.SignIn(ctx, email, password)
	if err != nil {
		c.recordError(err)
		return nil, err
	}
	return c.adoptResponse(ctx, epoch, resp)
}

// SignUp registers a new account; on success the caller is signed in
// immediately, exactly as with SignIn.
func (c *Controller) SignUp(ctx context.Context, req authapi.SignUpRequest) (*model.User, error) {
	epoch := c.beginOp()
	defer c.endOp()

	resp, err := c.api.SignUp(ctx, req)
	if err != nil {
		c.recordError(err)
		return nil, err
	}
	return c.adoptResponse(ctx, epoch, resp)
}

// adoptResponse persists and publishes a successful auth response, unless a
// forced clear happened since the operation started.
func (c *Controller) adoptResponse(ctx context.Context, epoch uint64, resp *authapi.AuthResponse) (*model.User, error) {
	u := resp.User()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// Session was invalidated while the request was in flight; the clear wins.
		return nil, errs.ErrSessionExpired
	}
	if err := c.store.SetSession(ctx, resp.Tokens(), u); err != nil {
		return nil, err
	}
	c.user = u
	return u, nil
}

// SignOut tears the session down. The backend call is best effort: its
// failure is logged and swallowed, and the local session always ends
// unauthenticated with storage cleared.
func (c *Controller) SignOut(ctx context.Context) {
	c.beginOp()
	defer c.endOp()

	access, _ := c.store.AccessToken(ctx)
	refresh, _ := c.store.RefreshToken(ctx)
	if access != "" && refresh != "" {
		if err := c.api.Logout(ctx, access, refresh); err != nil {
			c.log.Warn("remote logout failed, clearing local session anyway", zap.Error(err))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.user = nil
	c.lastErr = nil
	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("token store clear failed", zap.Error(err))
	}
}

// Invalidate is the forced-expiry entry point: any caller observing an
// authorization failure on a non-auth API call reports it here. State is
// cleared exactly as in SignOut, a user-visible error is set, and registered
// observers are notified synchronously in registration order.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	c.epoch++
	c.user = nil
	c.lastErr = &authapi.Error{Detail: expiredDetail}
	if err := c.store.Clear(context.Background()); err != nil {
		c.log.Warn("token store clear failed", zap.Error(err))
	}
	c.mu.Unlock()

	c.obsMu.Lock()
	observers := make([]func(), len(c.observers))
	copy(observers, c.observers)
	c.obsMu.Unlock()
	for _, fn := range observers {
		fn()
	}
}

// OnForcedExpiry registers a handler invoked on every Invalidate call.
func (c *Controller) OnForcedExpiry(fn func()) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, fn)
}

// SendVerificationEmail re-sends the verification mail for the current
// account. Requires a currently valid access token.
func (c *Controller) SendVerificationEmail(ctx context.Context) error {
	access, ok := c.validAccessToken(ctx)
	if !ok {
		return errs.ErrNotAuthenticated
	}
	c.setError(nil)
	if err := c.api.SendVerificationEmail(ctx, access); err != nil {
		c.recordError(err)
		return err
	}
	return nil
}

// VerifyEmail redeems an emailed verification token. The cached profile's
// verification flag is not patched eagerly; it catches up on the next
// successful sign-in or profile refresh.
func (c *Controller) VerifyEmail(ctx context.Context, token string) error {
	c.setError(nil)
	if err := c.api.VerifyEmail(ctx, token); err != nil {
		c.recordError(err)
		return err
	}
	return nil
}

// ForgotPassword requests a password-reset mail.
func (c *Controller) ForgotPassword(ctx context.Context, email string) error {
	c.setError(nil)
	if err := c.api.ForgotPassword(ctx, email); err != nil {
		c.recordError(err)
		return err
	}
	return nil
}

// ResetPassword redeems a reset token with a new password.
func (c *Controller) ResetPassword(ctx context.Context, token, newPassword string) error {
	c.setError(nil)
	if err := c.api.ResetPassword(ctx, token, newPassword); err != nil {
		c.recordError(err)
		return err
	}
	return nil
}

// CurrentUser returns the cached profile. It is authoritative only while
// IsAuthenticated holds.
func (c *Controller) CurrentUser() (*model.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil, false
	}
	u := *c.user
	return &u, true
}

// IsAuthenticated recomputes the predicate on every read so natural token
// expiry between actions is reflected without polling.
func (c *Controller) IsAuthenticated(ctx context.Context) bool {
	c.mu.RLock()
	hasUser := c.user != nil
	c.mu.RUnlock()
	return hasUser && c.store.AccessTokenValid(ctx)
}

// IsLoading reports whether initialization or any auth mutation is in
// flight. While true, identity is unknown, not unauthenticated.
func (c *Controller) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadingN > 0
}

// LastError returns the most recent surfaced failure, if any.
func (c *Controller) LastError() *authapi.Error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// ClearError discards the surfaced failure. Successful unrelated operations
// never clear it implicitly.
func (c *Controller) ClearError() {
	c.setError(nil)
}

func (c *Controller) validAccessToken(ctx context.Context) (string, bool) {
	access, ok := c.store.AccessToken(ctx)
	if !ok || !c.store.AccessTokenValid(ctx) {
		return "", false
	}
	return access, true
}

// beginOp marks an operation in flight, clears the previous error, and
// returns the current session epoch.
func (c *Controller) beginOp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingN++
	c.lastErr = nil
	return c.epoch
}

func (c *Controller) endOp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingN--
}

// adopt publishes the user unless the session generation changed since the
// operation began.
func (c *Controller) adopt(epoch uint64, u *model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.user = u
}

func (c *Controller) setError(e *authapi.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = e
}

// recordError stores the failure verbatim when it already is a normalized
// *authapi.Error, wrapping it otherwise so UI always sees one shape.
func (c *Controller) recordError(err error) {
	var apiErr *authapi.Error
	if !errors.As(err, &apiErr) {
		apiErr = &authapi.Error{Detail: err.Error()}
	}
	c.setError(apiErr)
}
