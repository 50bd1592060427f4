// Package guard provides read-only route guards over session state: pure
// decisions for any frontend, plus net/http middleware adapters.
package guard

import (
	"context"
	"net/http"

	"github.com/johnpapajani/rezi-web-sub002/internal/model"
)

// Session is the read-only slice of the controller the guards consume.
type Session interface {
	IsLoading() bool
	IsAuthenticated(ctx context.Context) bool
	CurrentUser() (*model.User, bool)
}

// Decision is what a guard wants done with the current request or view.
type Decision int

const (
	// Allow renders the protected content.
	Allow Decision = iota
	// Loading means identity is still unknown; render a neutral loading
	// state and never redirect.
	Loading
	// SignInRequired redirects to sign-in.
	SignInRequired
	// VerificationRequired shows the verify-email interstitial in place,
	// preserving the target URL for after verification.
	VerificationRequired
)

// Protected is the authenticated-only guard.
func Protected(ctx context.Context, s Session) Decision {
	if s.IsLoading() {
		return Loading
	}
	if !s.IsAuthenticated(ctx) {
		return SignInRequired
	}
	return Allow
}

// Verified is the authenticated-and-email-verified guard.
func Verified(ctx context.Context, s Session) Decision {
	if d := Protected(ctx, s); d != Allow {
		return d
	}
	u, ok := s.CurrentUser()
	if !ok || !u.EmailVerified {
		return VerificationRequired
	}
	return Allow
}

// Middleware adapts Protected for net/http handlers. Unauthenticated
// requests are redirected to signInURL; unknown identity answers 503 with a
// short retry so clients do not treat it as a logout.
func Middleware(s Session, signInURL string) func(http.Handler) http.Handler {
	return middleware(s, signInURL, Protected)
}

// VerifiedMiddleware adapts Verified. Unverified users get 403 with an
// interstitial message instead of a redirect.
func VerifiedMiddleware(s Session, signInURL string) func(http.Handler) http.Handler {
	return middleware(s, signInURL, Verified)
}

func middleware(s Session, signInURL string, decide func(context.Context, Session) Decision) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch decide(r.Context(), s) {
			case Allow:
				next.ServeHTTP(w, r)
			case Loading:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session initializing", http.StatusServiceUnavailable)
			case SignInRequired:
				http.Redirect(w, r, signInURL, http.StatusSeeOther)
			case VerificationRequired:
				http.Error(w, "email verification required", http.StatusForbidden)
			}
		})
	}
}
