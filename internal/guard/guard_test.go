package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/johnpapajani/rezi-web-sub002/internal/model"
)

type fakeSession struct {
	loading       bool
	authenticated bool
	user          *model.User
}

var _ Session = (*fakeSession)(nil)

func (f *fakeSession) IsLoading() bool                      { return f.loading }
func (f *fakeSession) IsAuthenticated(context.Context) bool { return f.authenticated }
func (f *fakeSession) CurrentUser() (*model.User, bool)     { return f.user, f.user != nil }

func TestProtectedDecisions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		s    *fakeSession
		want Decision
	}{
		{"loading never redirects", &fakeSession{loading: true}, Loading},
		{"unauthenticated redirects", &fakeSession{}, SignInRequired},
		{"authenticated allows", &fakeSession{authenticated: true, user: &model.User{EmailVerified: true}}, Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Protected(ctx, tt.s))
		})
	}
}

func TestVerifiedDecisions(t *testing.T) {
	ctx := context.Background()

	unverified := &fakeSession{authenticated: true, user: &model.User{EmailVerified: false}}
	assert.Equal(t, VerificationRequired, Verified(ctx, unverified))

	verified := &fakeSession{authenticated: true, user: &model.User{EmailVerified: true}}
	assert.Equal(t, Allow, Verified(ctx, verified))

	// Loading still wins over everything.
	assert.Equal(t, Loading, Verified(ctx, &fakeSession{loading: true}))
}

func TestMiddlewareRedirectsUnauthenticated(t *testing.T) {
	mw := Middleware(&fakeSession{}, "/signin")
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/signin", rec.Header().Get("Location"))
}

func TestMiddlewareAnswersRetryWhileLoading(t *testing.T) {
	mw := Middleware(&fakeSession{loading: true}, "/signin")
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestVerifiedMiddlewareShowsInterstitialInPlace(t *testing.T) {
	s := &fakeSession{authenticated: true, user: &model.User{EmailVerified: false}}
	mw := VerifiedMiddleware(s, "/signin")
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	// A 403 with the interstitial, not a redirect: the target URL survives.
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestMiddlewareAllowsThrough(t *testing.T) {
	s := &fakeSession{authenticated: true, user: &model.User{EmailVerified: true}}
	called := false
	h := VerifiedMiddleware(s, "/signin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.True(t, called)
}
