package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authResponseBody() map[string]any {
	return map[string]any{
		"access_token":      "access-1",
		"refresh_token":     "refresh-1",
		"token_type":        "bearer",
		"user_id":           "user-1",
		"name":              "Arben Doe",
		"email":             "arben@example.com",
		"locale":            "sq",
		"is_active":         true,
		"email_verified":    false,
		"subscription_tier": "free",
	}
}

func TestSignInSendsFormFields(t *testing.T) {
	var gotContentType, gotUser, gotPass, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		require.NoError(t, r.ParseForm())
		gotUser = r.PostFormValue("username")
		gotPass = r.PostFormValue("password")
		_ = json.NewEncoder(w).Encode(authResponseBody())
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	resp, err := c.SignIn(context.Background(), "arben@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "arben@example.com", gotUser)
	assert.Equal(t, "secret", gotPass)
	assert.NotEmpty(t, gotRequestID)

	assert.Equal(t, "access-1", resp.AccessToken)
	u := resp.User()
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "Arben Doe", u.Name)
	assert.False(t, u.EmailVerified)
}

func TestSignUpSendsJSON(t *testing.T) {
	var got SignUpRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/signup", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(authResponseBody())
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	_, err := c.SignUp(context.Background(), SignUpRequest{
		Name: "Arben Doe", Email: "arben@example.com", Password: "secret",
		Locale: "sq", IsActive: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "arben@example.com", got.Email)
	assert.Equal(t, "sq", got.Locale)
	assert.True(t, got.IsActive)
}

func TestLogoutSendsBearerAndRefreshToken(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	require.NoError(t, c.Logout(context.Background(), "access-1", "refresh-1"))
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.Equal(t, "refresh-1", gotBody["refresh_token"])
}

func TestRefreshRotatesTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/refresh", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "refresh-old", body["refresh_token"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-new", "refresh_token": "refresh-new", "token_type": "bearer",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	resp, err := c.Refresh(context.Background(), "refresh-old")
	require.NoError(t, err)
	assert.Equal(t, "access-new", resp.AccessToken)
	assert.Equal(t, "refresh-new", resp.RefreshToken)
}

func TestServerErrorWithDetailBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Incorrect email or password"})
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	_, err := c.SignIn(context.Background(), "arben@example.com", "wrong")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Incorrect email or password", apiErr.Detail)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "/auth/login", apiErr.Endpoint)
}

func TestServerErrorWithUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream sad</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil, nil)
	err := c.ForgotPassword(context.Background(), "arben@example.com")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "HTTP 502: Bad Gateway", apiErr.Detail)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestTransportFailureStillYieldsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, nil, nil)
	err := c.VerifyEmail(context.Background(), "tok")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.NotEmpty(t, apiErr.Detail)
	assert.Zero(t, apiErr.Status, "no response reached the server")
	assert.Equal(t, "/auth/verify-email", apiErr.Endpoint)
}
