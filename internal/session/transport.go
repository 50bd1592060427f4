package session

import (
	"net/http"
)

// Transport is an http.RoundTripper for calls to protected booking
// endpoints. It injects the stored bearer token and reports authorization
// failures back to the controller, so any API caller built on it triggers
// forced expiry on a 401 without knowing about the session machinery.
type Transport struct {
	ctrl *Controller
	base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(ctrl *Controller, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{ctrl: ctrl, base: base}
}

// RoundTrip implements http.RoundTripper. The request is cloned before the
// Authorization header is set, per the RoundTripper contract.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if access, ok := t.ctrl.validAccessToken(req.Context()); ok {
		out.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.ctrl.Invalidate()
	}
	return resp, nil
}
