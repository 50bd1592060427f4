// Package errclass maps raw server error text to stable category keys for
// display. The server localizes its messages (English and Albanian), so
// matching is keyword-based, case-insensitive, and checked in a fixed
// priority order. Classification is total: unknown input passes through
// unchanged.
package errclass

import (
	"encoding/json"
	"strings"
)

// Stable category keys.
const (
	EmailAlreadyExists = "email_already_exists"
	InvalidCredentials = "invalid_credentials"
	UserNotFound       = "user_not_found"
	AccountDisabled    = "account_disabled"
	NetworkError       = "network_error"
	ServerError        = "server_error"
	SessionExpired     = "session_expired"
	RateLimited        = "rate_limited"
	SignUpFailed       = "sign_up_failed"
	SignInFailed       = "sign_in_failed"
)

type rule struct {
	category string
	keywords []string
}

// Priority order is part of the contract: earlier rules win, and the
// Albanian "nuk ekziston" must not be captured by the email-exists rule.
var rules = []rule{
	{EmailAlreadyExists, []string{
		"already registered",
		"already exists",
		"already in use",
		"tashmë është regjistruar",
		"është regjistruar",
	}},
	{InvalidCredentials, []string{
		"incorrect email or password",
		"invalid credentials",
		"incorrect password",
		"incorrect username",
		"kredenciale të pavlefshme",
		"fjalëkalim i gabuar",
		"të pasakta",
	}},
	{UserNotFound, []string{
		"user not found",
		"no user",
		"not found",
		"nuk u gjet",
		"nuk ekziston",
	}},
	{AccountDisabled, []string{
		"disabled",
		"deactivated",
		"inactive",
		"çaktivizuar",
		"joaktive",
	}},
	{NetworkError, []string{
		"network",
		"connection",
		"timeout",
		"request failed",
		"rrjeti",
		"lidhja",
	}},
	{ServerError, []string{
		"internal server error",
		"server error",
		"gabim i serverit",
	}},
	{SessionExpired, []string{
		"session expired",
		"token expired",
		"sesioni ka skaduar",
		"ka skaduar",
	}},
	{RateLimited, []string{
		"too many",
		"rate limit",
		"shumë kërkesa",
	}},
}

// Hard-coded fallbacks emitted by older clients, checked after the keyword
// rules and before passthrough.
var fallbacks = map[string]string{
	"Sign up failed": SignUpFailed,
	"Sign in failed": SignInFailed,
}

// Classify maps raw error text to a category key, or returns the input
// unchanged when nothing matches. It never fails and is deterministic for a
// given input.
func Classify(raw string) string {
	lower := strings.ToLower(raw)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.category
			}
		}
	}
	if cat, ok := fallbacks[raw]; ok {
		return cat
	}
	return raw
}

// ClassifyStored handles the persisted lastError forms: a JSON-encoded
// envelope from current clients, or a bare display string from older ones.
func ClassifyStored(raw string) string {
	var envelope struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err == nil && envelope.Detail != "" {
		return Classify(envelope.Detail)
	}
	return Classify(raw)
}
