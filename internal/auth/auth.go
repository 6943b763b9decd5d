// Package auth resolves bearer tokens to scoped principals for the control API.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// Scopes understood by the control API.
const (
	ScopeAll       = "*"
	ScopeDialogsRO = "dialogs:ro"
	ScopeDialogsRW = "dialogs:rw"
	ScopeSessionRO = "session:ro"
	ScopeSessionRW = "session:rw"
	ScopeEventsRO  = "events:ro"
	ScopeLogRO     = "log:ro"
)

// KnownScope reports whether s is one of the scopes above.
func KnownScope(s string) bool {
	switch s {
	case ScopeAll, ScopeDialogsRO, ScopeDialogsRW, ScopeSessionRO, ScopeSessionRW, ScopeEventsRO, ScopeLogRO:
		return true
	}
	return false
}

const adminPrincipal = "api_key"

// TokenConfig is a bearer token with a set of scopes.
type TokenConfig struct {
	Token  string
	Scopes []string
}

type Principal struct {
	Name   string
	Scopes map[string]struct{}
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func ExtractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing Authorization header")
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("invalid Authorization header format")
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing API key")
	}
	return token, nil
}

func constantTimeEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Authenticate matches a presented bearer token against configured tokens.
// A match on apiKey authenticates with scope "*". The principal never holds
// the token itself, only a name safe to log.
func Authenticate(presented string, apiKey string, tokens []TokenConfig) (Principal, bool) {
	if constantTimeEqual(presented, apiKey) {
		return Principal{
			Name:   adminPrincipal,
			Scopes: map[string]struct{}{ScopeAll: {}},
		}, true
	}

	for i, t := range tokens {
		if constantTimeEqual(presented, t.Token) {
			return Principal{
				Name:   "token#" + strconv.Itoa(i),
				Scopes: normalizeScopes(t.Scopes),
			}, true
		}
	}
	return Principal{}, false
}

func normalizeScopes(scopes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out[s] = struct{}{}
	}

	// Write implies read.
	if _, ok := out[ScopeDialogsRW]; ok {
		out[ScopeDialogsRO] = struct{}{}
	}
	if _, ok := out[ScopeSessionRW]; ok {
		out[ScopeSessionRO] = struct{}{}
	}
	return out
}

func HasAnyScope(p Principal, required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if _, ok := p.Scopes[ScopeAll]; ok {
		return true
	}
	for _, s := range required {
		if _, ok := p.Scopes[s]; ok {
			return true
		}
	}
	return false
}
