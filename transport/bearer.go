package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies a bearer token for outbound calls.
type TokenSource func(ctx context.Context) (string, error)

// BearerConfig configures the bearer-token decorator.
type BearerConfig struct {
	// Source supplies tokens. Required.
	Source TokenSource

	// RefreshWindow re-fetches the token when it expires within this
	// window, so a call never goes out with a token about to lapse.
	// Default: 30 seconds
	RefreshWindow time.Duration
}

// BearerTransport decorates a Transport with an Authorization header. JWT
// expiry is read from the token itself (unverified; the server verifies) to
// decide when to refresh. Tokens without an exp claim are fetched once.
type BearerTransport struct {
	next          Transport
	source        TokenSource
	refreshWindow time.Duration

	mu     sync.Mutex
	token  string
	expiry time.Time // zero when the token carries no expiry
	cached bool
}

// NewBearerTransport creates the decorator.
func NewBearerTransport(next Transport, config BearerConfig) (*BearerTransport, error) {
	if next == nil {
		return nil, errors.New("transport: next transport is required")
	}
	if config.Source == nil {
		return nil, errors.New("transport: token source is required")
	}
	if config.RefreshWindow <= 0 {
		config.RefreshWindow = 30 * time.Second
	}

	return &BearerTransport{
		next:          next,
		source:        config.Source,
		refreshWindow: config.RefreshWindow,
	}, nil
}

// Execute attaches the bearer token and delegates. The incoming request is
// not mutated; headers are copied.
func (t *BearerTransport) Execute(ctx context.Context, req *Request, opts CallOptions) (*Response, error) {
	token, err := t.tokenFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("transport: bearer token: %w", err)
	}

	authed := *req
	authed.Header = make(http.Header, len(req.Header)+1)
	for k, vs := range req.Header {
		authed.Header[k] = vs
	}
	authed.Header.Set("Authorization", "Bearer "+token)

	return t.next.Execute(ctx, &authed, opts)
}

func (t *BearerTransport) tokenFor(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cached {
		if t.expiry.IsZero() || time.Until(t.expiry) > t.refreshWindow {
			return t.token, nil
		}
	}

	token, err := t.source(ctx)
	if err != nil {
		return "", err
	}

	t.token = token
	t.expiry = tokenExpiry(token)
	t.cached = true
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature. Returns
// the zero time for opaque or claimless tokens.
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
