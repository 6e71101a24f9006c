package transport

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type captureTransport struct {
	calls int
	last  *Request
}

func (c *captureTransport) Execute(ctx context.Context, req *Request, opts CallOptions) (*Response, error) {
	c.calls++
	c.last = req
	return &Response{StatusCode: 200}, nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
		"sub": "relaygate-test",
	})
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestBearerTransport_AttachesHeader(t *testing.T) {
	next := &captureTransport{}
	bt, err := NewBearerTransport(next, BearerConfig{
		Source: func(ctx context.Context) (string, error) { return "opaque-token", nil },
	})
	if err != nil {
		t.Fatalf("NewBearerTransport() error = %v", err)
	}

	req := &Request{Method: "GET", URL: "http://10.0.0.1:8080/x"}
	if _, err := bt.Execute(context.Background(), req, CallOptions{}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := next.last.Header.Get("Authorization"); got != "Bearer opaque-token" {
		t.Errorf("Authorization = %q", got)
	}
	if req.Header != nil {
		t.Error("original request header was mutated")
	}
}

func TestBearerTransport_CachesOpaqueToken(t *testing.T) {
	fetches := 0
	next := &captureTransport{}
	bt, _ := NewBearerTransport(next, BearerConfig{
		Source: func(ctx context.Context) (string, error) {
			fetches++
			return "opaque", nil
		},
	})

	for i := 0; i < 3; i++ {
		if _, err := bt.Execute(context.Background(), &Request{Method: "GET", URL: "http://h/"}, CallOptions{}); err != nil {
			t.Fatalf("Execute() #%d error = %v", i, err)
		}
	}
	if fetches != 1 {
		t.Errorf("source fetches = %d, want 1", fetches)
	}
}

func TestBearerTransport_RefreshesExpiringJWT(t *testing.T) {
	fetches := 0
	next := &captureTransport{}
	expiring := signedToken(t, time.Now().Add(5*time.Second))

	bt, _ := NewBearerTransport(next, BearerConfig{
		RefreshWindow: 30 * time.Second,
		Source: func(ctx context.Context) (string, error) {
			fetches++
			return expiring, nil
		},
	})

	_, _ = bt.Execute(context.Background(), &Request{Method: "GET", URL: "http://h/"}, CallOptions{})
	_, _ = bt.Execute(context.Background(), &Request{Method: "GET", URL: "http://h/"}, CallOptions{})

	// Token is always inside the refresh window, so every call re-fetches.
	if fetches != 2 {
		t.Errorf("source fetches = %d, want 2", fetches)
	}
}

func TestBearerTransport_KeepsFreshJWT(t *testing.T) {
	fetches := 0
	next := &captureTransport{}
	fresh := signedToken(t, time.Now().Add(time.Hour))

	bt, _ := NewBearerTransport(next, BearerConfig{
		Source: func(ctx context.Context) (string, error) {
			fetches++
			return fresh, nil
		},
	})

	_, _ = bt.Execute(context.Background(), &Request{Method: "GET", URL: "http://h/"}, CallOptions{})
	_, _ = bt.Execute(context.Background(), &Request{Method: "GET", URL: "http://h/"}, CallOptions{})

	if fetches != 1 {
		t.Errorf("source fetches = %d, want 1", fetches)
	}
}
