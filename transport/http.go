package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	// ConnectTimeout bounds connection establishment.
	// Default: 5 seconds
	ConnectTimeout time.Duration

	// MaxIdleConnsPerHost caps pooled connections per endpoint.
	// Default: 10
	MaxIdleConnsPerHost int

	// DisableKeepAlives turns off connection reuse.
	DisableKeepAlives bool
}

// HTTPTransport is the default Transport, backed by net/http. It reports
// I/O failures as *IOError with the exchange phase derived from the
// request lifecycle, not from error message text.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(config HTTPConfig) *HTTPTransport {
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 5 * time.Second
	}
	if config.MaxIdleConnsPerHost <= 0 {
		config.MaxIdleConnsPerHost = 10
	}

	dialer := &net.Dialer{Timeout: config.ConnectTimeout}
	return &HTTPTransport{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
				DisableKeepAlives:   config.DisableKeepAlives,
			},
		},
	}
}

// Execute performs one exchange. A non-2xx status is returned as a Response;
// only I/O failures produce an error.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request, opts CallOptions) (*Response, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	// Track how far the exchange got so failures carry the phase reached.
	var wrote, gotResponse atomic.Bool
	ctx = httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		WroteRequest:         func(httptrace.WroteRequestInfo) { wrote.Store(true) },
		GotFirstResponseByte: func() { gotResponse.Store(true) },
	})

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &IOError{
			Op:            phase(wrote.Load(), gotResponse.Load()),
			ResponsePhase: wrote.Load(),
			Err:           err,
		}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &IOError{Op: "read", ResponsePhase: true, Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		Body:       payload,
	}, nil
}

func phase(wrote, gotResponse bool) string {
	switch {
	case gotResponse:
		return "read"
	case wrote:
		return "read" // request sent, failure while awaiting the response
	default:
		return "dial"
	}
}
