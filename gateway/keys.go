package gateway

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jonwraymond/relaygate/transport"
)

// ErrMalformedTarget indicates the request's URL could not be parsed into a
// host and port. This is a caller bug or misconfiguration, not a transient
// condition, and is never classified.
var ErrMalformedTarget = errors.New("gateway: malformed target URL")

// EndpointKey identifies one concrete endpoint instance of one logical
// client. It scopes the worker pool: all operations against the same
// instance share one pool.
type EndpointKey struct {
	ClientID string
	Host     string
	Port     int
}

// String renders the key in its canonical form, e.g.
// "test1Client:10.238.45.78:8251".
func (k EndpointKey) String() string {
	return k.ClientID + ":" + k.Host + ":" + strconv.Itoa(k.Port)
}

// Addr returns the endpoint's dialable "host:port" form.
func (k EndpointKey) Addr() string {
	return net.JoinHostPort(k.Host, strconv.Itoa(k.Port))
}

// EndpointMethodKey identifies one operation on one endpoint instance. It
// scopes the circuit breaker: breaker state is method-specific while the
// pool is shared across the endpoint's methods.
type EndpointMethodKey struct {
	EndpointKey
	Method string
}

// String appends the canonical operation signature to the endpoint key.
func (k EndpointMethodKey) String() string {
	return k.EndpointKey.String() + ":" + k.Method
}

// DeriveKeys builds both keys from the request's target. The client id comes
// from the request's declared configuration identifier, never from the
// service's name. Pure; the only failure is a target that does not parse.
func DeriveKeys(req *transport.Request) (EndpointKey, EndpointMethodKey, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return EndpointKey{}, EndpointMethodKey{}, fmt.Errorf("%w: %q: %v", ErrMalformedTarget, req.URL, err)
	}
	host := u.Hostname()
	if host == "" {
		return EndpointKey{}, EndpointMethodKey{}, fmt.Errorf("%w: %q: no host", ErrMalformedTarget, req.URL)
	}

	port, err := targetPort(u)
	if err != nil {
		return EndpointKey{}, EndpointMethodKey{}, err
	}

	ek := EndpointKey{
		ClientID: req.ClientID,
		Host:     host,
		Port:     port,
	}
	mk := EndpointMethodKey{
		EndpointKey: ek,
		Method:      req.Operation,
	}
	return ek, mk, nil
}

func targetPort(u *url.URL) (int, error) {
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: bad port %q", ErrMalformedTarget, p)
		}
		return port, nil
	}

	switch u.Scheme {
	case "https":
		return 443, nil
	case "http", "":
		return 80, nil
	default:
		return 0, fmt.Errorf("%w: no port for scheme %q", ErrMalformedTarget, u.Scheme)
	}
}
