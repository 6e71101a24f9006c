// Package transport defines the wire abstraction the call gateway drives and
// an HTTP implementation of it.
//
// A Transport performs one synchronous exchange. I/O failures are reported as
// *IOError, which carries an explicit ResponsePhase flag: true means the
// request was already written to the wire when the failure happened, so the
// server may have partially processed it and a blind retry is unsafe. The
// gateway's classifier branches on this flag instead of sniffing error text.
//
// Decorators wrap a Transport to add request-shaping concerns; BearerTransport
// injects an Authorization header with expiry-aware token refresh.
package transport
