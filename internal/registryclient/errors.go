// Package registryclient implements the read side of the registry's
// wire contract as a cacherepo.NetworkSource, classifying transport
// failures by unwrapping to the most specific net/tls/url error before
// falling back to a generic network error.
package registryclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorKind classifies a registry transport failure.
type ErrorKind int

const (
	ErrKindNetwork ErrorKind = iota
	ErrKindTimeout
	ErrKindDNS
	ErrKindConnection
	ErrKindTLS
	ErrKindHTTPStatus
)

// Error is the typed error returned by Client methods.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Kind == ErrKindHTTPStatus {
		return fmt.Sprintf("registryclient: HTTP %d: %s", e.StatusCode, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("registryclient: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("registryclient: %s", e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func classify(err error) ErrorKind {
	if err == nil {
		return ErrKindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrKindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return ErrKindTimeout
		}
		return ErrKindDNS
	}

	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return ErrKindTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return ErrKindTimeout
		}
		return ErrKindConnection
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return ErrKindTimeout
		}
		if strings.Contains(strings.ToLower(urlErr.Err.Error()), "certificate") {
			return ErrKindTLS
		}
		return classify(urlErr.Err)
	}

	return ErrKindNetwork
}

func wrapTransportError(err error, message string) *Error {
	return &Error{Kind: classify(err), Message: message, Cause: err}
}
