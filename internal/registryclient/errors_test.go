package registryclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"testing"
)

func TestClassify_DNSError(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "registry.invalid", IsNotFound: true}
	if got := classify(err); got != ErrKindDNS {
		t.Fatalf("classify(DNSError) = %v, want ErrKindDNS", got)
	}
}

func TestClassify_DNSTimeout(t *testing.T) {
	err := &net.DNSError{Err: "timeout", IsTimeout: true}
	if got := classify(err); got != ErrKindTimeout {
		t.Fatalf("classify(DNSError timeout) = %v, want ErrKindTimeout", got)
	}
}

func TestClassify_TLSCertificateError(t *testing.T) {
	err := &tls.CertificateVerificationError{Err: x509.UnknownAuthorityError{}}
	if got := classify(err); got != ErrKindTLS {
		t.Fatalf("classify(CertificateVerificationError) = %v, want ErrKindTLS", got)
	}
}

func TestClassify_OpErrorConnectionRefused(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if got := classify(err); got != ErrKindConnection {
		t.Fatalf("classify(OpError) = %v, want ErrKindConnection", got)
	}
}

func TestClassify_URLErrorUnwrapsInner(t *testing.T) {
	inner := &net.DNSError{Err: "no such host", IsNotFound: true}
	err := &url.Error{Op: "Get", URL: "https://registry.invalid/packages/zlib", Err: inner}
	if got := classify(err); got != ErrKindDNS {
		t.Fatalf("classify(url.Error wrapping DNSError) = %v, want ErrKindDNS", got)
	}
}

func TestClassify_ContextDeadlineExceeded(t *testing.T) {
	if got := classify(context.DeadlineExceeded); got != ErrKindTimeout {
		t.Fatalf("classify(DeadlineExceeded) = %v, want ErrKindTimeout", got)
	}
}

func TestClassify_UnknownErrorIsNetwork(t *testing.T) {
	if got := classify(errors.New("mystery failure")); got != ErrKindNetwork {
		t.Fatalf("classify(unknown) = %v, want ErrKindNetwork", got)
	}
}

func TestWrapTransportError_PreservesCauseViaUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrapTransportError(cause, "request failed")
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}
