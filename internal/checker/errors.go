package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies probe failures into a closed set so callers can branch
// on the category instead of parsing message text.
type Kind int

const (
	// KindTimeout covers deadline exceeded and network timeouts.
	KindTimeout Kind = iota
	// KindNotFound covers NXDOMAIN and provider "no such domain" answers.
	KindNotFound
	// KindProtocol covers handshake failures, refused connections, and
	// malformed provider responses.
	KindProtocol
	// KindConfig covers invalid probe configuration (bad timeout, bad
	// weights). These indicate deployment errors, not target state.
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindNotFound:
		return "not_found"
	case KindProtocol:
		return "protocol"
	case KindConfig:
		return "config"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CheckError wraps a probe failure with its classification.
type CheckError struct {
	Kind Kind
	Err  error
}

func (e *CheckError) Error() string {
	return e.Err.Error()
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// Timeoutf builds a KindTimeout CheckError.
func Timeoutf(format string, args ...any) *CheckError {
	return &CheckError{Kind: KindTimeout, Err: fmt.Errorf(format, args...)}
}

// NotFoundf builds a KindNotFound CheckError.
func NotFoundf(format string, args ...any) *CheckError {
	return &CheckError{Kind: KindNotFound, Err: fmt.Errorf(format, args...)}
}

// Protocolf builds a KindProtocol CheckError.
func Protocolf(format string, args ...any) *CheckError {
	return &CheckError{Kind: KindProtocol, Err: fmt.Errorf(format, args...)}
}

// Configf builds a KindConfig CheckError.
func Configf(format string, args ...any) *CheckError {
	return &CheckError{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// Classify maps an arbitrary error onto a CheckError. Existing CheckErrors
// pass through unchanged; context deadlines and net timeouts become
// KindTimeout, DNS not-found becomes KindNotFound, everything else is
// treated as a protocol failure.
func Classify(err error) *CheckError {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &CheckError{Kind: KindTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &CheckError{Kind: KindTimeout, Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return &CheckError{Kind: KindNotFound, Err: err}
	}

	return &CheckError{Kind: KindProtocol, Err: err}
}

// IsKind reports whether err is a CheckError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *CheckError
	return errors.As(err, &ce) && ce.Kind == kind
}
