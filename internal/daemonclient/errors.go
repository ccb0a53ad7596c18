package daemonclient

import (
	"errors"
	"fmt"
)

// Kind classifies bootstrap failures
type Kind int

const (
	// KindConfig is a missing or invalid configuration field
	KindConfig Kind = iota + 1
	// KindCertRead is an unreadable or unusable TLS certificate file
	KindCertRead
	// KindCredential is an empty or invalid rpc user or password
	KindCredential
	// KindBinding is a service that could not be bound
	KindBinding
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindCertRead:
		return "CertReadError"
	case KindCredential:
		return "CredentialError"
	case KindBinding:
		return "BindingError"
	default:
		return "UnknownError"
	}
}

// Error is returned by every failing bootstrap step. Only the fields
// relevant to the Kind are set.
type Error struct {
	Kind Kind

	// Field is the configuration or credential field (KindConfig, KindCredential)
	Field string
	// Path is the certificate path (KindCertRead)
	Path string
	// Service is the service name (KindBinding)
	Service string

	Err error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindConfig:
		msg = "invalid configuration"
		if e.Field != "" {
			msg = fmt.Sprintf("invalid configuration field %q", e.Field)
		}
	case KindCertRead:
		msg = fmt.Sprintf("failed to read rpc certificate %q", e.Path)
	case KindCredential:
		msg = fmt.Sprintf("invalid rpc credential: %s", e.Field)
	case KindBinding:
		msg = fmt.Sprintf("failed to bind service %s", e.Service)
	default:
		msg = "daemon client error"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err,
// &Error{Kind: KindCertRead}) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Field == "" && t.Path == "" && t.Service == "" && t.Err == nil
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsConfigError reports whether err is a configuration error
func IsConfigError(err error) bool { return kindOf(err) == KindConfig }

// IsCertReadError reports whether err is a certificate read error
func IsCertReadError(err error) bool { return kindOf(err) == KindCertRead }

// IsCredentialError reports whether err is a credential error
func IsCredentialError(err error) bool { return kindOf(err) == KindCredential }

// IsBindingError reports whether err is a binding error. Joined binding
// errors from BindAll match as well.
func IsBindingError(err error) bool { return kindOf(err) == KindBinding }
