package auth

import (
	"errors"
	"fmt"
)

// ExchangeError reports a failed token exchange. Status is zero when the
// provider could not be reached. Body holds the provider's raw payload.
type ExchangeError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *ExchangeError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status %d: %v", e.Status, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

var ErrIncompleteBundle = errors.New("token response is missing required tokens")

type VerificationKind int

const (
	Malformed VerificationKind = iota + 1
	ExpiredSignature
	IssuerMismatch
	AudienceMismatch
	SignatureInvalid
	TokenUseMismatch
)

func (k VerificationKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case ExpiredSignature:
		return "expired_signature"
	case IssuerMismatch:
		return "issuer_mismatch"
	case AudienceMismatch:
		return "audience_mismatch"
	case SignatureInvalid:
		return "signature_invalid"
	case TokenUseMismatch:
		return "token_use_mismatch"
	default:
		return "unknown"
	}
}

type VerificationError struct {
	Kind VerificationKind
	Err  error
}

func (e *VerificationError) Error() string {
	if e.Err == nil {
		return "identity token rejected: " + e.Kind.String()
	}
	return fmt.Sprintf("identity token rejected: %s: %v", e.Kind, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// VerificationKindOf returns the kind of a verification failure, or zero when
// err is not a *VerificationError.
func VerificationKindOf(err error) VerificationKind {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return 0
}
