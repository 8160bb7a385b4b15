package auth

import "errors"

// RejectReason classifies why a signature verification failed.
type RejectReason string

const (
	// ReasonTimestampExpired covers both unparseable timestamps and
	// timestamps outside the allowed window. The two cases are deliberately
	// not distinguished to the caller.
	ReasonTimestampExpired  RejectReason = "timestamp_expired"
	ReasonSignatureMismatch RejectReason = "signature_mismatch"
	ReasonVerificationError RejectReason = "verification_error"
)

// VerificationResult is the outcome of verifying a timestamp signature.
// It is produced per request and may be cached briefly so retried or
// duplicated requests skip recomputation.
type VerificationResult struct {
	IsValid   bool         `json:"is_valid"`
	Reason    RejectReason `json:"reason,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
}

// Message maps a reject reason to the user-facing error text. It never
// exposes internals.
func (r RejectReason) Message() string {
	switch r {
	case ReasonTimestampExpired:
		return "request timestamp is invalid or expired"
	case ReasonSignatureMismatch:
		return "request signature is invalid"
	default:
		return "request could not be verified"
	}
}

var (
	// ErrMissingCredentials is returned when a required auth header is absent.
	ErrMissingCredentials = errors.New("missing authentication headers")
	// ErrSecretUnavailable is returned when no valid signing secret could be
	// obtained from any source.
	ErrSecretUnavailable = errors.New("signing secret unavailable")
	// ErrSecretFetchExhausted is returned when the secret store failed for
	// every retry attempt and no fallback applied.
	ErrSecretFetchExhausted = errors.New("secret fetch retries exhausted")
)
