package ports

import (
	"context"

	"github.com/provia/proofbridge/internal/core/domain/auth"
)

// SignatureService computes and verifies HMAC-SHA256 signatures for the two
// schemes this service speaks: the timestamp scheme used for inbound API
// authentication, and the raw-body scheme used for platform webhooks.
type SignatureService interface {
	// Sign returns the hex-encoded HMAC-SHA256 of the timestamp string under secret.
	Sign(secret, timestamp string) string
	// VerifyTimestamp checks a timestamp/signature pair against the current
	// secret. A non-nil error means the service could not verify at all
	// (secret unavailable); an invalid signature is reported in the result,
	// not as an error.
	VerifyTimestamp(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error)
	// VerifyWebhookBody checks a signature over the verbatim request body
	// bytes. An empty body or malformed signature fails closed.
	VerifyWebhookBody(body []byte, signature string) bool
}
