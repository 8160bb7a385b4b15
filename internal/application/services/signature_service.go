package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/auth"
	"github.com/provia/proofbridge/internal/core/ports"
)

// hexSignatureLength is the length of a hex-encoded SHA-256 digest. Anything
// else is rejected before any comparison is attempted.
const hexSignatureLength = 64

// SignatureService implements both HMAC schemes: the timestamp signature used
// for inbound API authentication, and the raw-body signature carried by
// platform webhooks. Comparisons are constant-time in both paths.
type SignatureService struct {
	secrets       ports.SecretProvider
	secretName    string
	webhookSecret string
	timeout       time.Duration
	logger        *logrus.Logger
	now           func() time.Time
}

func NewSignatureService(secrets ports.SecretProvider, cfg *configs.HMACConfig, webhookSecret string, logger *logrus.Logger) *SignatureService {
	return &SignatureService{
		secrets:       secrets,
		secretName:    cfg.SecretName,
		webhookSecret: webhookSecret,
		timeout:       cfg.Timeout,
		logger:        logger,
		now:           time.Now,
	}
}

// Sign implements ports.SignatureService.
func (s *SignatureService) Sign(secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyTimestamp implements ports.SignatureService.
//
// Malformed timestamps and timestamps outside the window share the
// timestamp_expired reason; the distinction is withheld from callers. The
// signature shape is checked before the secret is resolved, so malformed
// signatures never cost a store round trip.
func (s *SignatureService) VerifyTimestamp(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil || ts <= 0 {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonTimestampExpired}, nil
	}

	now := s.now().UnixMilli()
	drift := now - ts
	if drift < 0 {
		drift = -drift
	}
	if drift > s.timeout.Milliseconds() {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonTimestampExpired, Timestamp: ts}, nil
	}

	if !wellFormedSignature(signature) {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonSignatureMismatch, Timestamp: ts}, nil
	}

	secret, err := s.secrets.GetSecret(ctx, s.secretName)
	if err != nil {
		return nil, err
	}

	expected := s.Sign(secret, timestamp)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonSignatureMismatch, Timestamp: ts}, nil
	}
	return &auth.VerificationResult{IsValid: true, Timestamp: ts}, nil
}

// VerifyWebhookBody implements ports.SignatureService. The signature must
// cover the verbatim body bytes captured before any parsing; an uncaptured
// or empty body fails closed.
func (s *SignatureService) VerifyWebhookBody(body []byte, signature string) bool {
	if len(body) == 0 {
		return false
	}
	if !wellFormedSignature(signature) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// wellFormedSignature checks for exactly 64 hex characters, either case.
func wellFormedSignature(sig string) bool {
	if len(sig) != hexSignatureLength {
		return false
	}
	for i := 0; i < len(sig); i++ {
		c := sig[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
