package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
)

const (
	HeaderWebhookSignature = "x-pageproof-signature"

	// RawBodyKey is the context key under which the verbatim request body is
	// stashed for handlers running after signature verification.
	RawBodyKey = "raw_body"
)

// WebhookMiddleware verifies platform webhooks. The body bytes are captured
// exactly as received, before any parsing, because the signature covers the
// wire bytes; re-serializing JSON can reorder keys and break it.
type WebhookMiddleware struct {
	signatures ports.SignatureService
	logger     *logrus.Logger
}

func NewWebhookMiddleware(signatures ports.SignatureService, logger *logrus.Logger) *WebhookMiddleware {
	return &WebhookMiddleware{signatures: signatures, logger: logger}
}

// VerifyBody creates middleware that captures the raw body and checks the
// platform signature over it. Verification fails closed: no captured body
// means a rejection, never a pass.
func (m *WebhookMiddleware) VerifyBody() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			signature := c.Request().Header.Get(HeaderWebhookSignature)
			if signature == "" {
				m.logRejection(c, start, "missing webhook signature header")
				return echo.NewHTTPError(http.StatusBadRequest, "missing webhook signature")
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				m.logRejection(c, start, "failed to read request body")
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
			}
			// Restore the body for downstream binding.
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			c.Set(RawBodyKey, body)

			if !m.signatures.VerifyWebhookBody(body, signature) {
				m.logRejection(c, start, "webhook signature mismatch")
				return echo.NewHTTPError(http.StatusUnauthorized, "webhook signature is invalid")
			}

			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{
					"ip":      c.RealIP(),
					"path":    c.Request().URL.Path,
					"elapsed": time.Since(start).String(),
				}).Debug("webhook signature verified")
			}
			return next(c)
		}
	}
}

func (m *WebhookMiddleware) logRejection(c echo.Context, start time.Time, reason string) {
	if m.logger == nil {
		return
	}
	m.logger.WithFields(logrus.Fields{
		"ip":      c.RealIP(),
		"path":    c.Request().URL.Path,
		"elapsed": time.Since(start).String(),
		"reason":  reason,
	}).Warn("webhook rejected")
}
