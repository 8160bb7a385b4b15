package httpserver_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/provia/proofbridge/internal/core/domain/auth"
	memcache "github.com/provia/proofbridge/internal/infrastructure/cache"
	"github.com/provia/proofbridge/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/provia/proofbridge/test/mocks"
)

func newAuthHandler(sig *tmocks.SignatureServiceMock) echo.HandlerFunc {
	cache := memcache.NewMemoryCache(memcache.Options{MaxEntries: 100, SweepInterval: time.Hour}, nil)
	m := middleware.NewHMACMiddleware(sig, cache, time.Minute, nil, logrus.New())
	return m.Require()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func signedRequest(timestamp, signature string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if timestamp != "" {
		req.Header.Set(middleware.HeaderTimestamp, timestamp)
	}
	if signature != "" {
		req.Header.Set(middleware.HeaderSignature, signature)
	}
	return req, httptest.NewRecorder()
}

func TestHMACMiddleware_MissingHeadersReturns400(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{}
	handler := newAuthHandler(sig)

	req, rec := signedRequest("", "")
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, htErr.Code)
	// No verification was attempted.
	require.Equal(t, 0, sig.VerifyTimestampCalls)
}

func TestHMACMiddleware_InvalidSignatureReturns401(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonSignatureMismatch}, nil
	}}
	handler := newAuthHandler(sig)

	req, rec := signedRequest("1700000000000", strings.Repeat("0", 64))
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestHMACMiddleware_ValidSignatureAllows(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return &auth.VerificationResult{IsValid: true, Timestamp: 1700000000000}, nil
	}}
	handler := newAuthHandler(sig)

	req, rec := signedRequest("1700000000000", strings.Repeat("a", 64))
	err := handler(e.NewContext(req, rec))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHMACMiddleware_CachedResultSkipsRecomputation(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return &auth.VerificationResult{IsValid: true, Timestamp: 1700000000000}, nil
	}}
	handler := newAuthHandler(sig)

	for i := 0; i < 3; i++ {
		req, rec := signedRequest("1700000000000", strings.Repeat("a", 64))
		err := handler(e.NewContext(req, rec))
		require.NoError(t, err)
	}
	// Only the first request computed the HMAC.
	require.Equal(t, 1, sig.VerifyTimestampCalls)
}

func TestHMACMiddleware_CachedRejectionStaysRejected(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return &auth.VerificationResult{IsValid: false, Reason: auth.ReasonTimestampExpired}, nil
	}}
	handler := newAuthHandler(sig)

	for i := 0; i < 2; i++ {
		req, rec := signedRequest("123", strings.Repeat("b", 64))
		err := handler(e.NewContext(req, rec))
		require.Error(t, err)
		htErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		require.Equal(t, http.StatusUnauthorized, htErr.Code)
	}
	require.Equal(t, 1, sig.VerifyTimestampCalls)
}

func TestHMACMiddleware_SecretUnavailableReturns503(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return nil, fmt.Errorf("resolve secret: %w", auth.ErrSecretUnavailable)
	}}
	handler := newAuthHandler(sig)

	req, rec := signedRequest("1700000000000", strings.Repeat("a", 64))
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusServiceUnavailable, htErr.Code)
}

func TestHMACMiddleware_UnexpectedVerifierErrorReturns500(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyTimestampFn: func(ctx context.Context, timestamp, signature string) (*auth.VerificationResult, error) {
		return nil, errors.New("boom")
	}}
	handler := newAuthHandler(sig)

	req, rec := signedRequest("1700000000000", strings.Repeat("a", 64))
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, htErr.Code)
}

func TestWebhookMiddleware_MissingSignatureReturns400(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{}
	m := middleware.NewWebhookMiddleware(sig, logrus.New())
	handler := m.VerifyBody()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pageproof", strings.NewReader(`{"a":1}`))
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, htErr.Code)
	require.Equal(t, 0, sig.VerifyWebhookBodyCalls)
}

func TestWebhookMiddleware_BadSignatureReturns401(t *testing.T) {
	e := echo.New()
	sig := &tmocks.SignatureServiceMock{VerifyWebhookBodyFn: func(body []byte, signature string) bool { return false }}
	m := middleware.NewWebhookMiddleware(sig, logrus.New())
	handler := m.VerifyBody()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pageproof", strings.NewReader(`{"a":1}`))
	req.Header.Set(middleware.HeaderWebhookSignature, strings.Repeat("0", 64))
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestWebhookMiddleware_CapturesRawBodyVerbatim(t *testing.T) {
	e := echo.New()
	payload := `{"z":1,"a":2}` // key order matters for the signature
	var seen []byte
	sig := &tmocks.SignatureServiceMock{VerifyWebhookBodyFn: func(body []byte, signature string) bool {
		seen = body
		return true
	}}
	m := middleware.NewWebhookMiddleware(sig, logrus.New())
	handler := m.VerifyBody()(func(c echo.Context) error {
		raw, ok := c.Get(middleware.RawBodyKey).([]byte)
		require.True(t, ok)
		require.Equal(t, payload, string(raw))
		// The body is still readable downstream.
		again, err := io.ReadAll(c.Request().Body)
		require.NoError(t, err)
		require.Equal(t, payload, string(again))
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/pageproof", strings.NewReader(payload))
	req.Header.Set(middleware.HeaderWebhookSignature, strings.Repeat("0", 64))
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	require.NoError(t, err)
	require.Equal(t, payload, string(seen))
}
