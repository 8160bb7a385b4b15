package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStoreFetchesSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/secrets/my-secret", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"value":"super-secret-value"}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "tok", nil)
	got, err := store.GetSecret(context.Background(), "my-secret")
	require.NoError(t, err)
	require.Equal(t, "super-secret-value", got)
}

func TestHTTPStoreNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "tok", nil)
	_, err := store.GetSecret(context.Background(), "my-secret")
	require.Error(t, err)
}

func TestHTTPStoreEmptyValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":""}`))
	}))
	defer srv.Close()

	store := NewHTTPStore(srv.URL, "tok", nil)
	_, err := store.GetSecret(context.Background(), "my-secret")
	require.Error(t, err)
}

func TestEnvStoreMapsSecretName(t *testing.T) {
	t.Setenv("PROOFBRIDGE_HMAC_SECRET", "env-secret-value")

	store := NewEnvStore()
	got, err := store.GetSecret(context.Background(), "proofbridge-hmac-secret")
	require.NoError(t, err)
	require.Equal(t, "env-secret-value", got)

	_, err = store.GetSecret(context.Background(), "missing-secret")
	require.Error(t, err)
}
