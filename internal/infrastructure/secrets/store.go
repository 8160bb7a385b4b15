package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/internal/core/ports"
)

// HTTPStore fetches secrets from a vault-style REST endpoint:
// GET {base}/secrets/{name} with bearer auth, returning {"value": "..."}.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *logrus.Logger
}

func NewHTTPStore(baseURL, token string, logger *logrus.Logger) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// GetSecret implements ports.SecretStore.
func (s *HTTPStore) GetSecret(ctx context.Context, name string) (string, error) {
	url := fmt.Sprintf("%s/secrets/%s", s.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("secret store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("secret store returned status %d for %q", resp.StatusCode, name)
	}

	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode secret store response: %w", err)
	}
	if body.Value == "" {
		return "", fmt.Errorf("secret %q is empty", name)
	}
	return body.Value, nil
}

// EnvStore resolves secrets from environment variables, mapping a secret name
// like "proofbridge-hmac-secret" to PROOFBRIDGE_HMAC_SECRET. Intended for
// local development; production deployments point at an HTTPStore.
type EnvStore struct{}

func NewEnvStore() *EnvStore { return &EnvStore{} }

// GetSecret implements ports.SecretStore.
func (s *EnvStore) GetSecret(ctx context.Context, name string) (string, error) {
	key := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("environment variable %s is not set", key)
}

var (
	_ ports.SecretStore = (*HTTPStore)(nil)
	_ ports.SecretStore = (*EnvStore)(nil)
)
