package pageproof

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/provia/proofbridge/configs"
	"github.com/provia/proofbridge/internal/core/domain/proof"
	"github.com/provia/proofbridge/internal/core/ports"
)

// Client talks to the proofing platform's REST API. It is sequential glue:
// every method is one authenticated round trip with JSON in and out.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *logrus.Logger
}

func NewClient(cfg *configs.PageProofConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

// CreateProof implements ports.ProofPlatform.
func (c *Client) CreateProof(ctx context.Context, req *proof.CreateProofRequest, collectionID string) (*proof.Proof, error) {
	payload := map[string]interface{}{
		"name":     req.Name,
		"file_url": req.FileURL,
	}
	if collectionID != "" {
		payload["collection_id"] = collectionID
	}
	if req.OwnerEmail != "" {
		payload["owner_email"] = req.OwnerEmail
	}
	if len(req.ReviewerEmails) > 0 {
		payload["reviewer_emails"] = req.ReviewerEmails
	}
	if req.DueDate != nil {
		payload["due_date"] = req.DueDate.UTC().Format(time.RFC3339)
	}
	if req.Reference != "" {
		payload["reference"] = req.Reference
	}

	var out proof.Proof
	if err := c.do(ctx, http.MethodPost, "/proofs", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProof implements ports.ProofPlatform.
func (c *Client) GetProof(ctx context.Context, id string) (*proof.Proof, error) {
	var out proof.Proof
	if err := c.do(ctx, http.MethodGet, "/proofs/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCollections implements ports.ProofPlatform.
func (c *Client) ListCollections(ctx context.Context) ([]*proof.Collection, error) {
	var out struct {
		Collections []*proof.Collection `json:"collections"`
	}
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	return out.Collections, nil
}

// CreateCollection implements ports.ProofPlatform.
func (c *Client) CreateCollection(ctx context.Context, name string) (*proof.Collection, error) {
	var out proof.Collection
	if err := c.do(ctx, http.MethodPost, "/collections", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pageproof %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method":  method,
			"path":    path,
			"status":  resp.StatusCode,
			"elapsed": time.Since(start).String(),
		}).Debug("pageproof api call")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Bounded read so a misbehaving API can't balloon error messages.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pageproof %s %s: status %d: %s", method, path, resp.StatusCode, string(snippet))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pageproof %s %s: decode response: %w", method, path, err)
	}
	return nil
}

var _ ports.ProofPlatform = (*Client)(nil)
