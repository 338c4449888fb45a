package encode

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/nishad/encode-audit/internal/errors"
)

// Fetcher is the portal surface the report builder depends on.
type Fetcher interface {
	Matrix(ctx context.Context, path string) (*AggregationResult, error)
	Search(ctx context.Context, path string) (*RefinementResult, error)
	URL(path string) string
}

// Client fetches JSON from an ENCODE portal, one request at a time.
type Client struct {
	creds  Credentials
	client *http.Client
	logger *log.Logger
}

// NewClient creates a client for validated credentials.
// A zero timeout leaves requests unbounded.
func NewClient(creds Credentials, timeout time.Duration) *Client {
	return &Client{
		creds: creds,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: log.New(io.Discard, "", 0),
	}
}

// SetLogger sets the logger used for request tracing
func (c *Client) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// Server returns the portal base URL.
func (c *Client) Server() string {
	return c.creds.Server
}

// URL returns the absolute URL for a query path.
func (c *Client) URL(path string) string {
	return c.creds.Server + path
}

// Matrix fetches and decodes an aggregation query.
func (c *Client) Matrix(ctx context.Context, path string) (*AggregationResult, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	result, err := DecodeAggregation(body)
	if err != nil {
		return nil, errors.WrapMsg("encode.Matrix", path, err)
	}
	return result, nil
}

// Search fetches and decodes a refinement query.
func (c *Client) Search(ctx context.Context, path string) (*RefinementResult, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	result, err := DecodeRefinement(body)
	if err != nil {
		return nil, errors.WrapMsg("encode.Search", path, err)
	}
	return result, nil
}

// get performs one GET. The portal answers an empty search with 404 and a
// regular JSON body, so 404 bodies are returned for decoding.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	const op errors.Op = "encode.get"

	url := c.URL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.creds.Key != "" {
		req.SetBasicAuth(c.creds.Key, c.creds.Secret)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "GET "+url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.E(op, errors.KindNetwork, err, "failed to read response")
	}
	c.logger.Printf("GET %s -> %d (%d bytes, %s)", url, resp.StatusCode, len(body), time.Since(start).Round(time.Millisecond))

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Printf("No results found: %s", path)
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errors.Errorf(op, errors.KindAuth, "GET %s: %s", url, resp.Status)
	default:
		return nil, errors.Errorf(op, errors.KindNetwork, "GET %s: HTTP error: %s", url, resp.Status)
	}
}
