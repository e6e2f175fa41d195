// Package supabase is a minimal PostgREST client covering the one call the
// migration needs: upsert-by-id into a table.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// RequestError is a non-success response from the REST API, carrying the
// status code and response body for diagnosis.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("supabase: request failed with status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a Supabase project's PostgREST endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the project at baseURL. Missing configuration
// fails here, before any request is made.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if baseURL == "" || apiKey == "" {
		return nil, errors.New("supabase: url and api key must be configured")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Upsert inserts rows into table, merging into existing rows on id conflict
// so repeated calls with the same rows converge.
func (c *Client) Upsert(ctx context.Context, table string, rows any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "supabase: encoding rows")
	}

	u := fmt.Sprintf("%s/rest/v1/%s?on_conflict=%s", c.baseURL, url.PathEscape(table), url.QueryEscape("id"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "supabase: building request")
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "supabase: upsert into %s", table)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return &RequestError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	c.log.Debugw("upsert ok", "table", table, "status", resp.StatusCode)
	return nil
}
