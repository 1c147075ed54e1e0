// Package client is a minimal HTTP client for the greeting service.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// maxBody caps how much of a response is read; the greeting is a few bytes.
const maxBody = 4 << 10

// Client talks to a running greeting service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client. If httpClient is nil, http.DefaultClient is used.
func NewClient(httpClient *http.Client) *Client {
	c := &Client{http: httpClient}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	return c
}

// WithURL sets the base URL (e.g. "http://localhost:8000").
func (c *Client) WithURL(baseURL string) *Client {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
	return c
}

// Greeting fetches GET / and returns its body.
func (c *Client) Greeting(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read greeting: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode}
	}
	return string(body), nil
}

// StatusError reports a non-200 answer.
type StatusError struct{ Code int }

func (e *StatusError) Error() string {
	return "greeting: unexpected status " + strconv.Itoa(e.Code)
}
