package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// TokenSource supplies the bearer token for gateway calls and rotates it when
// the API answers 401. Refresh receives the token that was rejected.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context, rejected string) (string, error)
	Expire()
}

// Client talks JSON to the marketplace REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient builds a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway base URL %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: u, httpClient: &http.Client{Timeout: timeout}}, nil
}

// Request describes one API call. Path segments are escaped individually.
type Request struct {
	Method string
	Path   []string
	Query  url.Values
	Body   any
	Accept string
}

// Response bundles the HTTP response metadata.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

func (c *Client) endpoint(r Request) string {
	segments := make([]string, len(r.Path))
	for i, seg := range r.Path {
		segments[i] = url.PathEscape(seg)
	}
	u := c.baseURL.JoinPath(segments...)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	return u.String()
}

func (c *Client) build(ctx context.Context, r Request, token string) (*http.Request, error) {
	var bodyReader io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.endpoint(r), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	accept := r.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: body, Header: resp.Header.Clone()}, nil
}

// Do performs r with the token from tokens. A 401 triggers one refresh and one
// retry; if that fails the session is expired and ErrSessionExpired returned.
// Non-2xx responses come back as *APIError. tokens may be nil for
// unauthenticated calls such as login.
func (c *Client) Do(ctx context.Context, tokens TokenSource, r Request) (*Response, error) {
	if r.Method == "" {
		return nil, errors.New("request method is required")
	}
	if len(r.Path) == 0 {
		return nil, errors.New("request path is required")
	}

	var token string
	if tokens != nil {
		token = tokens.AccessToken()
	}

	req, err := c.build(ctx, r, token)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}

	if resp.Status == http.StatusUnauthorized && tokens != nil {
		// Token likely expired; refresh and retry once.
		token, err = tokens.Refresh(ctx, token)
		if err != nil {
			log.Printf("[Gateway] token refresh failed: %v", err)
			tokens.Expire()
			return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		if req, err = c.build(ctx, r, token); err != nil {
			return nil, err
		}
		if resp, err = c.send(req); err != nil {
			return nil, err
		}
		if resp.Status == http.StatusUnauthorized {
			log.Printf("[Gateway] %s %s still unauthorized after refresh", r.Method, req.URL.Path)
			tokens.Expire()
			return nil, ErrSessionExpired
		}
	}

	if resp.Status < 200 || resp.Status >= 300 {
		return resp, parseAPIError(resp.Status, resp.Body)
	}
	return resp, nil
}

// DoJSON performs r and decodes the response data into out when out is non-nil.
func (c *Client) DoJSON(ctx context.Context, tokens TokenSource, r Request, out any) error {
	resp, err := c.Do(ctx, tokens, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	return decodeData(resp.Body, out)
}

// decodeData unwraps {"data": ...} envelopes and falls back to the bare body.
func decodeData(body []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
