// Package client is the typed collaborator the presentation shell uses to
// talk to the proxy: authenticate once, execute queries with the bearer
// token, and transparently re-authenticate a single time when the token
// has expired.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

// Client talks to a running query proxy.
type Client struct {
	baseURL  string
	username string
	password string
	http     *http.Client

	mu    sync.Mutex
	token string
}

// New creates a Client for the proxy at baseURL.
func New(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorType string `json:"error_type"`
}

// Authenticate obtains a fresh bearer token.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("authentication request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authentication failed: %s", readError(resp))
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	c.mu.Lock()
	c.token = body.AccessToken
	c.mu.Unlock()
	return nil
}

// ExecuteQuery runs a statement through the proxy. A 401 response triggers
// exactly one re-authentication followed by one retry.
func (c *Client) ExecuteQuery(ctx context.Context, query string, params map[string]any) (*domain.QueryResult, error) {
	if c.currentToken() == "" {
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}

	result, status, err := c.postQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		// Token likely expired; re-authenticate once and retry.
		if err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
		result, status, err = c.postQuery(ctx, query, params)
		if err != nil {
			return nil, err
		}
	}
	if status != http.StatusOK {
		return nil, result.err
	}
	return result.ok, nil
}

type queryOutcome struct {
	ok  *domain.QueryResult
	err error
}

func (c *Client) postQuery(ctx context.Context, query string, params map[string]any) (queryOutcome, int, error) {
	payload, err := json.Marshal(domain.QueryRequest{Query: query, Params: params})
	if err != nil {
		return queryOutcome{}, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/query",
		bytes.NewReader(payload))
	if err != nil {
		return queryOutcome{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.currentToken())

	resp, err := c.http.Do(req)
	if err != nil {
		return queryOutcome{}, 0, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		kind := domain.ErrorKind(body.ErrorType)
		if kind == "" {
			kind = domain.KindUnknown
		}
		outcome := queryOutcome{err: &domain.ExecutionError{
			Kind:      kind,
			Message:   body.Detail,
			Timestamp: time.Now(),
			Attempts:  1,
		}}
		return outcome, resp.StatusCode, nil
	}

	var result domain.QueryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return queryOutcome{}, 0, fmt.Errorf("failed to decode query result: %w", err)
	}
	return queryOutcome{ok: &result}, resp.StatusCode, nil
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func readError(resp *http.Response) string {
	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Detail == "" {
		return resp.Status
	}
	return body.Detail
}
