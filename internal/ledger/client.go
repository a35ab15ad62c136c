// Package ledger is the HTTP client for the remote ledger service: login,
// category listing and entry submission.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/ledger-import/internal/types"
)

// HTTPDoer is the interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials are the login credentials for the ledger.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated ledger session.
type Session struct {
	Token string
}

// Category is one item of the category listing.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SubmittedEntry is the ledger's echo of a created entry. ID and Amount are
// nil when the response did not carry them as JSON integers.
type SubmittedEntry struct {
	ID     *int64
	Amount *int64
	Raw    map[string]json.RawMessage
}

// Client is the ledger API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a client for the ledger at baseURL (without /api).
// A zero timeout means the http.Client default of no timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

// Login authenticates and returns a session holding the bearer token.
func (c *Client) Login(ctx context.Context, creds Credentials) (Session, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/api/login", "", creds)
	if err != nil {
		return Session{}, &TransportError{Op: "login", Err: err}
	}
	if status < 200 || status >= 300 {
		return Session{}, &AuthenticationError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Session{}, &AuthenticationError{StatusCode: status, Body: fmt.Sprintf("undecodable login response: %v", err)}
	}
	if resp.Token == "" {
		return Session{}, &AuthenticationError{StatusCode: status, Body: "login response has no token"}
	}
	return Session{Token: resp.Token}, nil
}

// ListCategories fetches the full category listing.
func (c *Client) ListCategories(ctx context.Context, session Session) ([]Category, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/api/categories", session.Token, nil)
	if err != nil {
		return nil, &TransportError{Op: "list categories", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &TransportError{
			Op:         "list categories",
			StatusCode: status,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var categories []Category
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, &TransportError{Op: "list categories", StatusCode: status, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return categories, nil
}

// SubmitEntry creates one entry. Any failure is a *SubmissionRejection.
func (c *Client) SubmitEntry(ctx context.Context, session Session, entry types.NormalizedEntry) (*SubmittedEntry, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/api/entries", session.Token, entry)
	if err != nil {
		return nil, &SubmissionRejection{Reason: "request failed", Err: err}
	}
	if status < 200 || status >= 300 {
		return nil, &SubmissionRejection{
			Reason: fmt.Sprintf("status %d", status),
			Err:    fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	submitted, err := decodeSubmittedEntry(body)
	if err != nil {
		return nil, &SubmissionRejection{Reason: "invalid response", Err: err}
	}
	if submitted.Amount == nil {
		return nil, &SubmissionRejection{Reason: fmt.Sprintf("invalid API response: %s", strings.TrimSpace(string(body)))}
	}
	return submitted, nil
}

// decodeSubmittedEntry reads the echoed entry. amount and id count only when
// they are JSON integers; 12.5, "1250" or null leave the field nil.
func decodeSubmittedEntry(body []byte) (*SubmittedEntry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &SubmittedEntry{
		ID:     integerField(raw, "id"),
		Amount: integerField(raw, "amount"),
		Raw:    raw,
	}, nil
}

// integerField returns raw[key] when it is a JSON integer literal, nil
// otherwise.
func integerField(raw map[string]json.RawMessage, key string) *int64 {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	i, err := strconv.ParseInt(string(bytes.TrimSpace(v)), 10, 64)
	if err != nil {
		return nil
	}
	return &i
}

// do performs a JSON request and returns the status and body.
func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
