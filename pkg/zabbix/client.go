// Package zabbix is a small JSON-RPC client for the Zabbix API.
package zabbix

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adam-huganir/zbx-template-import/pkg/rules"
	json "github.com/goccy/go-json"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

const (
	jsonRPCVersion = "2.0"
	contentType    = "application/json-rpc"
	errorBodyLimit = 4 << 10
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error"`
	ID      int             `json:"id"`
}

// Client talks to one Zabbix API endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zerolog.Logger
	auth       string
	ownsToken  bool
	nextID     int
}

// Option configures a Client.
type Option func(*Client)

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		transport, ok := c.httpClient.Transport.(*http.Transport)
		if !ok {
			return
		}
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = skip
	}
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger on the Client.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client for endpoint, the full URL of api_jsonrpc.php.
func New(endpoint string, opts ...Option) *Client {
	nop := zerolog.Nop()
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Transport: cleanhttp.DefaultTransport()},
		logger:     &nop,
		nextID:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// LoginWithToken uses an API token for every following call. No request is made.
func (c *Client) LoginWithToken(token string) {
	c.auth = token
	c.ownsToken = false
}

// Login opens a session with user.login.
func (c *Client) Login(ctx context.Context, username, password string) error {
	params := map[string]string{"username": username, "password": password}
	var session string
	if err := c.call(ctx, "user.login", params, false, &session); err != nil {
		return fmt.Errorf("login as %s failed: %w", username, err)
	}
	c.auth = session
	c.ownsToken = true
	c.logger.Debug().Msgf("logged in as %s", username)
	return nil
}

// Logout closes a session opened by Login. It does nothing for API tokens.
func (c *Client) Logout(ctx context.Context) error {
	if !c.ownsToken || c.auth == "" {
		return nil
	}
	if err := c.call(ctx, "user.logout", []any{}, true, nil); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	c.auth = ""
	c.ownsToken = false
	return nil
}

// Import submits a template with configuration.import and returns the raw result.
func (c *Client) Import(ctx context.Context, source string, rs rules.RuleSet) (json.RawMessage, error) {
	params := map[string]any{
		"format": "yaml",
		"source": source,
		"rules":  rs,
	}
	var result json.RawMessage
	if err := c.call(ctx, "configuration.import", params, true, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) call(ctx context.Context, method string, params any, authenticated bool, out any) error {
	if authenticated && c.auth == "" {
		return ErrNotLoggedIn
	}
	id := c.nextID
	c.nextID++

	body, err := json.Marshal(request{JSONRPC: jsonRPCVersion, Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", contentType)
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.auth)
	}

	c.logger.Trace().Str("method", method).Int("id", id).Msg("calling zabbix api")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		return &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(bytes.TrimSpace(snippet)),
		}
	}

	var rpcResp response
	if err = json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}
