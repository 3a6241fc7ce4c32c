// Package erp is a thin JSON-RPC 2.0 client for the external ERP. Two remote
// methods are consumed: authenticate and execute_kw (used for read on the
// product catalog). Per the ERP's convention, a response body containing an
// "error" key is a failure regardless of HTTP status.
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const rpcPath = "/jsonrpc"

// maxIDsPerRead bounds how many catalog ids go into one execute_kw call.
// This respects the ERP's request-size limits; it is not a parallelism knob.
const maxIDsPerRead = 80

type Config struct {
	URL      string `validate:"required,url"`
	Database string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required"`
	Timeout  time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	uid  int
}

// New builds a client from an explicit Config; credentials are injected by
// the caller, never read from package state.
func New(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("erp config invalid: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

type rpcRequest struct {
	Jsonrpc string    `json:"jsonrpc"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
	ID      string    `json:"id"`
}

type rpcParams struct {
	Service string `json:"service"`
	Method  string `json:"method"`
	Args    []any  `json:"args"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func (c *Client) call(ctx context.Context, service string, method string, args []any) (json.RawMessage, error) {
	payload := rpcRequest{
		Jsonrpc: "2.0",
		Method:  "call",
		Params: rpcParams{
			Service: service,
			Method:  method,
			Args:    args,
		},
		ID: uuid.NewString(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(c.cfg.URL, "/") + rpcPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("erp rpc http %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed rpcResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		return nil, fmt.Errorf("erp rpc error calling %s.%s: %s", service, method, string(parsed.Error))
	}
	return parsed.Result, nil
}

// Authenticate resolves the numeric session/user id for the configured
// credentials and remembers it for subsequent execute_kw calls.
func (c *Client) Authenticate(ctx context.Context) (int, error) {
	result, err := c.call(ctx, "common", "authenticate", []any{
		c.cfg.Database, c.cfg.Username, c.cfg.Password, map[string]any{},
	})
	if err != nil {
		return 0, err
	}

	var uid int
	if err := json.Unmarshal(result, &uid); err != nil || uid == 0 {
		// The ERP answers `false` for bad credentials instead of an error object.
		return 0, errors.New("erp authentication failed: no user id returned")
	}
	c.uid = uid
	return uid, nil
}

// ExecuteKw invokes a generic remote method on an ERP model, authenticating
// lazily on first use.
func (c *Client) ExecuteKw(ctx context.Context, model string, method string, args []any, kwargs map[string]any) (json.RawMessage, error) {
	if c.uid == 0 {
		if _, err := c.Authenticate(ctx); err != nil {
			return nil, err
		}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return c.call(ctx, "object", "execute_kw", []any{
		c.cfg.Database, c.uid, c.cfg.Password, model, method, args, kwargs,
	})
}
