// Package backend implements the HTTP client for the external commerce REST
// API. It adapts the backend's wire contract onto the domain gateway
// interfaces; all outcome classification stays in the domain layer.
package backend

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

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/groveshop/storefront-gateway/internal/domain/account"
	"github.com/groveshop/storefront-gateway/internal/domain/catalog"
	"github.com/groveshop/storefront-gateway/internal/domain/checkout"
	"github.com/groveshop/storefront-gateway/internal/domain/orders"
)

// Compile-time checks ensuring Client satisfies every domain gateway.
var (
	_ checkout.Gateway = (*Client)(nil)
	_ catalog.Source   = (*Client)(nil)
	_ account.Gateway  = (*Client)(nil)
	_ orders.Source    = (*Client)(nil)
)

// maxBodySize caps response bodies read from the backend.
const maxBodySize = 1 << 20

// Config holds the backend client configuration.
type Config struct {
	// BaseURL is the backend's root URL, e.g. https://api.example.com.
	BaseURL string
	// HTTPClient performs the requests. When nil, a default client with a
	// 10 second timeout is used.
	HTTPClient *http.Client
}

// Client is a thin HTTP client over the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the backend at cfg.BaseURL.
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    hc,
	}
}

// UpstreamError is a backend response that maps to no domain sentinel. The
// HTTP layer folds it into a generic failure message.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Message)
}

// do performs one request and returns the status, headers, and the full
// (size-capped) body. An error is returned only for transport-level
// problems; every HTTP response comes back for the caller to interpret.
func (c *Client) do(ctx context.Context, method, path, token string, payload any) (int, http.Header, []byte, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, nil, errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "read response")
	}
	return resp.StatusCode, resp.Header, data, nil
}

// errorBody is the backend's error envelope: {error?, message?, retryAfter?}.
type errorBody struct {
	Err        string
	Message    string
	RetryAfter int
}

// userMessage returns the best user-facing text from the envelope.
func (e errorBody) userMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

// parseErrorBody decodes an error envelope tolerantly: unknown fields are
// skipped and malformed bodies yield whatever was parsed before the error.
func parseErrorBody(data []byte) errorBody {
	var eb errorBody
	if len(data) == 0 {
		return eb
	}

	d := jx.DecodeBytes(data)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "error":
			v, err := d.Str()
			if err != nil {
				return err
			}
			eb.Err = v
		case "message":
			v, err := d.Str()
			if err != nil {
				return err
			}
			eb.Message = v
		case "retryAfter":
			if d.Next() != jx.Number {
				return d.Skip()
			}
			v, err := d.Int()
			if err != nil {
				return err
			}
			eb.RetryAfter = v
		default:
			return d.Skip()
		}
		return nil
	})
	return eb
}

// retryAfterFromHeader parses a Retry-After header given in seconds.
// Returns 0 when the header is absent or not a plain integer.
func retryAfterFromHeader(h http.Header) int {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
