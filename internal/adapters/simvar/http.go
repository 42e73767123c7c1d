package simvar

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

	"github.com/okian/gatedirector/internal/domain/fault"
	"github.com/okian/gatedirector/pkg/logger"
)

const defaultTimeout = 2 * time.Second

// HTTPClient talks to a local SimConnect bridge exposing
//
//	GET  {base}/vars/{name}  -> {"value": 1}
//	PUT  {base}/vars/{name}  <- {"value": 1}
type HTTPClient struct {
	base   string
	http   *http.Client
	logger logger.Logger
}

var _ Client = (*HTTPClient)(nil)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.http = c
		}
	}
}

// WithTimeout sets the per-call timeout of the default http.Client.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPClient) {
		if d > 0 {
			h.http.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) HTTPOption {
	return func(h *HTTPClient) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHTTPClient returns a client for the bridge at base, e.g.
// "http://127.0.0.1:8765".
func NewHTTPClient(base string, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{Timeout: defaultTimeout},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type varBody struct {
	Value float64 `json:"value"`
}

func (h *HTTPClient) varURL(name string) string {
	return h.base + "/vars/" + url.PathEscape(name)
}

// Get implements Client.
func (h *HTTPClient) Get(ctx context.Context, name string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.varURL(name), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	var body varBody
	if err := h.do(req, name, &body); err != nil {
		return 0, err
	}
	return body.Value, nil
}

// Set implements Client.
func (h *HTTPClient) Set(ctx context.Context, name string, value float64) error {
	payload, err := json.Marshal(varBody{Value: value})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.varURL(name), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := h.do(req, name, nil); err != nil {
		return err
	}
	h.logger.Debug(ctx, "variable set", logger.String("name", name), logger.Float64("value", value))
	return nil
}

// OnGround implements Client.
func (h *HTTPClient) OnGround(ctx context.Context) (bool, error) {
	v, err := h.Get(ctx, VarOnGround)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func (h *HTTPClient) do(req *http.Request, name string, out any) error {
	resp, err := h.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s %s: %v", fault.ErrConnectionLost, req.Method, name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrUnknownVariable, name)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: bridge returned %d for %s", fault.ErrConnectionLost, resp.StatusCode, name)
	case resp.StatusCode >= http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("bridge rejected %s %s: %d %s", req.Method, name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
