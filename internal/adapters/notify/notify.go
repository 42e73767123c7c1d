// Package notify tells the ATC service which position was actually chosen
// when the match was not confident, so its own assignment can follow.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// DefaultURL is the assignment endpoint.
const DefaultURL = "https://apipri.sayintentions.ai/sapi/assignGate"

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("notification disabled")

// Notifier sends assignGate calls.
type Notifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   logger.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		if c != nil {
			n.client = c
		}
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

// New returns a notifier for endpoint. An empty endpoint uses DefaultURL; an
// empty key disables notification.
func New(endpoint, apiKey string, opts ...Option) *Notifier {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	n := &Notifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Enabled reports whether an API key is set.
func (n *Notifier) Enabled() bool { return n != nil && n.apiKey != "" }

// Notify reports position as the gate in use at airport. The outcome never
// affects the assignment; callers log the error and move on.
func (n *Notifier) Notify(ctx context.Context, position, airport string) error {
	if !n.Enabled() {
		return ErrDisabled
	}
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return fmt.Errorf("notify endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", n.apiKey)
	q.Set("gate", position)
	q.Set("airport", airport)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("notify request: %w", err)
	}
	resp, err := n.client.Do(req)
	if err != nil {
		metrics.RecordNotification("error")
		return fmt.Errorf("notify: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		metrics.RecordNotification("rejected")
		return fmt.Errorf("notify: unexpected status %d", resp.StatusCode)
	}
	metrics.RecordNotification("ok")
	n.logger.Info(ctx, "requested matching gate", logger.String("gate", position), logger.String("airport", airport))
	return nil
}
