// Package tooltip watches the add-on's status text to confirm that a
// selection took effect.
package tooltip

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/okian/gatedirector/internal/adapters/textfile"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

// Verdict of a confirmation. There is no failure verdict: a missing
// confirmation only lowers confidence.
type Verdict string

const (
	Success   Verdict = "success"
	Uncertain Verdict = "uncertain"
)

// Confirmer polls the tooltip files for new content containing a success
// phrase.
type Confirmer struct {
	paths   []string
	phrases []string
	fold    cases.Caser
	logger  logger.Logger
}

// Option configures a Confirmer.
type Option func(*Confirmer)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Confirmer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConfirmer watches paths for any of keyphrases, compared case-insensitively.
func NewConfirmer(paths, keyphrases []string, opts ...Option) *Confirmer {
	c := &Confirmer{
		paths:  paths,
		fold:   cases.Fold(),
		logger: logger.Nop(),
	}
	for _, p := range keyphrases {
		if p = strings.TrimSpace(p); p != "" {
			c.phrases = append(c.phrases, c.fold.String(p))
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Baseline returns the latest modification time across the tooltip files,
// or the zero time when none exists. Take it before issuing the selection.
func (c *Confirmer) Baseline() time.Time {
	t, _ := textfile.LatestModTime(c.paths)
	return t
}

// Confirm polls every interval until a file written after baseline contains
// a success phrase, or timeout elapses. The error is non-nil only when ctx
// ends first.
func (c *Confirmer) Confirm(ctx context.Context, baseline time.Time, timeout, interval time.Duration) (Verdict, error) {
	if len(c.paths) == 0 || len(c.phrases) == 0 {
		metrics.RecordConfirmation(string(Uncertain))
		return Uncertain, nil
	}
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}

	deadline := time.Now().Add(timeout)
	for {
		if c.check(ctx, baseline) {
			metrics.RecordConfirmation(string(Success))
			return Success, nil
		}
		if !time.Now().Before(deadline) {
			break
		}
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return Uncertain, ctx.Err()
		case <-t.C:
		}
	}
	c.logger.Debug(ctx, "tooltip did not confirm", logger.Duration("timeout", timeout))
	metrics.RecordConfirmation(string(Uncertain))
	return Uncertain, nil
}

// check reads every tooltip file written after baseline, newest first.
func (c *Confirmer) check(ctx context.Context, baseline time.Time) bool {
	for _, path := range textfile.ChangedSince(c.paths, baseline) {
		content, err := textfile.Read(path)
		if err != nil {
			c.logger.Debug(ctx, "tooltip unreadable", logger.String("path", path), logger.Error(err))
			continue
		}
		content = c.fold.String(content)
		for _, p := range c.phrases {
			if strings.Contains(content, p) {
				c.logger.Debug(ctx, "tooltip confirmed", logger.String("path", path), logger.String("phrase", p))
				return true
			}
		}
	}
	return false
}
