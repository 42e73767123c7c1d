package fault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindNone},
		{"cancel", fmt.Errorf("wait: %w", context.Canceled), KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"menu", fmt.Errorf("open: %w", ErrMenuNotFound), KindMenuNotFound},
		{"timeout", fmt.Errorf("next: %w", ErrNavigationTimeout), KindNavigationTimeout},
		{"layout", ErrLayoutChanged, KindLayoutChanged},
		{"airport", fmt.Errorf("verify: %w", ErrAirportMismatch), KindLayoutChanged},
		{"catalog", ErrCatalogUnavailable, KindCatalogUnavailable},
		{"nomatch", ErrNoMatch, KindNoMatch},
		{"connection", fmt.Errorf("set var: %w", ErrConnectionLost), KindConnectionLost},
		{"net", &net.OpError{Op: "dial", Err: errors.New("refused")}, KindConnectionLost},
		{"path", &os.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, KindIO},
		{"other", errors.New("odd"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Errorf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(ErrNavigationTimeout) {
		t.Error("navigation timeout should be retryable")
	}
	if !Retryable(ErrMenuNotFound) {
		t.Error("menu not found should be retryable")
	}
	if Retryable(ErrConnectionLost) {
		t.Error("connection lost must not be retried")
	}
	if Retryable(context.Canceled) {
		t.Error("cancellation must not be retried")
	}
}
