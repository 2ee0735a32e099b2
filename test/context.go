package test

import (
	"context"
	"testing"
	"time"

	"github.com/ridge/multisearch/tlog"
)

// Context returns a new testing context carrying a logger that writes to the
// test log.
//
// The context is closed when the test finishes.
func Context(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(tlog.WithLogger(context.Background(), tlog.NewForTesting(t)))
	t.Cleanup(cancel)
	return ctx
}

// ContextWithTimeout is a version of Context with a timeout.
//
// If the timeout expires, the test context is closed with
// context.DeadlineExceeded.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(Context(t), timeout)
	t.Cleanup(cancel)
	return ctx
}
