package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// signalContext returns a context cancelled on SIGINT or SIGTERM and, when
// timeout is positive, after timeout.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
