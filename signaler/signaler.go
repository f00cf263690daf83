package signaler

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterrupt returns a channel which receives interrupt and termination
// signals
func WaitForInterrupt() chan os.Signal {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	return sigC
}

// CancelOnInterrupt returns a context which is cancelled on the first
// interrupt or termination signal
func CancelOnInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigC := WaitForInterrupt()
	go func() {
		defer signal.Stop(sigC)
		select {
		case <-sigC:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
