package main

import (
	"context"
	"os/signal"
)

// notifyContext cancels the run on the first stop signal. The stage in
// flight (fetch, render or send) sees the cancellation through its context
// and the renderer still closes Chrome on the way out.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, stopSignals...)
}
