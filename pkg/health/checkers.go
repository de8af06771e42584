package health

import (
	"context"
	"runtime"
	"time"

	"github.com/go-faster/errors"
)

// Pinger is satisfied by anything with a context-aware Ping, notably
// pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck returns a CheckFunc that pings the given dependency.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ping(ctx)
	}
}

// GoroutineCountCheck returns a CheckFunc that reports unhealthy when the
// goroutine count exceeds threshold. Useful as a liveness check to catch
// goroutine leaks.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(_ context.Context) error {
		if count := runtime.NumGoroutine(); count > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", count, threshold)
		}
		return nil
	}
}

// UptimeGate returns a CheckFunc that fails until the process has been up for
// at least warmup. Registering it as a readiness check keeps a freshly
// restarted instance out of rotation while caches fill.
func UptimeGate(warmup time.Duration) CheckFunc {
	start := time.Now()
	return func(_ context.Context) error {
		if up := time.Since(start); up < warmup {
			return errors.Errorf("warming up: %s of %s", up.Round(time.Millisecond), warmup)
		}
		return nil
	}
}
