package session

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hugo-lorenzo-mato/docent/internal/core"
)

// gatedGateway wraps a gateway with the run's admission gate and
// per-call timeout. The gate is global across all section tasks, so
// Concurrency caps in-flight gateway calls for the whole run. The slot
// is released on every exit path.
type gatedGateway struct {
	inner   core.Gateway
	gate    *semaphore.Weighted
	timeout time.Duration
}

func newGatedGateway(inner core.Gateway, gate *semaphore.Weighted, timeout time.Duration) *gatedGateway {
	return &gatedGateway{
		inner:   inner,
		gate:    gate,
		timeout: timeout,
	}
}

// Invoke acquires an admission slot, applies the call timeout and
// delegates. Timeouts surface as the domain timeout error.
func (g *gatedGateway) Invoke(ctx context.Context, role core.Role, prompt string, history []core.Exchange) (string, error) {
	if err := g.gate.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer g.gate.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.inner.Invoke(callCtx, role, prompt, history)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", core.ErrTimeout("gateway call exceeded timeout").WithCause(err)
		}
		return "", err
	}
	return reply, nil
}
