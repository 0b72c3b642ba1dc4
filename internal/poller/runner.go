// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits a Snapshot on out for every tick.
// One goroutine per controller. No overlap. No retries.
// The connection is closed when ctx is done.
func (p *Poller) Run(ctx context.Context, out chan<- Snapshot) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()
	defer p.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := p.PollOnce(ctx)
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}
}
