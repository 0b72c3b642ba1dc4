// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
	"github.com/tamzrod/recipe-sync/internal/device"
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Settings config.Settings
	Interval time.Duration
}

// Poller is a dumb, clock-driven reader of the control block.
// It never writes.
//
// The connection is reused while healthy. On transport failure the client
// is discarded and dial is tried again on a future tick.
type Poller struct {
	cfg    Config
	dial   device.Dialer
	client device.Client
	now    func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, dial device.Dialer) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if dial == nil {
		return nil, errors.New("poller: dialer required")
	}
	return &Poller{cfg: cfg, dial: dial, now: time.Now}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
func (p *Poller) PollOnce(ctx context.Context) Snapshot {
	snap := Snapshot{
		Endpoint: p.cfg.Settings.Endpoint(),
		At:       p.now(),
	}

	if p.client == nil {
		cli, err := p.dial(ctx, p.cfg.Settings)
		if err != nil {
			snap.Err = err
			return snap
		}
		p.client = cli
	}

	regs, err := p.client.ReadHoldingRegisters(p.cfg.Settings.Control, control.BlockWords)
	if err != nil {
		p.Close()
		snap.Err = err
		return snap
	}

	snap.Block = control.Decode(regs)
	return snap
}

// Close drops the current connection, if any.
func (p *Poller) Close() {
	if p.client == nil {
		return
	}
	_ = p.client.Close()
	p.client = nil
}
