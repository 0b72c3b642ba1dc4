// internal/device/session.go
package device

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tamzrod/recipe-sync/internal/capacity"
	"github.com/tamzrod/recipe-sync/internal/codec"
	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
	"github.com/tamzrod/recipe-sync/internal/fault"
	"github.com/tamzrod/recipe-sync/internal/recipe"
)

// Session runs the recipe protocol against one controller.
// Every operation opens its own connection and always closes it.
// Settings are immutable for the session's lifetime.
type Session struct {
	settings config.Settings
	dial     Dialer
	codec    *codec.Codec
	log      *log.Logger

	// sleep waits d or returns early with ctx's error.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSession creates a session. A nil logger discards output.
func NewSession(s config.Settings, dial Dialer, c *codec.Codec, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		settings: s,
		dial:     dial,
		codec:    c,
		log:      logger,
		sleep:    sleepCtx,
	}
}

// Settings returns the session's settings.
func (s *Session) Settings() config.Settings { return s.settings }

// CheckConnection opens, reads one register at the control base address and closes.
// Any fault is returned.
func (s *Session) CheckConnection(ctx context.Context) error {
	cli, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer s.closeClient(cli)

	if _, err := cli.ReadHoldingRegisters(s.settings.Control, 1); err != nil {
		return transportErr(err, "probe control addr=%d", s.settings.Control)
	}
	return nil
}

// Upload writes steps to the controller.
// No register data is written unless the controller grants write permission.
func (s *Session) Upload(ctx context.Context, steps []recipe.Step) error {
	cli, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer s.closeClient(cli)

	// ---- handshake ----
	if err := s.acquireWrite(ctx, cli); err != nil {
		return err
	}

	// ---- encode + area check ----
	regs, err := s.codec.Encode(steps)
	if err != nil {
		return err
	}

	areas := []struct {
		name string
		area config.Area
		data []uint16
	}{
		{"int", s.settings.Int, regs.Ints},
		{"float", s.settings.Float, regs.Floats},
		{"bool", s.settings.Bool, regs.Bools},
	}
	for _, a := range areas {
		if err := capacity.Fits(a.name, len(a.data), a.area.Size); err != nil {
			return err
		}
	}

	// ---- data areas: int, float, bool ----
	for _, a := range areas {
		if len(a.data) == 0 {
			continue
		}
		if err := writeChunked(ctx, cli, a.name, a.area.Address, a.data); err != nil {
			return err
		}
	}

	// ---- finalize: row count, then release ----
	ctrl := s.settings.Control
	if err := cli.WriteRegister(ctrl+control.SlotRowCount, uint16(len(steps))); err != nil {
		return transportErr(err, "write row count")
	}
	if err := cli.WriteRegister(ctrl+control.SlotCommand, control.CommandNotActive); err != nil {
		return transportErr(err, "write command not-active")
	}

	s.log.Printf("device: upload complete (endpoint=%s rows=%d int=%d float=%d bool=%d)",
		s.settings.Endpoint(), len(steps), len(regs.Ints), len(regs.Floats), len(regs.Bools))
	return nil
}

// Download reads the recipe currently stored in the controller.
func (s *Session) Download(ctx context.Context) ([]recipe.Step, error) {
	cli, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer s.closeClient(cli)

	regs, err := cli.ReadHoldingRegisters(s.settings.Control, control.BlockWords)
	if err != nil {
		return nil, transportErr(err, "read control block")
	}
	blk := control.Decode(regs)

	if !blk.ReadyForDownload() {
		return nil, fault.New(
			fault.ControllerNotReady,
			"controller not ready for download (state=%s)",
			control.StateName(blk.State),
		)
	}

	rows := int(blk.RowCount)
	if rows == 0 {
		return []recipe.Step{}, nil
	}
	if err := capacity.Check(rows, s.settings); err != nil {
		return nil, fmt.Errorf("device: controller reports %d rows: %w", rows, err)
	}

	fp := capacity.FootprintOf(rows)

	ints, err := readChunked(ctx, cli, "int", s.settings.Int.Address, fp.Int)
	if err != nil {
		return nil, err
	}
	floats, err := readChunked(ctx, cli, "float", s.settings.Float.Address, fp.Float)
	if err != nil {
		return nil, err
	}
	if fp.Bool > 0 {
		// no bool columns are decoded yet
		if _, err := readChunked(ctx, cli, "bool", s.settings.Bool.Address, fp.Bool); err != nil {
			return nil, err
		}
	}

	steps, err := s.codec.Decode(ints, floats, rows)
	if err != nil {
		return nil, err
	}

	s.log.Printf("device: download complete (endpoint=%s rows=%d)", s.settings.Endpoint(), rows)
	return steps, nil
}

// acquireWrite performs the write-permission handshake:
// write Request, then poll state with growing delays until WritingAllowed.
func (s *Session) acquireWrite(ctx context.Context, cli Client) error {
	ctrl := s.settings.Control
	h := s.settings.Handshake

	if err := cli.WriteRegister(ctrl+control.SlotCommand, control.CommandRequest); err != nil {
		return transportErr(err, "write command request")
	}

	last := uint16(0)
	for attempt := 1; attempt <= h.Attempts; attempt++ {
		if err := s.sleep(ctx, h.Step*time.Duration(attempt)); err != nil {
			return err
		}

		regs, err := cli.ReadHoldingRegisters(ctrl+control.SlotState, 1)
		if err != nil {
			return transportErr(err, "poll state attempt=%d", attempt)
		}
		last = control.Decode(regs).State

		if last == control.StateWritingAllowed {
			// clear stale row count
			if err := cli.WriteRegister(ctrl+control.SlotRowCount, 0); err != nil {
				return transportErr(err, "clear row count")
			}
			s.log.Printf("device: write permission granted (endpoint=%s attempt=%d)", s.settings.Endpoint(), attempt)
			return nil
		}

		if attempt < h.Attempts {
			if err := s.sleep(ctx, h.Gap); err != nil {
				return err
			}
		}
	}

	return fault.New(
		fault.WritePermissionDenied,
		"write permission not granted after %d polls (last state=%s)",
		h.Attempts, control.StateName(last),
	)
}

func (s *Session) open(ctx context.Context) (Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cli, err := s.dial(ctx, s.settings)
	if err != nil {
		return nil, transportErr(err, "connect %s", s.settings.Endpoint())
	}
	return cli, nil
}

func (s *Session) closeClient(cli Client) {
	if err := cli.Close(); err != nil {
		s.log.Printf("device: close failed (endpoint=%s): %v", s.settings.Endpoint(), err)
	}
}

// transportErr keeps an existing classification and marks everything else
// as a transport failure.
func transportErr(err error, format string, args ...interface{}) error {
	if k := fault.KindOf(err); k != fault.Internal {
		return fmt.Errorf("device: "+format+": %w", append(args, err)...)
	}
	return fault.Wrap(fault.ConnectionFailed, err, "device: "+format, args...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
