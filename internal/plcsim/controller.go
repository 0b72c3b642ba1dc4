// internal/plcsim/controller.go
package plcsim

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/control"
	"github.com/tamzrod/recipe-sync/internal/device"
)

// AddressSpace is the number of holding registers the controller exposes.
const AddressSpace = 1 << 16

// ErrIllegalAddress is returned for requests that leave the address space.
var ErrIllegalAddress = errors.New("plcsim: illegal data address")

// Controller is a simulated PLC: a flat holding register memory plus the
// control block state machine at a fixed base address.
//
// State transitions, driven by writes to the command slot only:
//
//	Request    while Idle|WritingBlocked -> WritingAllowed (unless writes are denied)
//	NotActive  while WritingAllowed      -> Idle
type Controller struct {
	mu      sync.Mutex
	regs    []uint16
	control uint16
	deny    bool
	log     *log.Logger
}

// NewController creates a controller in the Idle state with an empty recipe.
// The control block must fit the address space.
// A nil logger discards output.
func NewController(controlAddr uint16, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	c := &Controller{
		regs:    make([]uint16, AddressSpace),
		control: controlAddr,
		log:     logger,
	}
	c.regs[int(controlAddr)+control.SlotState] = control.StateIdle
	c.regs[int(controlAddr)+control.SlotCommand] = control.CommandNotActive
	return c
}

// SetDenyWrites makes the controller ignore write requests.
func (c *Controller) SetDenyWrites(deny bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deny = deny
}

// SetState forces the controller state, e.g. to simulate a running recipe.
func (c *Controller) SetState(state uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.regs[int(c.control)+control.SlotState] = state
}

// Block returns the current control block.
func (c *Controller) Block() control.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	base := int(c.control)
	return control.Decode(c.regs[base : base+control.BlockWords])
}

// Poke writes registers without running the state machine.
func (c *Controller) Poke(addr uint16, vals ...uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(addr)+len(vals) > AddressSpace {
		return ErrIllegalAddress
	}
	copy(c.regs[addr:], vals)
	return nil
}

// Read returns qty registers starting at addr.
func (c *Controller) Read(addr, qty uint16) ([]uint16, error) {
	if int(addr)+int(qty) > AddressSpace {
		return nil, ErrIllegalAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]uint16, qty)
	copy(out, c.regs[addr:int(addr)+int(qty)])
	return out, nil
}

// Write stores vals starting at addr and applies command transitions.
func (c *Controller) Write(addr uint16, vals []uint16) error {
	if int(addr)+len(vals) > AddressSpace {
		return ErrIllegalAddress
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.regs[addr:], vals)

	cmd := int(c.control) + control.SlotCommand
	if off := cmd - int(addr); off >= 0 && off < len(vals) {
		c.command(vals[off])
	}
	return nil
}

// command runs with mu held.
func (c *Controller) command(v uint16) {
	state := &c.regs[int(c.control)+control.SlotState]

	switch v {
	case control.CommandRequest:
		if c.deny {
			c.log.Printf("plcsim: write request ignored (state=%s)", control.StateName(*state))
			return
		}
		if *state == control.StateIdle || *state == control.StateWritingBlocked {
			*state = control.StateWritingAllowed
			c.log.Printf("plcsim: write permission granted")
		}

	case control.CommandNotActive:
		if *state == control.StateWritingAllowed {
			*state = control.StateIdle
			rows := c.regs[int(c.control)+control.SlotRowCount]
			c.log.Printf("plcsim: recipe committed (rows=%d)", rows)
		}
	}
}

// ---- in-memory device.Client ----

// Dialer returns a device.Dialer that connects straight to the controller's memory.
func (c *Controller) Dialer() device.Dialer {
	return func(ctx context.Context, _ config.Settings) (device.Client, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return &localClient{ctrl: c}, nil
	}
}

type localClient struct {
	ctrl   *Controller
	closed bool
}

var errClosed = errors.New("plcsim: client closed")

func (l *localClient) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if l.closed {
		return nil, errClosed
	}
	return l.ctrl.Read(addr, qty)
}

func (l *localClient) WriteRegisters(addr uint16, regs []uint16) error {
	if l.closed {
		return errClosed
	}
	return l.ctrl.Write(addr, regs)
}

func (l *localClient) WriteRegister(addr, value uint16) error {
	if l.closed {
		return errClosed
	}
	return l.ctrl.Write(addr, []uint16{value})
}

func (l *localClient) Close() error {
	l.closed = true
	return nil
}
