// internal/device/modbus/client.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/recipe-sync/internal/config"
	"github.com/tamzrod/recipe-sync/internal/device"
	"github.com/tamzrod/recipe-sync/internal/fault"
)

// handler is what both goburrow client handlers have in common.
type handler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// Client implements device.Client over goburrow/modbus.
// This adapter is geometry-only: it packs requests and unpacks raw responses.
type Client struct {
	mu      sync.Mutex
	handler handler
	client  modbus.Client
}

// Dialer returns a device.Dialer that opens TCP or RTU connections.
// When trace is enabled in settings, frames are logged to logger.
func Dialer(logger *log.Logger) device.Dialer {
	return func(ctx context.Context, s config.Settings) (device.Client, error) {
		return Dial(ctx, s, logger)
	}
}

// Dial opens one connection. ONE attempt per call.
func Dial(ctx context.Context, s config.Settings, logger *log.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h, err := newHandler(s)
	if err != nil {
		return nil, err
	}
	if s.Trace && logger != nil {
		setLogger(h, logger)
	}

	if err := h.Connect(); err != nil {
		return nil, fault.Wrap(fault.ConnectionFailed, err, "modbus: connect %s", s.Endpoint())
	}

	if err := ctx.Err(); err != nil {
		_ = h.Close()
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

func newHandler(s config.Settings) (handler, error) {
	switch s.Transport {
	case config.TransportTCP, "":
		if s.Host == "" {
			return nil, errors.New("modbus: host required")
		}
		h := modbus.NewTCPClientHandler(s.Endpoint())
		h.Timeout = s.Timeout
		h.SlaveId = s.UnitID
		return h, nil

	case config.TransportRTU:
		if s.Serial.Device == "" {
			return nil, errors.New("modbus: serial device required")
		}
		h := modbus.NewRTUClientHandler(s.Serial.Device)
		h.BaudRate = s.Serial.BaudRate
		h.DataBits = s.Serial.DataBits
		h.StopBits = s.Serial.StopBits
		h.Parity = s.Serial.Parity
		h.Timeout = s.Timeout
		h.SlaveId = s.UnitID
		return h, nil

	default:
		return nil, fmt.Errorf("modbus: unsupported transport %q", s.Transport)
	}
}

func setLogger(h handler, logger *log.Logger) {
	switch v := h.(type) {
	case *modbus.TCPClientHandler:
		v.Logger = logger
	case *modbus.RTUClientHandler:
		v.Logger = logger
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ---- device.Client interface ----

func (c *Client) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, classify(err, "read holding addr=%d qty=%d", addr, qty)
	}
	return unpackRegisters(b), nil
}

func (c *Client) WriteRegisters(addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	qty := uint16(len(regs))
	payload := packRegisters(regs)

	if _, err := c.client.WriteMultipleRegisters(addr, qty, payload); err != nil {
		return classify(err, "write multiple addr=%d qty=%d", addr, qty)
	}
	return nil
}

func (c *Client) WriteRegister(addr, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.client.WriteSingleRegister(addr, value); err != nil {
		return classify(err, "write single addr=%d", addr)
	}
	return nil
}

// classify maps exception responses to DeviceException and the rest to ConnectionFailed.
func classify(err error, format string, args ...interface{}) error {
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return fault.Wrap(fault.DeviceException, err, "modbus: "+format, args...)
	}
	return fault.Wrap(fault.ConnectionFailed, err, "modbus: "+format, args...)
}

// ---- packing ----

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return out
}
