// internal/device/client.go
package device

import (
	"context"

	"github.com/tamzrod/recipe-sync/internal/config"
)

// Client abstracts the three register requests the session needs.
// The session depends on geometry only.
type Client interface {
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) // FC 3
	WriteRegisters(addr uint16, regs []uint16) error         // FC 16
	WriteRegister(addr, value uint16) error                  // FC 6
	Close() error
}

// Dialer opens one connection. ONE attempt per call.
type Dialer func(ctx context.Context, s config.Settings) (Client, error)
