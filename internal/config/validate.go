// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

// ControlBlockWords is the size of the control block (state, command, row count).
const ControlBlockWords = 3

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	// ------------------------------------------------------------
	// CONTROLLER ENDPOINT
	// ------------------------------------------------------------

	c := cfg.Controller
	switch strings.ToLower(c.Transport) {
	case "", TransportTCP:
		if c.Host == "" {
			return errors.New("config: controller.host is required for tcp")
		}
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("config: controller.port %d out of range", c.Port)
		}
	case TransportRTU:
		if c.Serial.Device == "" {
			return errors.New("config: controller.serial.device is required for rtu")
		}
		switch strings.ToUpper(c.Serial.Parity) {
		case "", "N", "E", "O":
		default:
			return fmt.Errorf("config: controller.serial.parity %q must be N, E or O", c.Serial.Parity)
		}
	default:
		return fmt.Errorf("config: unsupported controller.transport %q", c.Transport)
	}

	if c.TimeoutMs < 0 {
		return errors.New("config: controller.timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// AREA GEOMETRY VALIDATION
	// ------------------------------------------------------------

	type span struct {
		name  string
		start int
		end   int // inclusive
	}

	a := cfg.Areas
	if a.Int.Size <= 0 {
		return errors.New("config: areas.int.size must be > 0")
	}
	if a.Float.Size <= 0 {
		return errors.New("config: areas.float.size must be > 0")
	}
	if a.Bool.Size < 0 {
		return errors.New("config: areas.bool.size must be >= 0")
	}

	spans := []span{
		{"control", int(a.Control.Address), int(a.Control.Address) + ControlBlockWords - 1},
		{"int", int(a.Int.Address), int(a.Int.Address) + a.Int.Size - 1},
		{"float", int(a.Float.Address), int(a.Float.Address) + a.Float.Size - 1},
	}
	if a.Bool.Size > 0 {
		spans = append(spans, span{"bool", int(a.Bool.Address), int(a.Bool.Address) + a.Bool.Size - 1})
	}

	for i, s := range spans {
		if s.end > 0xFFFF {
			return fmt.Errorf(
				"config: area %s range=%d-%d exceeds the 16-bit register space",
				s.name, s.start, s.end,
			)
		}
		for _, o := range spans[:i] {
			// overlap check (inclusive)
			if !(s.end < o.start || s.start > o.end) {
				return fmt.Errorf(
					"config: area overlap: %s range=%d-%d overlaps with %s range=%d-%d",
					s.name, s.start, s.end, o.name, o.start, o.end,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	if cfg.Handshake.Attempts < 0 || cfg.Handshake.StepMs < 0 || cfg.Handshake.GapMs < 0 {
		return errors.New("config: handshake values must be >= 0")
	}
	if cfg.Verify.SettleMs < 0 {
		return errors.New("config: verify.settle_ms must be >= 0")
	}
	if cfg.ProbeRetry.Attempts < 0 || cfg.ProbeRetry.InitialBackoffMs < 0 {
		return errors.New("config: probe_retry values must be >= 0")
	}

	return nil
}
