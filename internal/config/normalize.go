// internal/config/normalize.go
package config

import "strings"

// Defaults applied by Normalize when a value is left unset.
const (
	DefaultPort            = 502
	DefaultUnitID          = 1
	DefaultTimeoutMs       = 1000
	DefaultBaudRate        = 19200
	DefaultDataBits        = 8
	DefaultStopBits        = 1
	DefaultParity          = "E"
	DefaultHandshakeTries  = 5
	DefaultHandshakeStepMs = 50
	DefaultHandshakeGapMs  = 50
	DefaultSettleMs        = 200
	DefaultRetryBackoffMs  = 200
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	c := &cfg.Controller
	c.Transport = strings.ToLower(c.Transport)
	if c.Transport == "" {
		c.Transport = TransportTCP
	}
	if c.Transport == TransportTCP && c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.UnitID == 0 {
		c.UnitID = DefaultUnitID
	}
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}

	if c.Transport == TransportRTU {
		s := &c.Serial
		if s.BaudRate == 0 {
			s.BaudRate = DefaultBaudRate
		}
		if s.DataBits == 0 {
			s.DataBits = DefaultDataBits
		}
		if s.StopBits == 0 {
			s.StopBits = DefaultStopBits
		}
		s.Parity = strings.ToUpper(s.Parity)
		if s.Parity == "" {
			s.Parity = DefaultParity
		}
	}

	h := &cfg.Handshake
	if h.Attempts == 0 {
		h.Attempts = DefaultHandshakeTries
	}
	if h.StepMs == 0 {
		h.StepMs = DefaultHandshakeStepMs
	}
	if h.GapMs == 0 {
		h.GapMs = DefaultHandshakeGapMs
	}

	if cfg.Verify.SettleMs == 0 {
		cfg.Verify.SettleMs = DefaultSettleMs
	}
	if cfg.ProbeRetry.InitialBackoffMs == 0 {
		cfg.ProbeRetry.InitialBackoffMs = DefaultRetryBackoffMs
	}
}
