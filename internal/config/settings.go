// internal/config/settings.go
package config

import (
	"net"
	"strconv"
	"time"
)

// Area is one contiguous register block.
type Area struct {
	Address uint16
	Size    int // words
}

// Handshake is the write-permission poll timing.
type Handshake struct {
	Attempts int
	Step     time.Duration
	Gap      time.Duration
}

// Retry is the optional connectivity probe backoff policy.
type Retry struct {
	Attempts       int
	InitialBackoff time.Duration
}

// Settings is the communication settings of one operation.
// It is a plain value: built once per operation, never mutated mid-operation.
type Settings struct {
	Transport string
	Host      string
	Port      int
	UnitID    uint8
	Timeout   time.Duration
	Trace     bool
	Serial    SerialConfig

	Control uint16
	Int     Area
	Float   Area
	Bool    Area

	Handshake  Handshake
	Settle     time.Duration
	ProbeRetry Retry
}

// Endpoint is the controller address: host:port for tcp, the serial device for rtu.
func (s Settings) Endpoint() string {
	if s.Transport == TransportRTU {
		return s.Serial.Device
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// SettingsFrom converts a validated and normalized Config.
func SettingsFrom(cfg *Config) Settings {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	return Settings{
		Transport: cfg.Controller.Transport,
		Host:      cfg.Controller.Host,
		Port:      cfg.Controller.Port,
		UnitID:    cfg.Controller.UnitID,
		Timeout:   ms(cfg.Controller.TimeoutMs),
		Trace:     cfg.Controller.Trace,
		Serial:    cfg.Controller.Serial,

		Control: cfg.Areas.Control.Address,
		Int:     Area{Address: cfg.Areas.Int.Address, Size: cfg.Areas.Int.Size},
		Float:   Area{Address: cfg.Areas.Float.Address, Size: cfg.Areas.Float.Size},
		Bool:    Area{Address: cfg.Areas.Bool.Address, Size: cfg.Areas.Bool.Size},

		Handshake: Handshake{
			Attempts: cfg.Handshake.Attempts,
			Step:     ms(cfg.Handshake.StepMs),
			Gap:      ms(cfg.Handshake.GapMs),
		},
		Settle: ms(cfg.Verify.SettleMs),
		ProbeRetry: Retry{
			Attempts:       cfg.ProbeRetry.Attempts,
			InitialBackoff: ms(cfg.ProbeRetry.InitialBackoffMs),
		},
	}
}
