// internal/config/config.go
package config

type Config struct {
	Controller ControllerConfig `yaml:"controller"`
	Areas      AreasConfig      `yaml:"areas"`
	Handshake  HandshakeConfig  `yaml:"handshake"`
	Verify     VerifyConfig     `yaml:"verify"`
	ProbeRetry ProbeRetryConfig `yaml:"probe_retry"`
}

// ---- CONTROLLER ----

const (
	TransportTCP = "tcp"
	TransportRTU = "rtu"
)

type ControllerConfig struct {
	Transport string `yaml:"transport"` // tcp | rtu; empty => tcp
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Trace     bool   `yaml:"trace"` // dump raw frames to the log

	Serial SerialConfig `yaml:"serial"`
}

// SerialConfig is used only when transport is rtu.
type SerialConfig struct {
	Device   string `yaml:"device"`
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	StopBits int    `yaml:"stop_bits"`
	Parity   string `yaml:"parity"` // N | E | O
}

// ---- MEMORY AREAS ----

type AreasConfig struct {
	Control ControlArea `yaml:"control"`
	Int     AreaConfig  `yaml:"int"`
	Float   AreaConfig  `yaml:"float"`
	Bool    AreaConfig  `yaml:"bool"`
}

type ControlArea struct {
	Address uint16 `yaml:"address"`
}

type AreaConfig struct {
	Address uint16 `yaml:"address"`
	Size    int    `yaml:"size"` // words
}

// ---- PROTOCOL TIMING ----

type HandshakeConfig struct {
	Attempts int `yaml:"attempts"`
	StepMs   int `yaml:"step_ms"` // sleep StepMs * attempt before each poll
	GapMs    int `yaml:"gap_ms"`  // fixed sleep between polls
}

type VerifyConfig struct {
	SettleMs int `yaml:"settle_ms"`
}

// ProbeRetryConfig enables retrying the connectivity probe. Attempts <= 1 disables it.
type ProbeRetryConfig struct {
	Attempts         int `yaml:"attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms"`
}
