package config

import (
	"time"

	"wstl-go/errcode"
	"wstl-go/types"
	"wstl-go/x/mathx"
)

// Logger is the typed board configuration used by the firmware.
type Logger struct {
	Loop      Loop      `json:"logger"`
	Store     Store     `json:"store"`
	UART      UART      `json:"uart"`
	Indicator Indicator `json:"indicator"`
}

type Loop struct {
	TickIntervalMs     int    `json:"tick_interval_ms"`
	HandshakeTimeoutMs int    `json:"handshake_timeout_ms"`
	Sentinel           string `json:"sentinel"`
	BusyRetries        int    `json:"busy_retries"`
	BusyBackoffMs      int    `json:"busy_backoff_ms"`
}

type Store struct {
	ExpectedID    uint32 `json:"expected_id"`
	WakeDelayUs   int    `json:"wake_delay_us"`
	ResumeDelayUs int    `json:"resume_delay_us"`
	CapacityWords uint32 `json:"capacity_words"`
}

type UART struct {
	Baud     uint32       `json:"baud"`
	DataBits uint8        `json:"data_bits"`
	StopBits uint8        `json:"stop_bits"`
	Parity   types.Parity `json:"parity"`
}

type Indicator struct {
	Enabled bool `json:"enabled"`
	BlinkMs int  `json:"blink_ms"`
}

// Defaults fills zero fields and clamps the rest into range.
func (c *Logger) Defaults() {
	l := &c.Loop
	if l.TickIntervalMs == 0 {
		l.TickIntervalMs = 6000
	}
	l.TickIntervalMs = mathx.Clamp(l.TickIntervalMs, 100, 3600_000)
	if l.HandshakeTimeoutMs == 0 {
		l.HandshakeTimeoutMs = 5000
	}
	l.HandshakeTimeoutMs = mathx.Clamp(l.HandshakeTimeoutMs, 10, 60_000)
	if l.Sentinel == "" {
		l.Sentinel = "X"
	}
	if l.BusyRetries == 0 {
		l.BusyRetries = 10
	}
	l.BusyRetries = mathx.Clamp(l.BusyRetries, 1, 1000)
	l.BusyBackoffMs = mathx.Max(l.BusyBackoffMs, 1)

	s := &c.Store
	if s.ExpectedID == 0 {
		s.ExpectedID = 0x1F6501
	}
	if s.WakeDelayUs == 0 {
		s.WakeDelayUs = 70
	}
	if s.ResumeDelayUs == 0 {
		s.ResumeDelayUs = 8
	}
	if s.CapacityWords == 0 {
		s.CapacityWords = 32768
	}
	s.CapacityWords = mathx.Clamp(s.CapacityWords, 1, 0xFFFF)

	u := &c.UART
	if u.Baud == 0 {
		u.Baud = 9600
	}
	if u.DataBits == 0 {
		u.DataBits = 8
	}
	if u.StopBits == 0 {
		u.StopBits = 1
	}
	if c.Indicator.BlinkMs <= 0 {
		c.Indicator.BlinkMs = 20
	}
}

// Validate rejects configurations the main loop cannot honour.
func (c *Logger) Validate() error {
	if c.Loop.HandshakeTimeoutMs >= c.Loop.TickIntervalMs {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "handshake timeout must be shorter than the tick interval"}
	}
	if len(c.Loop.Sentinel) != 1 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "sentinel must be one byte"}
	}
	if c.UART.DataBits < 5 || c.UART.DataBits > 8 || c.UART.StopBits < 1 || c.UART.StopBits > 2 {
		return &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "unsupported serial format"}
	}
	return nil
}

// Load decodes, defaults and validates the embedded config for device.
func Load(device string) (Logger, error) {
	var c Logger
	raw, ok := EmbeddedConfigLookup(device)
	if !ok {
		return c, &errcode.E{C: errcode.InvalidConfig, Op: "config", Msg: "no embedded config for " + device}
	}
	if err := DecodeJSON(raw, &c); err != nil {
		return c, errcode.Wrap(errcode.InvalidConfig, "config", err)
	}
	c.Defaults()
	return c, c.Validate()
}

func (l Loop) Tick() time.Duration      { return time.Duration(l.TickIntervalMs) * time.Millisecond }
func (l Loop) Handshake() time.Duration { return time.Duration(l.HandshakeTimeoutMs) * time.Millisecond }
func (l Loop) Backoff() time.Duration   { return time.Duration(l.BusyBackoffMs) * time.Millisecond }

func (s Store) WakeDelay() time.Duration   { return time.Duration(s.WakeDelayUs) * time.Microsecond }
func (s Store) ResumeDelay() time.Duration { return time.Duration(s.ResumeDelayUs) * time.Microsecond }

// Format returns the serial framing.
func (u UART) Format() types.SerialFormat {
	return types.SerialFormat{Baud: u.Baud, DataBits: u.DataBits, StopBits: u.StopBits, Parity: u.Parity}
}
