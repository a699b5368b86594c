package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: board name (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that board
// -----------------------------------------------------------------------------

const cfgPico = `{
  "logger": {
    "tick_interval_ms": 6000,
    "handshake_timeout_ms": 5000,
    "sentinel": "X",
    "busy_retries": 10,
    "busy_backoff_ms": 1
  },
  "store": {
    "expected_id": 2057473,
    "wake_delay_us": 70,
    "resume_delay_us": 8,
    "capacity_words": 32768
  },
  "uart": {
    "baud": 9600,
    "data_bits": 8,
    "stop_bits": 1,
    "parity": "none"
  },
  "indicator": {
    "enabled": true,
    "blink_ms": 20
  }
}`

// cfgHost drives the simulated board; the window is short so the
// simulation runs quickly.
const cfgHost = `{
  "logger": {
    "tick_interval_ms": 1000,
    "handshake_timeout_ms": 200,
    "sentinel": "X"
  },
  "store": {
    "capacity_words": 4096
  },
  "uart": {
    "baud": 115200
  },
  "indicator": {
    "enabled": false
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"host": []byte(cfgHost),
}
